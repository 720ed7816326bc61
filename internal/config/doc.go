// Package config defines the settings of a release-sync run and helpers to
// load, validate and save them.
//
// Settings come from a YAML file, RELEASE_SYNC_* environment overrides and the
// GITHUB_TOKEN and GITHUB_RUN_DATETIME variables. The repository list defaults
// to the repositories the mirror was created for.
package config
