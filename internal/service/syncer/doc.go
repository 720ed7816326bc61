// Package syncer mirrors the latest release of configured GitHub repositories.
//
// Synchronizer reconciles a single repository: it compares the latest release
// tag with the stored version marker and, when they differ, assembles the
// assets and metadata in a staging directory that then replaces the project
// directory. Run drives the synchronizer over the configured repositories,
// keeps going when one of them fails and prints a summary.
package syncer
