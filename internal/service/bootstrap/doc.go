// Package bootstrap writes a starter configuration file for release-sync.
//
// The generated file lists the default repositories and every tunable key with its
// default value, so a new mirror only needs a token and an edited repository list.
package bootstrap
