// Package version exposes build metadata of release-sync.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
// Short is also sent to GitHub as part of the User-Agent header.
package version
