// Package release contains the core domain types for mirroring GitHub releases.
//
// It defines Repository (what to mirror and where), Release and Asset (what the
// API reported) and Metadata (the record persisted next to the mirrored assets).
package release
