// Package github is the HTTP client wrapper of release-sync.
//
// It fetches latest-release metadata from the GitHub REST API and streams
// release assets from their API URL with an octet-stream accept header, so
// assets of private repositories download with the same bearer token.
package github
