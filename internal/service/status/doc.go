// Package status renders what is currently mirrored for every configured repository.
//
// It only reads the artifacts directory and never talks to the release API,
// so it works without a GitHub token.
package status
