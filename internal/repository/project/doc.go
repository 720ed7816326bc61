// Package project persists the local state of mirrored repositories.
//
// Every repository owns one directory under the artifacts root holding the
// version marker, the metadata record and the downloaded assets. A new
// release is assembled in a sibling staging directory and swapped into place
// with renames, so the final path never holds a mix of two releases.
package project
