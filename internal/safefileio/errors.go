// Package safefileio provides file opening primitives with protection against
// symlink substitution and against clobbering files that already exist.
package safefileio

import "errors"

var (
	// ErrInvalidFilePath indicates that the specified file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrIsSymlink indicates that the specified path is a symbolic link, which is not allowed.
	ErrIsSymlink = errors.New("path is a symbolic link")

	// ErrFileExists indicates that the file already exists.
	ErrFileExists = errors.New("file exists")

	// ErrNotRegularFile indicates that the path names a directory, device, pipe or similar.
	ErrNotRegularFile = errors.New("not a regular file")
)
