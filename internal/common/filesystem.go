// Package common provides the file system abstraction shared by the launch
// validator and the stream engines.
package common

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Error definitions for static error handling
var (
	ErrEmptyPath = errors.New("path cannot be empty")
)

// FileSystem defines the interface for file system operations
// This interface allows for easy mocking in tests and provides a consistent API
// for file operations across all packages.
type FileSystem interface {
	// Stat returns file information, following symlinks
	Stat(path string) (fs.FileInfo, error)

	// Lstat returns file information without following symlinks
	Lstat(path string) (fs.FileInfo, error)

	// EvalSymlinks returns the path after resolving all symlinks
	EvalSymlinks(path string) (string, error)

	// Remove removes a single file or empty directory
	Remove(path string) error

	// Rename atomically replaces newPath with oldPath
	Rename(oldPath, newPath string) error
}

// DefaultFileSystem implements FileSystem using standard os package functions
type DefaultFileSystem struct{}

// NewDefaultFileSystem creates a new DefaultFileSystem
func NewDefaultFileSystem() *DefaultFileSystem {
	return &DefaultFileSystem{}
}

// Stat returns file information, following symlinks
func (fs *DefaultFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Lstat returns file information
func (fs *DefaultFileSystem) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// EvalSymlinks returns the path after resolving all symlinks
func (fs *DefaultFileSystem) EvalSymlinks(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

// Remove removes a single file or empty directory
func (fs *DefaultFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// Rename atomically replaces newPath with oldPath
func (fs *DefaultFileSystem) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// IsNotExist reports whether err says a file is missing. It sees through
// wrapped errors, unlike os.IsNotExist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
