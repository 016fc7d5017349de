package safefileio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// FileSystem is an interface that abstracts file system operations
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
}

// File is an interface that abstracts file operations
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
	Sync() error
	Chmod(mode os.FileMode) error
}

type osFS struct{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	// #nosec G304 - callers pass paths they have already resolved and approved
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Opener opens files for the stream engines.
type Opener struct {
	fs FileSystem
}

// NewOpener returns an Opener backed by the local disk.
func NewOpener() *Opener {
	return &Opener{fs: osFS{}}
}

// NewOpenerWithFS returns an Opener backed by fs. Intended for tests.
func NewOpenerWithFS(fs FileSystem) *Opener {
	return &Opener{fs: fs}
}

// OpenRegular opens filePath read-only without following a final symlink and
// returns the handle together with its metadata, taken from the open handle
// so the size belongs to the file actually opened.
func (o *Opener) OpenRegular(filePath string) (File, os.FileInfo, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	file, err := o.fs.OpenFile(absPath, os.O_RDONLY|noFollowFlag, 0)
	if err != nil {
		if openedSymlink(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrIsSymlink, absPath)
		}
		return nil, nil, err
	}

	info, err := validateFile(file, absPath)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	return file, info, nil
}

// CreateExclusive creates filePath for writing. It fails with ErrFileExists
// if anything, including a dangling symlink, is already at that path.
func (o *Opener) CreateExclusive(filePath string, perm os.FileMode) (File, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	file, err := o.fs.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL|noFollowFlag, perm)
	if err != nil {
		switch {
		case os.IsExist(err):
			return nil, fmt.Errorf("%w: %s", ErrFileExists, absPath)
		case openedSymlink(err):
			return nil, fmt.Errorf("%w: %s", ErrIsSymlink, absPath)
		default:
			return nil, err
		}
	}

	if _, err := validateFile(file, absPath); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// validateFile checks if the file is a regular file and returns its FileInfo
// To prevent TOCTOU attacks, we use the file descriptor to get the file info
func validateFile(file File, filePath string) (os.FileInfo, error) {
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, filePath)
	}

	return fileInfo, nil
}

// openedSymlink reports whether an open with noFollowFlag failed because the
// final path component is a symlink: ELOOP on Linux and macOS, EMLINK on
// FreeBSD. NetBSD reports EFTYPE, which this package does not support.
func openedSymlink(err error) bool {
	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		return false
	}
	return errors.Is(pathErr.Err, syscall.ELOOP) || errors.Is(pathErr.Err, syscall.EMLINK)
}
