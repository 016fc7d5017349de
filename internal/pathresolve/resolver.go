// Package pathresolve turns a raw command-line argument (an absolute path, a
// relative path or a file:// URI) into an absolute filesystem path.
package pathresolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileURIScheme is the only URI scheme accepted on the command line.
const FileURIScheme = "file://"

// Error definitions
var (
	// ErrEmptyArgument is returned for an empty or whitespace-only argument.
	ErrEmptyArgument = errors.New("path argument is empty")
	// ErrWorkingDirectory is returned when a relative path cannot be anchored.
	ErrWorkingDirectory = errors.New("cannot determine working directory")
)

// URINormalizer converts the part of a file:// URI after the scheme into a
// native path. Implementations differ by how the host spells absolute paths.
type URINormalizer interface {
	NormalizeURIPath(rest string) string
}

// Resolver resolves command-line path arguments.
type Resolver struct {
	normalizer URINormalizer
	getwd      func() (string, error)
}

// NewResolver creates a resolver using the platform normalizer and the
// process working directory.
func NewResolver() *Resolver {
	return NewResolverWith(DefaultNormalizer(), os.Getwd)
}

// NewResolverWith creates a resolver with explicit collaborators.
func NewResolverWith(normalizer URINormalizer, getwd func() (string, error)) *Resolver {
	return &Resolver{normalizer: normalizer, getwd: getwd}
}

// Resolve returns an absolute, cleaned path for raw. Symlinks are not resolved.
func (r *Resolver) Resolve(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyArgument
	}

	path := raw
	if hasFileScheme(raw) {
		path = r.normalizer.NormalizeURIPath(raw[len(FileURIScheme):])
		if strings.TrimSpace(path) == "" {
			return "", ErrEmptyArgument
		}
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	cwd, err := r.getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWorkingDirectory, err)
	}
	return filepath.Join(cwd, path), nil
}

// hasFileScheme reports whether s starts with file:// (scheme is case-insensitive).
func hasFileScheme(s string) bool {
	return len(s) >= len(FileURIScheme) && strings.EqualFold(s[:len(FileURIScheme)], FileURIScheme)
}
