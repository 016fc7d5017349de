// Package launch validates the file argument the process was started with and
// holds the result until the editor asks for it.
package launch

import (
	"path/filepath"

	"github.com/isseis/go-wisty-fileio/internal/common"
	"github.com/isseis/go-wisty-fileio/internal/pathresolve"
)

// PathResolver turns a raw argument into an absolute path.
type PathResolver interface {
	Resolve(raw string) (string, error)
}

// SizeChecker decides whether a regular file of the given size may be opened.
type SizeChecker interface {
	Check(path string, size uint64) error
}

// PendingLaunchFile describes the validated launch argument.
type PendingLaunchFile struct {
	Path      string  `json:"path" msgpack:"path"`
	Exists    bool    `json:"exists" msgpack:"exists"`
	SizeBytes *uint64 `json:"fileSizeBytes,omitempty" msgpack:"fileSizeBytes,omitempty"`
}

// ApprovedPath returns the only path that may be read-streamed, or "" if the
// launch file does not exist yet (or p is nil).
func (p *PendingLaunchFile) ApprovedPath() string {
	if p == nil || !p.Exists {
		return ""
	}
	return p.Path
}

// Validator checks the launch argument.
type Validator struct {
	resolver PathResolver
	fs       common.FileSystem
	gate     SizeChecker
}

// NewValidator creates a validator. A nil resolver or fs selects the defaults.
func NewValidator(resolver PathResolver, fs common.FileSystem, gate SizeChecker) *Validator {
	if resolver == nil {
		resolver = pathresolve.NewResolver()
	}
	if fs == nil {
		fs = common.NewDefaultFileSystem()
	}
	return &Validator{resolver: resolver, fs: fs, gate: gate}
}

// Validate inspects the process arguments (without the program name) and
// returns the launch file they name, or nil when there is none.
func (v *Validator) Validate(args []string) (*PendingLaunchFile, error) {
	raw, ok, err := SinglePositional(args)
	if err != nil || !ok {
		return nil, err
	}
	return v.ValidatePath(raw)
}

// ValidatePath validates a single raw path or file:// URI.
func (v *Validator) ValidatePath(raw string) (*PendingLaunchFile, error) {
	path, err := v.resolver.Resolve(raw)
	if err != nil {
		return nil, &Error{Kind: KindInvalidPath, Path: raw, Err: err}
	}

	info, err := v.fs.Stat(path)
	switch {
	case err == nil:
		return v.existing(path, info.Mode().IsRegular(), uint64(info.Size())) //nolint:gosec // size is never negative
	case common.IsNotExist(err):
		return v.missing(path)
	default:
		return nil, &Error{Kind: KindStatFailed, Path: path, Err: err}
	}
}

func (v *Validator) existing(path string, regular bool, size uint64) (*PendingLaunchFile, error) {
	if !regular {
		return nil, &Error{Kind: KindNotRegularFile, Path: path}
	}
	if v.gate != nil {
		if err := v.gate.Check(path, size); err != nil {
			return nil, &Error{Kind: KindSizeRejected, Path: path, Err: err}
		}
	}

	canonical, err := v.fs.EvalSymlinks(path)
	if err != nil {
		return nil, &Error{Kind: KindCanonicalizeFailed, Path: path, Err: err}
	}
	return &PendingLaunchFile{Path: canonical, Exists: true, SizeBytes: &size}, nil
}

// missing accepts a path that does not exist yet so the editor can be opened
// on a new file, provided the directory it would live in exists.
func (v *Validator) missing(path string) (*PendingLaunchFile, error) {
	parent := filepath.Dir(path)
	name := filepath.Base(path)

	info, err := v.fs.Stat(parent)
	if err != nil {
		if common.IsNotExist(err) {
			return nil, &Error{Kind: KindParentMissing, Path: parent, Err: err}
		}
		return nil, &Error{Kind: KindStatFailed, Path: parent, Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Kind: KindParentNotDirectory, Path: parent}
	}

	canonicalParent, err := v.fs.EvalSymlinks(parent)
	if err != nil {
		return nil, &Error{Kind: KindCanonicalizeFailed, Path: parent, Err: err}
	}
	return &PendingLaunchFile{Path: filepath.Join(canonicalParent, name), Exists: false}, nil
}
