package launch

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies launch argument failures. Every kind is fatal at startup.
type Kind int

const (
	// KindTooManyArguments means more than one positional argument was given.
	KindTooManyArguments Kind = iota + 1
	// KindInvalidPath means the argument could not be turned into an absolute path.
	KindInvalidPath
	// KindNotRegularFile means the path exists but is a directory, device or similar.
	KindNotRegularFile
	// KindParentMissing means the path does not exist and neither does its parent.
	KindParentMissing
	// KindParentNotDirectory means the path does not exist and its parent is not a directory.
	KindParentNotDirectory
	// KindStatFailed means the path could not be inspected.
	KindStatFailed
	// KindCanonicalizeFailed means symlinks in the path could not be resolved.
	KindCanonicalizeFailed
	// KindSizeRejected means the size gate refused the file.
	KindSizeRejected
)

func (k Kind) String() string {
	switch k {
	case KindTooManyArguments:
		return "too_many_arguments"
	case KindInvalidPath:
		return "invalid_path"
	case KindNotRegularFile:
		return "not_regular_file"
	case KindParentMissing:
		return "parent_missing"
	case KindParentNotDirectory:
		return "parent_not_directory"
	case KindStatFailed:
		return "stat_failed"
	case KindCanonicalizeFailed:
		return "canonicalize_failed"
	case KindSizeRejected:
		return "size_rejected"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is checks.
var (
	ErrTooManyArguments   = &Error{Kind: KindTooManyArguments}
	ErrInvalidPath        = &Error{Kind: KindInvalidPath}
	ErrNotRegularFile     = &Error{Kind: KindNotRegularFile}
	ErrParentMissing      = &Error{Kind: KindParentMissing}
	ErrParentNotDirectory = &Error{Kind: KindParentNotDirectory}
	ErrStatFailed         = &Error{Kind: KindStatFailed}
	ErrCanonicalizeFailed = &Error{Kind: KindCanonicalizeFailed}
	ErrSizeRejected       = &Error{Kind: KindSizeRejected}
)

// Error is a launch argument validation failure.
type Error struct {
	Kind Kind
	Path string
	// Args holds the offending positional arguments for KindTooManyArguments.
	Args []string
	Err  error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindTooManyArguments:
		return fmt.Sprintf("expected at most one file argument, got %d: %s", len(e.Args), strings.Join(e.Args, ", "))
	case KindInvalidPath:
		msg = "invalid file argument"
	case KindNotRegularFile:
		msg = "not a regular file"
	case KindParentMissing:
		msg = "parent directory does not exist"
	case KindParentNotDirectory:
		msg = "parent path is not a directory"
	case KindStatFailed:
		msg = "failed to inspect file"
	case KindCanonicalizeFailed:
		msg = "failed to resolve path"
	case KindSizeRejected:
		// the size gate already names the path
		if e.Err != nil {
			return e.Err.Error()
		}
		msg = "file rejected by size limit"
	default:
		msg = "launch argument error"
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}
