package stream

import (
	"errors"
	"fmt"
)

// Kind classifies stream failures. The String form is what crosses the
// command boundary.
type Kind int

const (
	// KindPathNotApproved means a read was requested for a path other than the launch file.
	KindPathNotApproved Kind = iota + 1
	// KindNotRegularFile means the path is not a regular file (or is a symlink).
	KindNotRegularFile
	// KindOpenFailed means the file could not be opened.
	KindOpenFailed
	// KindSessionNotFound means the session id is unknown or already finished.
	KindSessionNotFound
	// KindReadFailed means reading from the file failed.
	KindReadFailed
	// KindInvalidEncoding means the file is not valid UTF-8.
	KindInvalidEncoding
	// KindEmptyPath means a save target path was empty.
	KindEmptyPath
	// KindParentMissing means the save target's directory does not exist.
	KindParentMissing
	// KindTempCollision means the temporary file for a save already exists.
	KindTempCollision
	// KindWriteFailed means appending to the temporary file failed.
	KindWriteFailed
	// KindFlushFailed means buffered data could not be written out and synced.
	KindFlushFailed
	// KindRenameFailed means the temporary file could not replace the target.
	KindRenameFailed
	// KindDeleteFailed means the temporary file could not be removed.
	KindDeleteFailed
)

var kindNames = map[Kind]string{
	KindPathNotApproved: "path_not_approved",
	KindNotRegularFile:  "not_regular_file",
	KindOpenFailed:      "open_failed",
	KindSessionNotFound: "session_not_found",
	KindReadFailed:      "read_failed",
	KindInvalidEncoding: "invalid_encoding",
	KindEmptyPath:       "empty_path",
	KindParentMissing:   "parent_missing",
	KindTempCollision:   "temp_collision",
	KindWriteFailed:     "write_failed",
	KindFlushFailed:     "flush_failed",
	KindRenameFailed:    "rename_failed",
	KindDeleteFailed:    "delete_failed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var kindMessages = map[Kind]string{
	KindPathNotApproved: "path is not the approved launch file",
	KindNotRegularFile:  "not a regular file",
	KindOpenFailed:      "failed to open file",
	KindSessionNotFound: "stream session not found",
	KindReadFailed:      "failed to read file",
	KindInvalidEncoding: "file is not valid UTF-8",
	KindEmptyPath:       "save path is empty",
	KindParentMissing:   "parent directory does not exist",
	KindTempCollision:   "temporary file already exists",
	KindWriteFailed:     "failed to write temporary file",
	KindFlushFailed:     "failed to flush temporary file",
	KindRenameFailed:    "failed to replace target file",
	KindDeleteFailed:    "failed to delete temporary file",
}

// Sentinel errors for errors.Is checks.
var (
	ErrPathNotApproved = &Error{Kind: KindPathNotApproved}
	ErrNotRegularFile  = &Error{Kind: KindNotRegularFile}
	ErrOpenFailed      = &Error{Kind: KindOpenFailed}
	ErrSessionNotFound = &Error{Kind: KindSessionNotFound}
	ErrReadFailed      = &Error{Kind: KindReadFailed}
	ErrInvalidEncoding = &Error{Kind: KindInvalidEncoding}
	ErrEmptyPath       = &Error{Kind: KindEmptyPath}
	ErrParentMissing   = &Error{Kind: KindParentMissing}
	ErrTempCollision   = &Error{Kind: KindTempCollision}
	ErrWriteFailed     = &Error{Kind: KindWriteFailed}
	ErrFlushFailed     = &Error{Kind: KindFlushFailed}
	ErrRenameFailed    = &Error{Kind: KindRenameFailed}
	ErrDeleteFailed    = &Error{Kind: KindDeleteFailed}
)

// Error is a stream operation failure with the context needed to report it.
type Error struct {
	Kind      Kind
	SessionID string
	Path      string
	// Offset is the absolute byte offset of an encoding error.
	Offset int64
	Err    error
}

func (e *Error) Error() string {
	msg, ok := kindMessages[e.Kind]
	if !ok {
		msg = "stream error"
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.SessionID != "" {
		msg += fmt.Sprintf(" (session %s)", e.SessionID)
	}
	if e.Kind == KindInvalidEncoding {
		msg += fmt.Sprintf(" at byte %d", e.Offset)
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
