package commands

import (
	"errors"

	"github.com/isseis/go-wisty-fileio/internal/launch"
	"github.com/isseis/go-wisty-fileio/internal/sizegate"
	"github.com/isseis/go-wisty-fileio/internal/stream"
)

// Error kinds owned by the dispatcher.
const (
	ErrorKindUnknownCommand   = "unknown_command"
	ErrorKindInvalidArguments = "invalid_arguments"
	ErrorKindInternal         = "internal_error"
)

// Error is a command failure in the form sent to the host.
type Error struct {
	Kind    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorKind returns the snake_case kind reported to the host.
func (e *Error) ErrorKind() string {
	return e.Kind
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// toCommandError renders err for the host, keeping the original for errors.Is.
func toCommandError(err error) *Error {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr
	}
	return &Error{Kind: kindOf(err), Message: err.Error(), Err: err}
}

func kindOf(err error) string {
	var streamErr *stream.Error
	if errors.As(err, &streamErr) {
		return streamErr.Kind.String()
	}
	var launchErr *launch.Error
	if errors.As(err, &launchErr) {
		return launchErr.Kind.String()
	}
	var gateErr *sizegate.Error
	if errors.As(err, &gateErr) {
		return gateErr.Kind.String()
	}
	return ErrorKindInternal
}
