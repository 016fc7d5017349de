package config

import (
	"errors"
	"fmt"
)

// Configuration errors
var (
	// ErrInvalidLogLevel is returned for an unknown logging level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLimits is returned when the size limits are not ordered soft < hard
	ErrInvalidLimits = errors.New("invalid size limits")

	// ErrConflictingTerminalOverrides is returned when both terminal force flags are set
	ErrConflictingTerminalOverrides = errors.New("force_interactive and force_non_interactive are mutually exclusive")

	// ErrInvalidListen is returned for an unsupported ipc.listen value
	ErrInvalidListen = errors.New("invalid ipc listen address")

	// ErrConfigTooLarge is returned when the config file exceeds the read limit
	ErrConfigTooLarge = errors.New("config file too large")
)

// LoadError reports a config file that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load config %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *LoadError) Unwrap() error {
	return e.Err
}
