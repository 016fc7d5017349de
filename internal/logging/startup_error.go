package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrorType classifies failures that stop the process before it serves.
type ErrorType string

const (
	// ErrorTypeConfigLoad represents configuration loading failures
	ErrorTypeConfigLoad ErrorType = "config_load_failed"
	// ErrorTypeLogSetup represents log handler or log file failures
	ErrorTypeLogSetup ErrorType = "log_setup_failed"
	// ErrorTypeLaunchArgument represents an invalid launch file argument
	ErrorTypeLaunchArgument ErrorType = "launch_argument_invalid"
	// ErrorTypeHostChannel represents failures to set up the host channel
	ErrorTypeHostChannel ErrorType = "host_channel_failed"
	// ErrorTypeSystemError represents other system errors
	ErrorTypeSystemError ErrorType = "system_error"
)

// StartupError is a fatal error raised before the host channel is served.
type StartupError struct {
	Type      ErrorType
	Message   string
	Component string
	RunID     string
	Err       error
}

func (e *StartupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v (component: %s, run_id: %s)", e.Type, e.Message, e.Err, e.Component, e.RunID)
	}
	return fmt.Sprintf("%s: %s (component: %s, run_id: %s)", e.Type, e.Message, e.Component, e.RunID)
}

// Unwrap returns the underlying error
func (e *StartupError) Unwrap() error {
	return e.Err
}

// HandleStartupError writes a short report to w and logs the error through
// the default slog logger.
func HandleStartupError(w io.Writer, e *StartupError) {
	details := e.Message
	if e.Err != nil {
		details = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	// one write so concurrent output cannot interleave with the report
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", e.Type)
	if e.Component != "" {
		fmt.Fprintf(&sb, "  Component: %s\n", e.Component)
	}
	fmt.Fprintf(&sb, "  Details: %s\n", details)
	if e.RunID != "" {
		fmt.Fprintf(&sb, "  Run ID: %s\n", e.RunID)
	}
	_, _ = io.WriteString(w, sb.String())

	slog.Error("Startup failed",
		"error_type", string(e.Type),
		"error_message", details,
		"component", e.Component,
		"run_id", e.RunID)
}
