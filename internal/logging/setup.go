package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrNoConsole is returned when Setup is called without a console writer.
var ErrNoConsole = errors.New("console writer is required")

// Options configures Setup.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Dir enables a JSON log file in this directory.
	Dir string
	// RunID is attached to every record.
	RunID string
	// Console receives human-readable output, normally os.Stderr.
	Console io.Writer
}

// Result is what Setup built. Close releases the log file, if any.
type Result struct {
	Logger  *slog.Logger
	LogPath string
	closer  io.Closer
}

// Close flushes and closes the log file.
func (r *Result) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// Setup builds the process logger and installs it as the slog default.
func Setup(opts Options) (*Result, error) {
	return setupWith(NewLogFileOpener(), opts)
}

func setupWith(opener *LogFileOpener, opts Options) (*Result, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Console == nil {
		return nil, ErrNoConsole
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(opts.Console, &slog.HandlerOptions{Level: level}),
	}

	result := &Result{}
	if opts.Dir != "" {
		file, path, err := opener.Open(opts.Dir, opts.RunID)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
		result.LogPath = path
		result.closer = file
	}

	logger := slog.New(NewMultiHandler(handlers...))
	if opts.RunID != "" {
		logger = logger.With("run_id", opts.RunID)
	}
	slog.SetDefault(logger)
	result.Logger = logger
	return result, nil
}
