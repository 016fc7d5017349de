package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/isseis/go-wisty-fileio/internal/safefileio"
)

// ErrEmptyLogDirectory is returned when a log file is requested without a directory.
var ErrEmptyLogDirectory = errors.New("log directory cannot be empty")

const (
	logDirPerm  os.FileMode = 0o750
	logFilePerm os.FileMode = 0o600
)

// GenerateRunID returns a new identifier for this process run.
func GenerateRunID() string {
	return uuid.New().String()
}

// LogFileName returns "<host>_<timestamp>_<runID>.json".
func LogFileName(hostname string, now time.Time, runID string) string {
	if hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s_%s_%s.json", hostname, now.UTC().Format("20060102T150405Z"), runID)
}

// LogFileOpener creates per-run log files without following symlinks and
// without overwriting anything.
type LogFileOpener struct {
	opener   *safefileio.Opener
	hostname func() (string, error)
	now      func() time.Time
}

// NewLogFileOpener returns an opener for the local disk.
func NewLogFileOpener() *LogFileOpener {
	return &LogFileOpener{opener: safefileio.NewOpener(), hostname: os.Hostname, now: time.Now}
}

// Open creates the log file for runID in dir, creating dir if needed.
func (o *LogFileOpener) Open(dir, runID string) (io.WriteCloser, string, error) {
	if dir == "" {
		return nil, "", ErrEmptyLogDirectory
	}
	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	hostname, err := o.hostname()
	if err != nil {
		hostname = ""
	}
	path := filepath.Join(dir, LogFileName(hostname, o.now(), runID))

	file, err := o.opener.CreateExclusive(path, logFilePerm)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, path, nil
}
