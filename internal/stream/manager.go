// Package stream serves chunked reads of the approved launch file and
// chunked, crash-safe writes of save targets.
//
// A Manager owns two independent session registries, one per direction.
// Reads are only ever allowed against the launch path approved at startup.
// Writes go to a sibling temporary file that replaces the target by rename
// when the save finishes, so an interrupted save never leaves a truncated
// target behind.
package stream

import (
	"errors"
	"log/slog"

	"github.com/isseis/go-wisty-fileio/internal/common"
	"github.com/isseis/go-wisty-fileio/internal/safefileio"
	"github.com/isseis/go-wisty-fileio/internal/session"
)

// Session id prefixes.
const (
	ReadSessionPrefix  = "launch"
	WriteSessionPrefix = "save"
)

// Manager is the entry point for all stream operations. It is safe for
// concurrent use.
type Manager struct {
	approvedPath string
	reads        *session.Registry[*readSession]
	writes       *session.Registry[*writeSession]
	opener       *safefileio.Opener
	fs           common.FileSystem
	logger       *slog.Logger
}

// Option is a function type for configuring Manager instances
type Option func(*managerOptions)

type managerOptions struct {
	fs     common.FileSystem
	opener *safefileio.Opener
	logger *slog.Logger
}

// WithFileSystem sets the file system used for stat, rename and remove
func WithFileSystem(fs common.FileSystem) Option {
	return func(opts *managerOptions) {
		opts.fs = fs
	}
}

// WithOpener sets the opener used to open source files and create temporary files
func WithOpener(opener *safefileio.Opener) Option {
	return func(opts *managerOptions) {
		opts.opener = opener
	}
}

// WithLogger sets the logger for session lifecycle events
func WithLogger(logger *slog.Logger) Option {
	return func(opts *managerOptions) {
		opts.logger = logger
	}
}

// NewManager creates a manager. approvedPath is the only path StartRead will
// accept; pass "" to disable reading entirely.
func NewManager(approvedPath string, options ...Option) *Manager {
	opts := &managerOptions{}
	for _, option := range options {
		option(opts)
	}
	if opts.fs == nil {
		opts.fs = common.NewDefaultFileSystem()
	}
	if opts.opener == nil {
		opts.opener = safefileio.NewOpener()
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}

	return &Manager{
		approvedPath: approvedPath,
		reads:        session.NewRegistry[*readSession](ReadSessionPrefix),
		writes:       session.NewRegistry[*writeSession](WriteSessionPrefix),
		opener:       opts.opener,
		fs:           opts.fs,
		logger:       opts.logger,
	}
}

// ApprovedPath returns the launch path fixed at construction.
func (m *Manager) ApprovedPath() string {
	return m.approvedPath
}

// ActiveSessions returns the number of open read and write sessions.
func (m *Manager) ActiveSessions() (reads, writes int) {
	return m.reads.Len(), m.writes.Len()
}

// Shutdown closes every read session and cancels every write session.
// Unfinished saves are discarded rather than committed.
func (m *Manager) Shutdown() {
	for _, s := range m.reads.Drain() {
		m.closeReadSession(s, "shutdown")
	}
	for _, s := range m.writes.Drain() {
		if err := m.discardWriteSession(s); err != nil {
			m.logger.Warn("Failed to discard save stream on shutdown",
				"stream_id", s.id,
				"temp_path", s.tempPath,
				"error", err)
		}
	}
}

// sessionError converts a registry miss into a stream error. Other errors
// already come from this package and pass through unchanged.
func sessionError(id string, err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return &Error{Kind: KindSessionNotFound, SessionID: id}
	}
	return err
}
