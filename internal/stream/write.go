package stream

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/isseis/go-wisty-fileio/internal/common"
	"github.com/isseis/go-wisty-fileio/internal/safefileio"
	"github.com/isseis/go-wisty-fileio/internal/session"
)

const (
	writeBufferSize = 64 * 1024
	// DefaultFileMode is used for targets that do not exist yet.
	DefaultFileMode os.FileMode = 0o644
)

// WriteStart describes a newly opened write session.
type WriteStart struct {
	StreamID string `json:"streamId" msgpack:"streamId"`
	FilePath string `json:"filePath" msgpack:"filePath"`
}

// WriteProgress reports how many bytes a write session has accepted.
type WriteProgress struct {
	BytesWrittenTotal uint64 `json:"bytesWrittenTotal" msgpack:"bytesWrittenTotal"`
}

type writeSession struct {
	id         string
	targetPath string
	tempPath   string
	file       safefileio.File
	w          *bufio.Writer
	written    uint64
	// failed is the first write error. Once set the session only accepts cancel.
	failed error
}

// TempPath returns the temporary file used while saving targetPath in the
// session with the given id.
func TempPath(targetPath, id string) string {
	dir, base := filepath.Split(targetPath)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, id))
}

// StartWrite begins saving to target. Nothing at target changes until
// FinishWrite succeeds. A symlinked target is saved through to the file it
// points at.
func (m *Manager) StartWrite(target string) (*WriteStart, error) {
	if strings.TrimSpace(target) == "" {
		return nil, &Error{Kind: KindEmptyPath}
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return nil, &Error{Kind: KindOpenFailed, Path: target, Err: err}
	}

	resolved := absTarget
	if p, err := m.fs.EvalSymlinks(absTarget); err == nil {
		resolved = p
	}

	parent := filepath.Dir(resolved)
	parentInfo, err := m.fs.Stat(parent)
	if err != nil {
		if common.IsNotExist(err) {
			return nil, &Error{Kind: KindParentMissing, Path: parent, Err: err}
		}
		return nil, &Error{Kind: KindOpenFailed, Path: parent, Err: err}
	}
	if !parentInfo.IsDir() {
		return nil, &Error{Kind: KindParentMissing, Path: parent, Err: fmt.Errorf("%s is not a directory", parent)}
	}

	perm, keepPerm, err := m.targetMode(resolved)
	if err != nil {
		return nil, err
	}

	id := m.writes.Allocate()
	tempPath := TempPath(resolved, id)
	file, err := m.opener.CreateExclusive(tempPath, perm)
	if err != nil {
		if errors.Is(err, safefileio.ErrFileExists) || errors.Is(err, safefileio.ErrIsSymlink) {
			return nil, &Error{Kind: KindTempCollision, Path: tempPath, SessionID: id, Err: err}
		}
		return nil, &Error{Kind: KindOpenFailed, Path: tempPath, SessionID: id, Err: err}
	}

	s := &writeSession{
		id:         id,
		targetPath: resolved,
		tempPath:   tempPath,
		file:       file,
		w:          bufio.NewWriterSize(file, writeBufferSize),
	}
	if keepPerm {
		// the create mode was filtered by the umask
		if err := file.Chmod(perm); err != nil {
			_ = m.discardWriteSession(s)
			return nil, &Error{Kind: KindOpenFailed, Path: tempPath, SessionID: id, Err: err}
		}
	}
	if err := m.writes.Insert(id, s); err != nil {
		_ = m.discardWriteSession(s)
		return nil, &Error{Kind: KindOpenFailed, Path: tempPath, SessionID: id, Err: err}
	}

	m.logger.Debug("Save stream started",
		"stream_id", id,
		"target", resolved,
		"temp_path", tempPath)
	return &WriteStart{StreamID: id, FilePath: absTarget}, nil
}

// targetMode returns the permission bits for the temporary file. keep is true
// when they come from an existing target and must survive the umask.
func (m *Manager) targetMode(target string) (perm os.FileMode, keep bool, err error) {
	info, err := m.fs.Stat(target)
	switch {
	case err == nil:
		if !info.Mode().IsRegular() {
			return 0, false, &Error{Kind: KindNotRegularFile, Path: target}
		}
		return info.Mode().Perm(), true, nil
	case common.IsNotExist(err):
		return DefaultFileMode, false, nil
	default:
		return 0, false, &Error{Kind: KindOpenFailed, Path: target, Err: err}
	}
}

// WriteChunk appends text to the session and returns the running byte total.
func (m *Manager) WriteChunk(id, text string) (*WriteProgress, error) {
	progress, err := session.Apply(m.writes, id, func(s *writeSession) (*WriteProgress, error) {
		if s.failed != nil {
			return nil, &Error{Kind: KindWriteFailed, SessionID: id, Path: s.tempPath, Err: s.failed}
		}
		n, err := s.w.WriteString(text)
		s.written += uint64(n) //nolint:gosec // n is never negative
		if err != nil {
			s.failed = err
			m.logger.Warn("Save stream write failed",
				"stream_id", id,
				"temp_path", s.tempPath,
				"error", err)
			return nil, &Error{Kind: KindWriteFailed, SessionID: id, Path: s.tempPath, Err: err}
		}
		return &WriteProgress{BytesWrittenTotal: s.written}, nil
	})
	if err != nil {
		return nil, sessionError(id, err)
	}
	return progress, nil
}

// FinishWrite flushes the session, makes it durable and renames it over the
// target. A session whose earlier write failed is refused and stays
// registered for CancelWrite. Otherwise the session is consumed whether or
// not this succeeds; on failure the temporary file is removed and the target
// is left as it was.
func (m *Manager) FinishWrite(id string) (*WriteProgress, error) {
	err := m.writes.With(id, func(s *writeSession) error {
		if s.failed != nil {
			return &Error{Kind: KindWriteFailed, SessionID: id, Path: s.tempPath, Err: s.failed}
		}
		return nil
	})
	if err != nil {
		return nil, sessionError(id, err)
	}

	s, ok := m.writes.Remove(id)
	if !ok {
		return nil, &Error{Kind: KindSessionNotFound, SessionID: id}
	}

	if err := m.commit(s); err != nil {
		if rmErr := m.removeTemp(s); rmErr != nil {
			m.logger.Warn("Failed to remove temporary file after failed save",
				"stream_id", id,
				"temp_path", s.tempPath,
				"error", rmErr)
		}
		return nil, err
	}

	m.logger.Debug("Save stream finished",
		"stream_id", id,
		"target", s.targetPath,
		"bytes_written", s.written)
	return &WriteProgress{BytesWrittenTotal: s.written}, nil
}

func (m *Manager) commit(s *writeSession) error {
	if s.failed != nil {
		_ = s.file.Close()
		return &Error{Kind: KindWriteFailed, SessionID: s.id, Path: s.tempPath, Err: s.failed}
	}
	if err := s.w.Flush(); err != nil {
		_ = s.file.Close()
		return &Error{Kind: KindFlushFailed, SessionID: s.id, Path: s.tempPath, Err: err}
	}
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return &Error{Kind: KindFlushFailed, SessionID: s.id, Path: s.tempPath, Err: err}
	}
	if err := s.file.Close(); err != nil {
		return &Error{Kind: KindFlushFailed, SessionID: s.id, Path: s.tempPath, Err: err}
	}
	if err := m.fs.Rename(s.tempPath, s.targetPath); err != nil {
		return &Error{Kind: KindRenameFailed, SessionID: s.id, Path: s.targetPath, Err: err}
	}
	return nil
}

// CancelWrite discards the session and its temporary file. The target is
// never touched.
func (m *Manager) CancelWrite(id string) error {
	s, ok := m.writes.Remove(id)
	if !ok {
		return &Error{Kind: KindSessionNotFound, SessionID: id}
	}
	if err := m.discardWriteSession(s); err != nil {
		return err
	}
	m.logger.Debug("Save stream cancelled",
		"stream_id", id,
		"target", s.targetPath)
	return nil
}

// discardWriteSession drops buffered data, closes the temporary file and
// deletes it.
func (m *Manager) discardWriteSession(s *writeSession) error {
	if err := s.file.Close(); err != nil {
		m.logger.Warn("Failed to close temporary file",
			"stream_id", s.id,
			"temp_path", s.tempPath,
			"error", err)
	}
	return m.removeTemp(s)
}

func (m *Manager) removeTemp(s *writeSession) error {
	if err := m.fs.Remove(s.tempPath); err != nil && !common.IsNotExist(err) {
		return &Error{Kind: KindDeleteFailed, SessionID: s.id, Path: s.tempPath, Err: err}
	}
	return nil
}
