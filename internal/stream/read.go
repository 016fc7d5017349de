package stream

import (
	"errors"
	"io"
	"unicode/utf8"

	"github.com/isseis/go-wisty-fileio/internal/safefileio"
	"github.com/isseis/go-wisty-fileio/internal/session"
)

// Chunk size bounds for ReadChunk.
const (
	DefaultChunkBytes = 256 * 1024
	MinChunkBytes     = 4 * 1024
	MaxChunkBytes     = 1024 * 1024
)

// Chunk kinds.
const (
	ChunkKindText = "chunk"
	ChunkKindEOF  = "eof"
)

// ReadStart describes a newly opened read session.
type ReadStart struct {
	StreamID      string `json:"streamId" msgpack:"streamId"`
	FilePath      string `json:"filePath" msgpack:"filePath"`
	FileSizeBytes uint64 `json:"fileSizeBytes" msgpack:"fileSizeBytes"`
}

// Chunk is one step of a read session. Text is always empty for ChunkKindEOF
// and may be empty for ChunkKindText when every byte read belongs to a
// character that is not complete yet.
type Chunk struct {
	Kind           string `json:"kind" msgpack:"kind"`
	Text           string `json:"text" msgpack:"text"`
	BytesReadTotal uint64 `json:"bytesReadTotal" msgpack:"bytesReadTotal"`
	FileSizeBytes  uint64 `json:"fileSizeBytes" msgpack:"fileSizeBytes"`
}

// IsEOF reports whether c ends the stream.
func (c *Chunk) IsEOF() bool {
	return c.Kind == ChunkKindEOF
}

type readSession struct {
	id        string
	path      string
	file      safefileio.File
	size      uint64
	bytesRead uint64
	// carry holds the leading bytes of a character split across reads.
	carry []byte
	buf   []byte
	// failed is the first encoding error; every later read returns it.
	failed error
}

// ClampChunkSize maps a requested chunk size into [MinChunkBytes, MaxChunkBytes].
// Zero selects DefaultChunkBytes.
func ClampChunkSize(requested uint32) int {
	switch {
	case requested == 0:
		return DefaultChunkBytes
	case requested < MinChunkBytes:
		return MinChunkBytes
	case requested > MaxChunkBytes:
		return MaxChunkBytes
	default:
		return int(requested)
	}
}

// StartRead opens the approved launch file for streaming.
func (m *Manager) StartRead(path string) (*ReadStart, error) {
	if m.approvedPath == "" || path != m.approvedPath {
		return nil, &Error{Kind: KindPathNotApproved, Path: path}
	}

	file, info, err := m.opener.OpenRegular(path)
	if err != nil {
		if errors.Is(err, safefileio.ErrNotRegularFile) || errors.Is(err, safefileio.ErrIsSymlink) {
			return nil, &Error{Kind: KindNotRegularFile, Path: path, Err: err}
		}
		return nil, &Error{Kind: KindOpenFailed, Path: path, Err: err}
	}

	s := &readSession{
		id:   m.reads.Allocate(),
		path: path,
		file: file,
		size: uint64(info.Size()), //nolint:gosec // regular file sizes are never negative
	}
	if err := m.reads.Insert(s.id, s); err != nil {
		_ = file.Close()
		return nil, &Error{Kind: KindOpenFailed, Path: path, SessionID: s.id, Err: err}
	}

	m.logger.Debug("Read stream started",
		"stream_id", s.id,
		"path", path,
		"size", s.size)
	return &ReadStart{StreamID: s.id, FilePath: path, FileSizeBytes: s.size}, nil
}

// ReadChunk reads up to maxBytes (see ClampChunkSize) from the session and
// returns the text decoded so far. The concatenated texts of a session are
// exactly the file's contents; a character is never split between chunks.
// An encoding error leaves the session registered so the caller can close it,
// and every later ReadChunk on it returns the same error.
func (m *Manager) ReadChunk(id string, maxBytes uint32) (*Chunk, error) {
	limit := ClampChunkSize(maxBytes)
	chunk, err := session.Apply(m.reads, id, func(s *readSession) (*Chunk, error) {
		return s.next(limit)
	})
	if err != nil {
		return nil, sessionError(id, err)
	}
	return chunk, nil
}

// CancelRead drops a read session the caller gave up on. Unknown ids are ignored.
func (m *Manager) CancelRead(id string) {
	if s, ok := m.reads.Remove(id); ok {
		m.closeReadSession(s, "cancelled")
	}
}

// CloseRead releases a read session after use. Unknown ids are ignored.
func (m *Manager) CloseRead(id string) {
	if s, ok := m.reads.Remove(id); ok {
		m.closeReadSession(s, "closed")
	}
}

func (m *Manager) closeReadSession(s *readSession, reason string) {
	if err := s.file.Close(); err != nil {
		m.logger.Warn("Failed to close read stream",
			"stream_id", s.id,
			"path", s.path,
			"error", err)
	}
	m.logger.Debug("Read stream released",
		"stream_id", s.id,
		"reason", reason,
		"bytes_read", s.bytesRead)
}

func (s *readSession) next(limit int) (*Chunk, error) {
	if s.failed != nil {
		return nil, s.failed
	}
	if cap(s.buf) < limit {
		s.buf = make([]byte, limit)
	}
	buf := s.buf[:limit]

	n, err := s.file.Read(buf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, &Error{Kind: KindReadFailed, SessionID: s.id, Path: s.path, Err: err}
		}
		return s.drainCarry()
	}

	start := int64(s.bytesRead) - int64(len(s.carry)) //nolint:gosec // offsets fit in int64
	s.bytesRead += uint64(n)

	data := make([]byte, 0, len(s.carry)+n)
	data = append(data, s.carry...)
	data = append(data, buf[:n]...)

	valid, rest, badAt := splitUTF8(data)
	if badAt >= 0 {
		s.carry = s.carry[:0]
		s.failed = &Error{Kind: KindInvalidEncoding, SessionID: s.id, Path: s.path, Offset: start + int64(badAt)}
		return nil, s.failed
	}
	s.carry = append(s.carry[:0], rest...)

	return &Chunk{
		Kind:           ChunkKindText,
		Text:           string(valid),
		BytesReadTotal: s.bytesRead,
		FileSizeBytes:  s.size,
	}, nil
}

// drainCarry handles end of file. Leftover bytes are emitted only if they
// form valid text on their own, which means the file ended mid-character
// otherwise.
func (s *readSession) drainCarry() (*Chunk, error) {
	if len(s.carry) == 0 {
		return &Chunk{Kind: ChunkKindEOF, BytesReadTotal: s.bytesRead, FileSizeBytes: s.size}, nil
	}
	if !utf8.Valid(s.carry) {
		s.failed = &Error{
			Kind:      KindInvalidEncoding,
			SessionID: s.id,
			Path:      s.path,
			Offset:    int64(s.bytesRead) - int64(len(s.carry)), //nolint:gosec // offsets fit in int64
		}
		return nil, s.failed
	}
	text := string(s.carry)
	s.carry = s.carry[:0]
	return &Chunk{Kind: ChunkKindText, Text: text, BytesReadTotal: s.bytesRead, FileSizeBytes: s.size}, nil
}

// splitUTF8 returns the longest valid UTF-8 prefix of data and the
// incomplete character that may follow it (at most utf8.UTFMax-1 bytes).
// If data contains an invalid sequence, badAt is its index; otherwise -1.
func splitUTF8(data []byte) (valid, rest []byte, badAt int) {
	i := 0
	for i < len(data) {
		if data[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			if !utf8.FullRune(data[i:]) {
				return data[:i], data[i:], -1
			}
			return nil, nil, i
		}
		i += size
	}
	return data, nil, -1
}
