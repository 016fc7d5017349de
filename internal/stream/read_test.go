//go:build !windows

package stream

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isseis/go-wisty-fileio/internal/safefileio"
)

func newReadManager(t *testing.T, content []byte) (*Manager, string) {
	t.Helper()
	path := filepath.Join(tempDir(t), "launch.txt")
	writeFile(t, path, content)
	return NewManager(path, WithLogger(discardLogger())), path
}

func readAll(t *testing.T, m *Manager, id string, sizes []uint32) (string, *Chunk) {
	t.Helper()
	var sb strings.Builder
	for i := 0; ; i++ {
		chunk, err := m.ReadChunk(id, sizes[i%len(sizes)])
		require.NoError(t, err)
		if chunk.IsEOF() {
			return sb.String(), chunk
		}
		require.True(t, utf8.ValidString(chunk.Text), "chunk %d is not valid UTF-8", i)
		sb.WriteString(chunk.Text)
		require.Less(t, i, 10000, "stream did not terminate")
	}
}

func mixedText(minBytes int) []byte {
	pieces := []string{"a", "é", "€", "😀", "\n", "xyz", "日本語"}
	var buf bytes.Buffer
	for i := 0; buf.Len() < minBytes; i++ {
		buf.WriteString(pieces[i%len(pieces)])
	}
	return buf.Bytes()
}

func TestClampChunkSize(t *testing.T) {
	tests := []struct {
		requested uint32
		want      int
	}{
		{0, DefaultChunkBytes},
		{1, MinChunkBytes},
		{MinChunkBytes - 1, MinChunkBytes},
		{MinChunkBytes, MinChunkBytes},
		{10000, 10000},
		{MaxChunkBytes, MaxChunkBytes},
		{MaxChunkBytes + 1, MaxChunkBytes},
		{^uint32(0), MaxChunkBytes},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampChunkSize(tt.requested), "requested %d", tt.requested)
	}
}

func TestSplitUTF8(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantValid string
		wantRest  []byte
		wantBad   int
	}{
		{name: "ascii", data: []byte("abc"), wantValid: "abc", wantBad: -1},
		{name: "complete multibyte", data: []byte("a€"), wantValid: "a€", wantBad: -1},
		{name: "split two of three", data: []byte("a\xe2\x82"), wantValid: "a", wantRest: []byte("\xe2\x82"), wantBad: -1},
		{name: "split one of four", data: []byte("ab\xf0"), wantValid: "ab", wantRest: []byte("\xf0"), wantBad: -1},
		{name: "split three of four", data: []byte("\xf0\x9f\x98"), wantValid: "", wantRest: []byte("\xf0\x9f\x98"), wantBad: -1},
		{name: "stray continuation", data: []byte("ab\x80c"), wantBad: 2},
		{name: "invalid byte", data: []byte("\xff"), wantBad: 0},
		{name: "bad second byte", data: []byte("a\xe2\x41"), wantBad: 1},
		{name: "overlong prefix", data: []byte("\xe0\x80"), wantBad: 0},
		{name: "surrogate", data: []byte("\xed\xa0\x80"), wantBad: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, rest, bad := splitUTF8(tt.data)
			assert.Equal(t, tt.wantBad, bad)
			if tt.wantBad >= 0 {
				return
			}
			assert.Equal(t, tt.wantValid, string(valid))
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestReadStream_ConcatenationEqualsFile(t *testing.T) {
	content := mixedText(200 * 1024)
	sizeSchedules := [][]uint32{
		{0},
		{1},
		{4097},
		{5000, 4096, 12345, 1 << 20},
		{MaxChunkBytes},
	}

	for _, sizes := range sizeSchedules {
		m, path := newReadManager(t, content)
		start, err := m.StartRead(path)
		require.NoError(t, err)
		assert.Equal(t, uint64(len(content)), start.FileSizeBytes)
		assert.Equal(t, path, start.FilePath)

		text, eof := readAll(t, m, start.StreamID, sizes)

		assert.Equal(t, string(content), text, "schedule %v", sizes)
		assert.Equal(t, uint64(len(content)), eof.BytesReadTotal)
		assert.Equal(t, uint64(len(content)), eof.FileSizeBytes)
		assert.Empty(t, eof.Text)
		m.CloseRead(start.StreamID)
	}
}

func TestReadStream_SplitCharacterIsEmittedWhole(t *testing.T) {
	content := append(bytes.Repeat([]byte("a"), MinChunkBytes-1), []byte("€b")...)
	m, path := newReadManager(t, content)
	start, err := m.StartRead(path)
	require.NoError(t, err)

	first, err := m.ReadChunk(start.StreamID, MinChunkBytes)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", MinChunkBytes-1), first.Text)
	assert.Equal(t, uint64(MinChunkBytes), first.BytesReadTotal)

	second, err := m.ReadChunk(start.StreamID, MinChunkBytes)
	require.NoError(t, err)
	assert.Equal(t, "€b", second.Text)
	assert.Equal(t, uint64(len(content)), second.BytesReadTotal)

	eof, err := m.ReadChunk(start.StreamID, MinChunkBytes)
	require.NoError(t, err)
	assert.True(t, eof.IsEOF())
}

func TestReadStream_TruncatedTrailingCharacter(t *testing.T) {
	m, path := newReadManager(t, []byte("abc\xe2"))
	start, err := m.StartRead(path)
	require.NoError(t, err)

	chunk, err := m.ReadChunk(start.StreamID, 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", chunk.Text)

	_, err = m.ReadChunk(start.StreamID, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	var streamErr *Error
	require.True(t, errors.As(err, &streamErr))
	assert.Equal(t, int64(3), streamErr.Offset)

	// the session stays addressable until the caller releases it
	_, err = m.ReadChunk(start.StreamID, 0)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	m.CloseRead(start.StreamID)
	_, err = m.ReadChunk(start.StreamID, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReadStream_InvalidSequenceInMiddle(t *testing.T) {
	content := append(bytes.Repeat([]byte("x"), MinChunkBytes+10), []byte("\xffrest")...)
	m, path := newReadManager(t, content)
	start, err := m.StartRead(path)
	require.NoError(t, err)

	_, err = m.ReadChunk(start.StreamID, MinChunkBytes)
	require.NoError(t, err)
	_, err = m.ReadChunk(start.StreamID, MinChunkBytes)

	var streamErr *Error
	require.True(t, errors.As(err, &streamErr))
	assert.Equal(t, KindInvalidEncoding, streamErr.Kind)
	assert.Equal(t, int64(MinChunkBytes+10), streamErr.Offset)
	assert.Contains(t, err.Error(), "at byte 4106")

	for i := 0; i < 2; i++ {
		chunk, err := m.ReadChunk(start.StreamID, MinChunkBytes)
		assert.Nil(t, chunk, "no chunk may follow an encoding error")
		assert.ErrorIs(t, err, ErrInvalidEncoding)
		require.True(t, errors.As(err, &streamErr))
		assert.Equal(t, int64(MinChunkBytes+10), streamErr.Offset)
	}

	m.CloseRead(start.StreamID)
	_, err = m.ReadChunk(start.StreamID, MinChunkBytes)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReadStream_EmptyFile(t *testing.T) {
	m, path := newReadManager(t, nil)
	start, err := m.StartRead(path)
	require.NoError(t, err)

	chunk, err := m.ReadChunk(start.StreamID, 0)

	require.NoError(t, err)
	assert.Equal(t, &Chunk{Kind: ChunkKindEOF}, chunk)
}

func TestReadStream_OnlyApprovedPath(t *testing.T) {
	m, path := newReadManager(t, []byte("ok"))
	other := filepath.Join(filepath.Dir(path), "other.txt")
	writeFile(t, other, []byte("secret"))

	tests := []string{other, "", path + "/", filepath.Dir(path) + "/./launch.txt"}
	for _, candidate := range tests {
		_, err := m.StartRead(candidate)
		assert.ErrorIs(t, err, ErrPathNotApproved, "path %q", candidate)
	}

	_, err := m.StartRead(path)
	assert.NoError(t, err)
}

func TestReadStream_NoApprovedPath(t *testing.T) {
	m := NewManager("", WithLogger(discardLogger()))

	_, err := m.StartRead("")

	assert.ErrorIs(t, err, ErrPathNotApproved)
}

func TestReadStream_ApprovedPathNotRegular(t *testing.T) {
	dir := tempDir(t)
	m := NewManager(dir, WithLogger(discardLogger()))

	_, err := m.StartRead(dir)

	assert.ErrorIs(t, err, ErrNotRegularFile)
}

func TestReadStream_ApprovedPathReplacedBySymlink(t *testing.T) {
	dir := tempDir(t)
	path := filepath.Join(dir, "launch.txt")
	writeFile(t, filepath.Join(dir, "elsewhere.txt"), []byte("secret"))
	require.NoError(t, os.Symlink(filepath.Join(dir, "elsewhere.txt"), path))
	m := NewManager(path, WithLogger(discardLogger()))

	_, err := m.StartRead(path)

	assert.ErrorIs(t, err, ErrNotRegularFile)
}

func TestReadStream_ApprovedPathRemoved(t *testing.T) {
	m := NewManager(filepath.Join(tempDir(t), "gone.txt"), WithLogger(discardLogger()))

	_, err := m.StartRead(m.ApprovedPath())

	assert.ErrorIs(t, err, ErrOpenFailed)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadStream_ReadFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	path := filepath.Join(tempDir(t), "launch.txt")
	writeFile(t, path, []byte("data"))
	m := NewManager(path,
		WithLogger(discardLogger()),
		WithOpener(safefileio.NewOpenerWithFS(faultFS{readErr: boom})))
	start, err := m.StartRead(path)
	require.NoError(t, err)

	_, err = m.ReadChunk(start.StreamID, 0)

	assert.ErrorIs(t, err, ErrReadFailed)
	assert.ErrorIs(t, err, boom)
}

func TestReadStream_UnknownAndReleasedSessions(t *testing.T) {
	m, path := newReadManager(t, []byte("hello"))

	_, err := m.ReadChunk("launch-99", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	start, err := m.StartRead(path)
	require.NoError(t, err)
	assert.Equal(t, "launch-1", start.StreamID)
	m.CancelRead(start.StreamID)
	m.CancelRead(start.StreamID)
	m.CloseRead(start.StreamID)

	_, err = m.ReadChunk(start.StreamID, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	reads, _ := m.ActiveSessions()
	assert.Zero(t, reads)
}

func TestReadStream_IndependentSessions(t *testing.T) {
	content := mixedText(3 * MinChunkBytes)
	m, path := newReadManager(t, content)
	a, err := m.StartRead(path)
	require.NoError(t, err)
	b, err := m.StartRead(path)
	require.NoError(t, err)
	assert.NotEqual(t, a.StreamID, b.StreamID)

	textA, _ := readAll(t, m, a.StreamID, []uint32{MinChunkBytes})
	textB, _ := readAll(t, m, b.StreamID, []uint32{MaxChunkBytes})

	assert.Equal(t, string(content), textA)
	assert.Equal(t, string(content), textB)
}
