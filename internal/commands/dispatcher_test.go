//go:build !windows

package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/isseis/go-wisty-fileio/internal/launch"
	"github.com/isseis/go-wisty-fileio/internal/stream"
)

type fixture struct {
	dir        string
	launchPath string
	dispatcher *Dispatcher
	manager    *stream.Manager
}

func newFixture(t *testing.T, launchContent string) *fixture {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	launchPath := filepath.Join(dir, "launch.txt")
	require.NoError(t, os.WriteFile(launchPath, []byte(launchContent), 0o600))

	size := uint64(len(launchContent))
	pending := &launch.PendingLaunchFile{Path: launchPath, Exists: true, SizeBytes: &size}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := stream.NewManager(pending.ApprovedPath(), stream.WithLogger(logger))
	t.Cleanup(manager.Shutdown)

	return &fixture{
		dir:        dir,
		launchPath: launchPath,
		dispatcher: NewDispatcher(launch.NewSlot(pending), manager, logger),
		manager:    manager,
	}
}

func (f *fixture) call(t *testing.T, command string, args any) (any, error) {
	t.Helper()
	var raw msgpack.RawMessage
	if args != nil {
		var err error
		raw, err = msgpack.Marshal(args)
		require.NoError(t, err)
	}
	return f.dispatcher.Handle(context.Background(), command, raw)
}

func requireKind(t *testing.T, err error, kind string) {
	t.Helper()
	require.Error(t, err)
	cmdErr, ok := err.(*Error)
	require.True(t, ok, "error %T is not *Error", err)
	assert.Equal(t, kind, cmdErr.ErrorKind())
}

func TestDispatcher_Commands(t *testing.T) {
	f := newFixture(t, "")

	assert.Equal(t, []string{
		CancelLaunchFileStream,
		CancelSaveFileStream,
		CloseLaunchFileStream,
		FinishSaveFileStream,
		ReadLaunchFileChunk,
		StartLaunchFileStream,
		StartSaveFileStream,
		TakeLaunchFileArg,
		WriteSaveFileChunk,
	}, f.dispatcher.Commands())
}

func TestDispatcher_TakeLaunchFileArgOnce(t *testing.T) {
	f := newFixture(t, "hello")

	first, err := f.call(t, TakeLaunchFileArg, nil)
	require.NoError(t, err)
	pending, ok := first.(*launch.PendingLaunchFile)
	require.True(t, ok)
	assert.Equal(t, f.launchPath, pending.Path)

	second, err := f.call(t, TakeLaunchFileArg, nil)
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestDispatcher_ReadFlow(t *testing.T) {
	content := strings.Repeat("añ€😀", 5000)
	f := newFixture(t, content)

	result, err := f.call(t, StartLaunchFileStream, map[string]any{"filePath": f.launchPath})
	require.NoError(t, err)
	start, ok := result.(*stream.ReadStart)
	require.True(t, ok)
	assert.Equal(t, uint64(len(content)), start.FileSizeBytes)

	var sb strings.Builder
	for {
		result, err := f.call(t, ReadLaunchFileChunk, map[string]any{"streamId": start.StreamID, "maxBytes": 5000})
		require.NoError(t, err)
		chunk, ok := result.(*stream.Chunk)
		require.True(t, ok)
		if chunk.IsEOF() {
			assert.Equal(t, uint64(len(content)), chunk.BytesReadTotal)
			break
		}
		sb.WriteString(chunk.Text)
	}
	assert.Equal(t, content, sb.String())

	_, err = f.call(t, CloseLaunchFileStream, map[string]any{"streamId": start.StreamID})
	require.NoError(t, err)
	_, err = f.call(t, CancelLaunchFileStream, map[string]any{"streamId": start.StreamID})
	require.NoError(t, err, "cancel after close is a no-op")

	_, err = f.call(t, ReadLaunchFileChunk, map[string]any{"streamId": start.StreamID, "maxBytes": 0})
	requireKind(t, err, "session_not_found")
}

func TestDispatcher_ReadHugeMaxBytesIsClamped(t *testing.T) {
	f := newFixture(t, "abc")
	result, err := f.call(t, StartLaunchFileStream, map[string]any{"filePath": f.launchPath})
	require.NoError(t, err)
	start := result.(*stream.ReadStart)

	result, err = f.call(t, ReadLaunchFileChunk, map[string]any{"streamId": start.StreamID, "maxBytes": uint64(1) << 40})

	require.NoError(t, err)
	assert.Equal(t, "abc", result.(*stream.Chunk).Text)
}

func TestDispatcher_StartReadRejectsOtherPaths(t *testing.T) {
	f := newFixture(t, "ok")

	_, err := f.call(t, StartLaunchFileStream, map[string]any{"filePath": "/etc/passwd"})

	requireKind(t, err, "path_not_approved")
	assert.ErrorIs(t, err, stream.ErrPathNotApproved)
}

func TestDispatcher_SaveFlow(t *testing.T) {
	f := newFixture(t, "")
	target := filepath.Join(f.dir, "saved.txt")

	result, err := f.call(t, StartSaveFileStream, map[string]any{"filePath": target})
	require.NoError(t, err)
	start, ok := result.(*stream.WriteStart)
	require.True(t, ok)
	assert.Equal(t, target, start.FilePath)

	for _, chunk := range []string{"line one\n", "línea dos\n"} {
		_, err := f.call(t, WriteSaveFileChunk, map[string]any{"streamId": start.StreamID, "textChunk": chunk})
		require.NoError(t, err)
	}
	result, err = f.call(t, FinishSaveFileStream, map[string]any{"streamId": start.StreamID})
	require.NoError(t, err)
	progress, ok := result.(*stream.WriteProgress)
	require.True(t, ok)
	assert.Equal(t, uint64(len("line one\nlínea dos\n")), progress.BytesWrittenTotal)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "line one\nlínea dos\n", string(data))

	_, err = f.call(t, CancelSaveFileStream, map[string]any{"streamId": start.StreamID})
	requireKind(t, err, "session_not_found")
}

func TestDispatcher_SaveCancel(t *testing.T) {
	f := newFixture(t, "")
	target := filepath.Join(f.dir, "never.txt")

	result, err := f.call(t, StartSaveFileStream, map[string]any{"filePath": target})
	require.NoError(t, err)
	start := result.(*stream.WriteStart)
	_, err = f.call(t, WriteSaveFileChunk, map[string]any{"streamId": start.StreamID, "textChunk": "draft"})
	require.NoError(t, err)

	result, err = f.call(t, CancelSaveFileStream, map[string]any{"streamId": start.StreamID})

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoFileExists(t, target)
}

func TestDispatcher_StartSaveErrors(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.call(t, StartSaveFileStream, map[string]any{"filePath": ""})
	requireKind(t, err, "empty_path")

	_, err = f.call(t, StartSaveFileStream, map[string]any{"filePath": filepath.Join(f.dir, "no", "such.txt")})
	requireKind(t, err, "parent_missing")
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.call(t, "read_text_file", nil)

	requireKind(t, err, ErrorKindUnknownCommand)
	assert.Contains(t, err.Error(), "read_text_file")
}

func TestDispatcher_InvalidArguments(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.call(t, WriteSaveFileChunk, map[string]any{"streamId": 12, "textChunk": true})
	requireKind(t, err, ErrorKindInvalidArguments)

	_, err = f.dispatcher.Handle(context.Background(), FinishSaveFileStream, msgpack.RawMessage{0xc1})
	requireKind(t, err, ErrorKindInvalidArguments)
}

func TestDispatcher_MissingArgumentsActLikeUnknownSession(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.call(t, WriteSaveFileChunk, nil)

	requireKind(t, err, "session_not_found")
}
