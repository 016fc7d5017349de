package stream

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/isseis/go-wisty-fileio/internal/safefileio"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

// faultFS opens real files but wraps them so reads or writes fail.
type faultFS struct {
	readErr  error
	writeErr error
}

func (f faultFS) OpenFile(name string, flag int, perm os.FileMode) (safefileio.File, error) {
	file, err := os.OpenFile(name, flag, perm) // #nosec G304 - test paths
	if err != nil {
		return nil, err
	}
	return &faultFile{f: file, readErr: f.readErr, writeErr: f.writeErr}, nil
}

type faultFile struct {
	f        *os.File
	readErr  error
	writeErr error
}

func (ff *faultFile) Read(p []byte) (int, error) {
	if ff.readErr != nil {
		return 0, ff.readErr
	}
	return ff.f.Read(p)
}

func (ff *faultFile) Write(p []byte) (int, error) {
	if ff.writeErr != nil {
		return 0, ff.writeErr
	}
	return ff.f.Write(p)
}

func (ff *faultFile) Close() error                 { return ff.f.Close() }
func (ff *faultFile) Stat() (os.FileInfo, error)   { return ff.f.Stat() }
func (ff *faultFile) Sync() error                  { return ff.f.Sync() }
func (ff *faultFile) Chmod(mode os.FileMode) error { return ff.f.Chmod(mode) }

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
