//go:build !windows

package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isseis/go-wisty-fileio/internal/safefileio"
)

func fixedOpener(now time.Time) *LogFileOpener {
	return &LogFileOpener{
		opener:   safefileio.NewOpener(),
		hostname: func() (string, error) { return "host1", nil },
		now:      func() time.Time { return now },
	}
}

func TestGenerateRunID(t *testing.T) {
	id := GenerateRunID()

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, GenerateRunID())
}

func TestLogFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)

	assert.Equal(t, "host1_20240305T070809Z_run.json", LogFileName("host1", now, "run"))
	assert.Equal(t, "unknown_20240305T070809Z_run.json", LogFileName("", now, "run"))
}

func TestLogFileOpener_Open(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs", "nested")
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	w, path, err := fixedOpener(now).Open(dir, "run-1")
	require.NoError(t, err)
	_, err = w.Write([]byte("{}\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, filepath.Join(dir, "host1_20240102T030405Z_run-1.json"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&^logFilePerm)
}

func TestLogFileOpener_RefusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	opener := fixedOpener(now)
	w, _, err := opener.Open(dir, "same")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, _, err = opener.Open(dir, "same")

	assert.ErrorIs(t, err, safefileio.ErrFileExists)
}

func TestLogFileOpener_EmptyDir(t *testing.T) {
	_, _, err := NewLogFileOpener().Open("", "run")

	assert.ErrorIs(t, err, ErrEmptyLogDirectory)
}
