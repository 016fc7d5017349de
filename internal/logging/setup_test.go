//go:build !windows

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{name: "", want: slog.LevelInfo},
		{name: "debug", want: slog.LevelDebug},
		{name: "INFO", want: slog.LevelInfo},
		{name: "warn", want: slog.LevelWarn},
		{name: "error", want: slog.LevelError},
		{name: "loud", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestSetup_ConsoleOnly(t *testing.T) {
	restoreDefaultLogger(t)
	var console bytes.Buffer

	result, err := Setup(Options{Level: "warn", RunID: "run-42", Console: &console})
	require.NoError(t, err)
	defer func() { assert.NoError(t, result.Close()) }()

	slog.Info("hidden")
	slog.Warn("shown", "stream_id", "save-1")

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "run_id=run-42")
	assert.Contains(t, out, "stream_id=save-1")
	assert.Empty(t, result.LogPath)
}

func TestSetup_WithLogFile(t *testing.T) {
	restoreDefaultLogger(t)
	var console bytes.Buffer
	dir := t.TempDir()

	result, err := Setup(Options{Level: "debug", Dir: dir, RunID: "run-7", Console: &console})
	require.NoError(t, err)
	result.Logger.Debug("Read stream started", "stream_id", "launch-1")
	require.NoError(t, result.Close())

	data, err := os.ReadFile(result.LogPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "Read stream started", record["msg"])
	assert.Equal(t, "launch-1", record["stream_id"])
	assert.Equal(t, "run-7", record["run_id"])
	assert.Contains(t, console.String(), "Read stream started")
}

func TestSetup_Errors(t *testing.T) {
	restoreDefaultLogger(t)

	_, err := Setup(Options{Level: "loud", Console: &bytes.Buffer{}})
	assert.Error(t, err)

	_, err = Setup(Options{})
	assert.ErrorIs(t, err, ErrNoConsole)
}
