package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("turn finished", "session", "abc", "runes", 42)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "turn finished", record["msg"])
	assert.Equal(t, "abc", record["session"])
	assert.EqualValues(t, 42, record["runes"])
}

func TestSetup_DebugWritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	logger, closer, err := Setup(path, true)
	require.NoError(t, err)

	logger.Debug("pump started", "turn", 1)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"pump started"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSetup_WithoutDebugDiscards(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "debug.log")
	logger, closer, err := Setup(path, false)
	require.NoError(t, err)
	defer closer.Close()

	logger.Error("should not be written")
	assert.Same(t, logger, slog.Default())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
