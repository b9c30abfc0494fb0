package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: WarnLevel, Output: &buf})
	t.Cleanup(func() { Configure(Config{Level: InfoLevel}) })

	Info().Msg("hidden")
	Warn().Str("course", "db101").Msg("visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "db101", entry["course"])
}

func TestConfigure_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rollcall.log")
	var buf bytes.Buffer
	Configure(Config{Level: InfoLevel, Output: &buf, File: &FileConfig{Path: path, MaxSizeMB: 1}})
	t.Cleanup(func() {
		_ = Close()
		Configure(Config{Level: InfoLevel})
	})

	Info().Msg("to both")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to both")
	assert.Contains(t, buf.String(), "to both")
}
