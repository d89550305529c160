package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settingsapi/internal/config"
)

func TestNew_Level(t *testing.T) {
	l := New(config.LogConfig{Level: "debug"})
	assert.Equal(t, log.DebugLevel, l.GetLevel())

	l = New(config.LogConfig{Level: "not-a-level"})
	assert.Equal(t, log.InfoLevel, l.GetLevel())
}

func TestNew_JSONFormat(t *testing.T) {
	l := New(config.LogConfig{Level: "info", Format: "json"})
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.WithField("component", "test").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.NotEmpty(t, entry["ts"])
}

func TestNew_TextFormat(t *testing.T) {
	l := New(config.LogConfig{Level: "info", Format: "text"})
	_, ok := l.Formatter.(*log.TextFormatter)
	assert.True(t, ok)
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	l := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1})

	l.Info("to file")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "to file")
}
