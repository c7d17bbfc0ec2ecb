// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/resultlens/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"loud":    zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewTo(types.LogConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("discarding stale load", zap.Int("ticket", 3))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "discarding stale load", entry["msg"])
	assert.Equal(t, float64(3), entry["ticket"])
}

func TestNewTo_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewTo(types.LogConfig{Level: "debug"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("cache hit", zap.String("key", "1/2/3"))
	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "cache hit")
	assert.Contains(t, out, `"key": "1/2/3"`)
}

func TestNewTo_UnknownFormat(t *testing.T) {
	_, err := NewTo(types.LogConfig{Format: "xml"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}
