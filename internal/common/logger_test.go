package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: "info", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSetupLoggerTo_JSON(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var out bytes.Buffer
	require.NoError(t, SetupLoggerTo(&out, slog.LevelInfo, "json"))

	LogDebug("hidden", nil)
	LogError(errors.New("upload failed"), "Import preview failed", Fields{"session": "abc", "rows": 3})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "Import preview failed", entry["msg"])
	assert.Equal(t, "upload failed", entry["error"])
	assert.Equal(t, "abc", entry["session"])
	assert.EqualValues(t, 3, entry["rows"])
}

func TestSetupLoggerTo_InvalidFormat(t *testing.T) {
	assert.ErrorIs(t, SetupLoggerTo(&bytes.Buffer{}, slog.LevelInfo, "xml"), ErrInvalidConfig)
}
