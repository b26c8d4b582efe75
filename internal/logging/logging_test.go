package logging

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 8, 29, 14, 5, 9, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		appName string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "consolelogs",
			appName: "console",
			want:    filepath.Join("consolelogs", "console.20260829_140509.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./consolelogs",
			appName: "console",
			want:    filepath.Join(".", "consolelogs", "console.20260829_140509.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "nerftank"),
			appName: "console",
			want:    filepath.Join("/var", "log", "nerftank", "console.20260829_140509.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.appName, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestManager_SetupWritesToFile(t *testing.T) {
	var file bytes.Buffer
	m := NewManager()

	m.Setup(&file, "debug", "")
	m.Logger().Debug("frame dropped", "reason", "channel not open")

	out := file.String()
	assert.True(t, strings.Contains(out, "frame dropped"), "file output missing record: %s", out)
	assert.True(t, strings.Contains(out, "channel not open"), "file output missing attr: %s", out)
}

func TestManager_LoggerBeforeSetup(t *testing.T) {
	m := NewManager()
	assert.NotNil(t, m.Logger())
}

func TestNewZerolog_RespectsLevel(t *testing.T) {
	var file bytes.Buffer
	log := NewZerolog(&file, "warn")

	log.Info().Msg("should not appear")
	log.Warn().Msg("should appear")

	out := file.String()
	assert.False(t, strings.Contains(out, "should not appear"), "info leaked: %s", out)
	assert.True(t, strings.Contains(out, "should appear"), "warn missing: %s", out)
}
