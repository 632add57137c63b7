package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/couchcryptid/hazard-hotspot-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStreamLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newStreamLogger(&buf, "info", "json")

	logger.Info("detection finished", "hotspots", 3)
	logger.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "detection finished", line["msg"])
	assert.InDelta(t, 3, line["hotspots"], 0)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewStreamLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newStreamLogger(&buf, "DEBUG", "text")

	logger.Debug("geocoding", "place_name", "Chennai")

	assert.Contains(t, buf.String(), "msg=geocoding")
	assert.Contains(t, buf.String(), "place_name=Chennai")
}

func TestNewStreamLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		visible string
		hidden  string
	}{
		{"warn", "WARN", "INFO"},
		{"error", "ERROR", "WARN"},
		{"bogus", "INFO", "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newStreamLogger(&buf, tt.level, "text")

			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			assert.Contains(t, buf.String(), "level="+tt.visible)
			assert.NotContains(t, buf.String(), "level="+tt.hidden)
		})
	}
}

func TestNewStderrLogger_UsesConfig(t *testing.T) {
	logger := NewStderrLogger(&config.Config{LogLevel: "warn", LogFormat: "text"})
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}
