package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/hazard-hotspot-service/internal/config"
)

// NewStderrLogger builds a logger from LOG_LEVEL and LOG_FORMAT that writes
// to stderr, for commands whose stdout carries data. The service logger
// comes from storm-data-shared's observability.NewLogger.
func NewStderrLogger(cfg *config.Config) *slog.Logger {
	return newStreamLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

func newStreamLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
