package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ystepanoff/rclink/config"
)

// NewLogger builds the JSON logger for the daemon. Output goes to w, or to a
// rotating file when cfg.File is set. Every record carries a session id so
// restarts can be told apart in shared log files.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if cfg.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
	}
	if w == nil {
		w = os.Stderr
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(cfg.Level)})
	return slog.New(h).With("session", uuid.NewString())
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
