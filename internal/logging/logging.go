// Package logging builds the service's structured logger from configuration.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kgodden/udp-receive-rar/internal/config"
)

// New creates and configures the structured logger based on configuration.
// Outputs other than stdout and stderr are treated as file paths and rotated.
// The returned closer releases the log file; for stdout and stderr it does nothing.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer) {
	w := Output(cfg)

	var closer io.Closer = nopCloser{}
	if lj, ok := w.(*lumberjack.Logger); ok {
		closer = lj
	}
	return slog.New(NewHandler(w, cfg)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewHandler builds a handler writing to w with the configured level and format.
func NewHandler(w io.Writer, cfg config.LoggingConfig) slog.Handler {
	level := ParseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Output resolves the configured output destination.
func Output(cfg config.LoggingConfig) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "stdout", "":
		return os.Stdout
	default:
		return &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
	}
}

// ParseLevel maps a configured level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
