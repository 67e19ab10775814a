package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/lumberjack.v2"
)

// Options controls where and how verbosely the service logs.
type Options struct {
	Level      string
	File       string
	Console    bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New constructs a JSON slog logger tagged with the service name.
// LOG_LEVEL overrides the configured level.
func New(opts Options) *slog.Logger {
	level := opts.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	handler := slog.NewJSONHandler(output(opts), &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(handler).With("service", "fortune-master")
}

func output(opts Options) io.Writer {
	var writers []io.Writer
	if opts.Console {
		writers = append(writers, os.Stdout)
	}
	if strings.TrimSpace(opts.File) != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			LocalTime:  true,
		})
	}
	switch len(writers) {
	case 0:
		return os.Stdout
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
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
