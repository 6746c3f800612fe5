package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Setup создаёт slog-логгер по уровню и формату (text или json) и делает его логгером по умолчанию.
func Setup(out io.Writer, level, format string) (*slog.Logger, error) {
	var opts slog.HandlerOptions
	switch strings.ToLower(level) {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info", "":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %q", level)
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text", "":
		handler = slog.NewTextHandler(out, &opts)
	case "json":
		handler = slog.NewJSONHandler(out, &opts)
	default:
		return nil, fmt.Errorf("unknown log format: %q", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
