// Package logging configures the process-wide structured logger.
//
// Vulcan logs through log/slog; components obtain their loggers with
// slog.Default().With("component", ...). Setup installs a handler with the
// configured level and format as the process default.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"tonewood-hq/vulcan/pkg/config"
)

// Setup builds a logger from the configuration, installs it as the slog
// default, and returns it. writer defaults to os.Stderr.
func Setup(cfg config.LoggingConfig, writer io.Writer) (*slog.Logger, error) {
	if writer == nil {
		writer = os.Stderr
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "", "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %q", cfg.Format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q", level)
	}
}
