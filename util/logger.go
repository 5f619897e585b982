package util

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aibrahim185/Algeo02-23012/constants"
)

var (
	logger     *slog.Logger
	loggerOnce sync.Once
)

// GetLogger returns the process wide structured logger, level taken from LOG_LEVEL.
func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLevel(constants.GetLogLevel()),
		}))
	})
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
