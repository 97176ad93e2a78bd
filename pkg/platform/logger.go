package platform

import (
	"log/slog"
	"os"
)

// InitLogger installs a JSON slog handler as the process default and returns
// it. The level comes from LOG_LEVEL (debug, info, warn, error).
func InitLogger() *slog.Logger {
	level := slog.LevelInfo
	switch GetEnv("LOG_LEVEL", "info") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func LogFatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
