// Package logger configures the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// Init installs a JSON slog handler as the default logger.
func Init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}
