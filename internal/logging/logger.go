package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a JSON logger on stdout as the slog default.
func Setup() *slog.Logger {
	logger := slog.New(NewJSONHandler(os.Stdout))
	slog.SetDefault(logger)
	return logger
}

func NewJSONHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}
