package logger

import (
	"io"
	"log/slog"
	"os"
)

// New JSON-логгер в stdout; в dev/local — уровень debug.
func New(env string) *slog.Logger {
	return NewTo(os.Stdout, env)
}

func NewTo(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	switch env {
	case "dev", "local":
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", "eco-wardrobe")
}
