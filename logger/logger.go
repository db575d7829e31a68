package logger

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

// New builds a logger writing to w. Development and debug runs get a
// human-readable text handler at debug level, everything else JSON at info.
func New(w io.Writer, env string, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var handler slog.Handler
	if debug || env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Init installs the process-wide logger and makes it the slog default.
func Init(env string, debug bool) {
	l := New(os.Stdout, env, debug)
	defaultLogger.Store(l)
	slog.SetDefault(l)
}

// Default returns the default logger instance
func Default() *slog.Logger {
	return defaultLogger.Load()
}

func With(args ...any) *slog.Logger {
	return Default().With(args...)
}
