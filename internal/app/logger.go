// v0
// internal/app/logger.go
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// newLogger builds the service logger. Every entry is written both to stdout,
// where container runtimes collect it, and to the service log file, which
// survives restarts on a mounted volume. Both sinks log at Info and above.
func newLogger(file io.Writer) *slog.Logger {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(&teeHandler{handlers: []slog.Handler{console, fileHandler}})
}

// teeHandler forwards each record to several slog handlers. A record is
// handled when at least one sink accepts its level, and each sink gets its
// own clone so attributes added downstream do not leak across sinks. The
// first sink error is returned after all sinks have been tried.
type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, 0, len(t.handlers))
	for _, h := range t.handlers {
		next = append(next, h.WithAttrs(attrs))
	}
	return &teeHandler{handlers: next}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, 0, len(t.handlers))
	for _, h := range t.handlers {
		next = append(next, h.WithGroup(name))
	}
	return &teeHandler{handlers: next}
}
