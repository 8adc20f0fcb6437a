package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/manzanit0/placefinder/pkg/middleware"
)

// InitGlobalSlog sets a JSON logger writing to stdout as the default.
func InitGlobalSlog(service string, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := NewContextJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	logger = logger.With("service", service)
	slog.SetDefault(logger)
}

// InitCLISlog keeps interactive output readable: only warnings and errors are
// logged, as text on stderr.
func InitCLISlog(service string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	slog.SetDefault(slog.New(handler).With("service", service))
}

type ContextJSONHandler struct {
	jsonHandler slog.Handler
}

func NewContextJSONHandler(w io.Writer, opts *slog.HandlerOptions) *ContextJSONHandler {
	return &ContextJSONHandler{slog.NewJSONHandler(w, opts)}
}

func (h *ContextJSONHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.jsonHandler.Enabled(ctx, level)
}

func (h *ContextJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextJSONHandler{jsonHandler: h.jsonHandler.WithAttrs(attrs)}
}

func (h *ContextJSONHandler) WithGroup(name string) slog.Handler {
	return &ContextJSONHandler{jsonHandler: h.jsonHandler.WithGroup(name)}
}

// Handle adds the request scoped ids found in ctx unless the record already
// carries them.
func (h *ContextJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range []middleware.CtxKey{middleware.CtxKeyTraceID, middleware.CtxKeySessionID} {
		v, ok := ctx.Value(key).(string)
		if !ok || hasAttr(r, string(key)) {
			continue
		}

		r.AddAttrs(slog.String(string(key), v))
	}

	return h.jsonHandler.Handle(ctx, r)
}

func hasAttr(r slog.Record, key string) bool {
	var found bool
	r.Attrs(func(a slog.Attr) bool {
		found = a.Key == key
		return !found
	})

	return found
}
