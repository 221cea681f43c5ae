package logging

import (
	"context"
	"log/slog"
)

type contextKey string

// attrsKey stores attributes attached with WithAttrs.
const attrsKey contextKey = "log_attrs"

// ContextExtractor returns attributes derived from a context, such as the
// request ID and trace ID of the request being served.
type ContextExtractor func(ctx context.Context) []slog.Attr

// WithAttrs returns a context whose log records carry attrs in addition to
// any attached by a parent context.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	existing := attrsFromContext(ctx)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, attrsKey, merged)
}

func attrsFromContext(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attrsKey).([]slog.Attr)
	return attrs
}

// ContextHandler adds context attributes to every record logged with a
// context.
type ContextHandler struct {
	next    slog.Handler
	extract ContextExtractor
}

// NewContextHandler wraps next. extract may be nil, in which case only
// attributes attached with WithAttrs are added.
func NewContextHandler(next slog.Handler, extract ContextExtractor) *ContextHandler {
	return &ContextHandler{next: next, extract: extract}
}

// Enabled implements slog.Handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if attrs := attrsFromContext(ctx); len(attrs) > 0 {
			r = r.Clone()
			r.AddAttrs(attrs...)
		}
		if h.extract != nil {
			if attrs := h.extract(ctx); len(attrs) > 0 {
				r = r.Clone()
				r.AddAttrs(attrs...)
			}
		}
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs), extract: h.extract}
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name), extract: h.extract}
}
