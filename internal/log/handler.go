package log

import (
	"context"
	"io"
	"log/slog"
	"strconv"
)

// ScorePrecision is the number of decimal places used for float attributes.
// It matches the precision of the report tables.
const ScorePrecision = 3

// PrecisionHandler wraps an slog.Handler and rewrites float64 attribute
// values into fixed-precision strings before passing records on.
//
// Design decision: We use a handler wrapper rather than formatting at each
// call site because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay free of strconv noise
type PrecisionHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler
}

// NewPrecisionHandler creates a new PrecisionHandler wrapping the given
// handler. If handler is nil, the returned PrecisionHandler uses
// slog.Default().Handler().
func NewPrecisionHandler(handler slog.Handler) *PrecisionHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &PrecisionHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *PrecisionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's float attributes and passes it to the
// underlying handler.
func (h *PrecisionHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})

	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
// Float attributes are rewritten before being added.
func (h *PrecisionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &PrecisionHandler{handler: h.handler.WithAttrs(rewritten)}
}

// WithGroup returns a new handler with the given group name.
func (h *PrecisionHandler) WithGroup(name string) slog.Handler {
	return &PrecisionHandler{handler: h.handler.WithGroup(name)}
}

// rewriteAttr rewrites a single attribute, recursively handling groups.
func (h *PrecisionHandler) rewriteAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	case slog.KindFloat64:
		return slog.String(a.Key, strconv.FormatFloat(a.Value.Float64(), 'f', ScorePrecision, 64))
	default:
		return a
	}
}

// NewLogger creates a new slog.Logger with fixed-precision float formatting
// and text output.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(NewPrecisionHandler(slog.NewTextHandler(w, opts)))
}

// NewJSONLogger creates a new slog.Logger with fixed-precision float
// formatting that outputs JSON. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(NewPrecisionHandler(slog.NewJSONHandler(w, opts)))
}
