// Package observability wires structured logging, tracing, and metrics
// for the assistant: slog handlers with trace correlation, OpenTelemetry
// tracing with console export, and Prometheus-backed metrics.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceContextHandler is a slog.Handler that stamps the active span's
// trace and span IDs onto each record, so log lines can be joined with
// traces.
type TraceContextHandler struct {
	handler slog.Handler
}

// NewTraceContextHandler wraps an existing handler with trace stamping.
func NewTraceContextHandler(handler slog.Handler) *TraceContextHandler {
	return &TraceContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *TraceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle stamps trace identifiers when the context carries a valid span.
func (h *TraceContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.handler.Handle(ctx, record)
}

// WithAttrs returns a new handler with additional attributes.
func (h *TraceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new handler with the given group.
func (h *TraceContextHandler) WithGroup(name string) slog.Handler {
	return &TraceContextHandler{handler: h.handler.WithGroup(name)}
}

// StructuredHandler emits one JSON object per record: timestamp, level,
// message, source location, then record and handler attributes flattened
// into the top level. Records below the configured level are dropped.
type StructuredHandler struct {
	level  slog.Level
	out    io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewStructuredHandler creates a JSON handler writing to stdout.
func NewStructuredHandler(level slog.Level) *StructuredHandler {
	return &StructuredHandler{level: level, out: os.Stdout}
}

// NewStructuredHandlerTo creates a JSON handler writing to w.
func NewStructuredHandlerTo(level slog.Level, w io.Writer) *StructuredHandler {
	return &StructuredHandler{level: level, out: w}
}

// Enabled reports whether the record level meets the handler's minimum.
func (h *StructuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle encodes the record as one JSON line.
func (h *StructuredHandler) Handle(ctx context.Context, record slog.Record) error {
	entry := map[string]interface{}{
		"timestamp": record.Time.Format(time.RFC3339),
		"level":     record.Level.String(),
		"message":   record.Message,
	}

	if record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		entry["source"] = map[string]interface{}{
			"function": frame.Function,
			"file":     frame.File,
			"line":     frame.Line,
		}
	}

	record.Attrs(func(attr slog.Attr) bool {
		entry[attr.Key] = attr.Value.Any()
		return true
	})
	for _, attr := range h.attrs {
		entry[attr.Key] = attr.Value.Any()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}
	_, err = fmt.Fprintln(h.out, string(data))
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *StructuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &StructuredHandler{
		level:  h.level,
		out:    h.out,
		attrs:  merged,
		groups: h.groups,
	}
}

// WithGroup returns a new handler with the given group.
func (h *StructuredHandler) WithGroup(name string) slog.Handler {
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)

	return &StructuredHandler{
		level:  h.level,
		out:    h.out,
		attrs:  h.attrs,
		groups: groups,
	}
}

// ConfigureLogging installs the default logger: JSON or text at the given
// level, optionally wrapped with trace correlation.
func ConfigureLogging(level slog.Level, structured bool, includeTraceContext bool) {
	var handler slog.Handler
	if structured {
		handler = NewStructuredHandler(level)
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	if includeTraceContext {
		handler = NewTraceContextHandler(handler)
	}
	slog.SetDefault(slog.New(handler))
}

// GetLoggerWithTrace returns a logger that includes trace context.
func GetLoggerWithTrace() *slog.Logger {
	return slog.New(NewTraceContextHandler(slog.Default().Handler()))
}
