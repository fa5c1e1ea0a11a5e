package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// NewLogger builds the root structured logger from the logging configuration.
// Format "json" is the production default; "text" is human-readable for
// development. Unknown levels fall back to info. Attributes with
// credential-looking keys are redacted on every line.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = NewTextHandler(w, ParseLevel(level))
	} else {
		handler = NewJSONHandler(w, ParseLevel(level))
	}
	return slog.New(handler)
}

// NewJSONHandler creates a new JSON log handler with the specified output and level.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	})
}

// NewTextHandler creates a new text log handler with the specified output and level.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	})
}

// ParseLevel converts a config level string into a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTrace returns a logger carrying trace_id and span_id fields when the
// context holds a recording OpenTelemetry span, and the logger unchanged
// otherwise. Components call this at operation boundaries so log lines can be
// joined to distributed traces.
func WithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	spanCtx := span.SpanContext()
	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

// sensitiveKeys are matched case-insensitively with underscores stripped, so
// api_key, APIKey, and apikey all hit.
var sensitiveKeys = map[string]bool{
	"apikey":     true,
	"secret":     true,
	"password":   true,
	"token":      true,
	"credential": true,
}

func isSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(strings.ReplaceAll(key, "_", ""))]
}

// redactAttr is the ReplaceAttr hook masking credential-bearing attributes.
func redactAttr(groups []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		a.Value = slog.StringValue("[REDACTED]")
	}
	return a
}
