package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Reporter sends errors and messages to the operator-facing side channel.
// It is fire-and-forget: nothing it does can fail back into the pipeline.
type Reporter struct {
	log *slog.Logger
}

func NewReporter(log *slog.Logger) *Reporter {
	return &Reporter{log: log}
}

func (r *Reporter) CaptureException(ctx context.Context, err error, fields map[string]any) {
	defer recoverQuietly()

	attrs := toAttrs(fields)
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err, trace.WithAttributes(attrs...))
	}
	r.log.Error("captured exception", append(toSlogArgs(fields), "err", err)...)
}

func (r *Reporter) CaptureMessage(ctx context.Context, msg string, fields map[string]any) {
	defer recoverQuietly()

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(msg, trace.WithAttributes(toAttrs(fields)...))
	}
	r.log.Warn("captured message", append(toSlogArgs(fields), "msg", msg)...)
}

func toAttrs(fields map[string]any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, attribute.String(k, toString(v)))
	}
	return attrs
}

func toSlogArgs(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return slog.AnyValue(v).String()
}

func recoverQuietly() {
	_ = recover()
}
