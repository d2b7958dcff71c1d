package usecase

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	usecaseTracer   = otel.Tracer("fantasy-waivers/internal/usecase")
	usecaseNoopSpan = trace.SpanFromContext(context.Background())
)

// startUsecaseSpan only nests under an existing span. Background pollers
// without a parent stay untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// recordSpanError marks the span failed for faults only. Caller mistakes such
// as invalid input or a missing league are expected outcomes.
func recordSpanError(span trace.Span, err error) {
	if err == nil || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) || errors.Is(err, ErrConflict) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
