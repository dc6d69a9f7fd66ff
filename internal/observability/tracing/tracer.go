// Package tracing wires OpenTelemetry spans for HTTP requests and queue jobs.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"newsletter-curator/internal/domain/entity"
)

const instrumentationName = "newsletter-curator"

// GetTracer returns a tracer from the currently installed global provider.
// It is looked up on every call because the global delegate is bound only
// once, and tests swap providers.
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// InitProvider installs an SDK tracer provider sampling the given ratio of
// root spans and a W3C trace context propagator. The returned function
// flushes and shuts the provider down.
//
// No exporter is attached by default; pass sdktrace options such as
// sdktrace.WithSyncer to ship spans somewhere.
func InitProvider(sampleRatio float64, opts ...sdktrace.TracerProviderOption) func(context.Context) error {
	base := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
	}
	tp := sdktrace.NewTracerProvider(append(base, opts...)...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown
}

// StartJobSpan starts a span for one queue job execution.
func StartJobSpan(ctx context.Context, job *entity.Job) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "job "+string(job.Kind),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.Int64("job.id", job.ID),
			attribute.String("job.kind", string(job.Kind)),
			attribute.Int64("job.subject_id", job.SubjectID),
			attribute.Int("job.attempt", job.Attempts),
		),
	)
}

// EndWithError records err on span (if any) and ends it.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
