package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "news-aggregator"

var tracer = otel.Tracer(tracerName)

// GetTracer returns the process-wide tracer.
func GetTracer() trace.Tracer {
	return tracer
}

// Init installs an SDK tracer provider sampling the given ratio of root spans
// and the W3C trace-context propagator. The returned func flushes and stops
// the provider.
//
// No exporter is attached here; spans still carry trace IDs into logs and
// the X-Trace-Id response header.
func Init(sampleRatio float64, opts ...sdktrace.TracerProviderOption) func(context.Context) error {
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
	}, opts...)
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer = tp.Tracer(tracerName)
	return tp.Shutdown
}
