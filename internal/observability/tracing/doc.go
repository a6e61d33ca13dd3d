// Package tracing wires OpenTelemetry into the service: a tracer provider set
// up at startup, an HTTP middleware that opens a server span per request, and
// the shared tracer used for the ingestion cycle span.
//
//	shutdown := tracing.Init(1.0)
//	defer shutdown(context.Background())
//
//	ctx, span := tracing.GetTracer().Start(ctx, "ingest.Ingest")
//	defer span.End()
package tracing
