// Package observability groups the ambient instrumentation of the service.
//
// Subpackages:
//   - logging: slog setup and request-scoped loggers
//   - metrics: Prometheus collectors for HTTP, ingestion, search and push
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
