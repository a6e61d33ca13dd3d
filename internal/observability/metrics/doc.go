// Package metrics holds every Prometheus collector the service exports and
// small Record* helpers for the call sites. Collectors register with the
// default registry and are served on /metrics.
package metrics
