package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/observability/metrics"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Healthy(ctx context.Context) error
}

// ConnectionCounter reports the number of live push connections.
type ConnectionCounter interface {
	Count() int
}

// HealthHandler checks the database (required) and the search index
// (optional, reported as degraded when down). Only a database failure
// makes the service unhealthy.
type HealthHandler struct {
	DB          *sql.DB
	Search      Pinger
	Connections ConnectionCounter
	Version     string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{"database": h.checkDatabase(ctx)}
	if h.Search != nil {
		checks["search"] = h.checkSearch(ctx)
	}
	if h.Connections != nil {
		checks["realtime"] = CheckStatus{
			Status:  statusHealthy,
			Details: map[string]any{"connections": h.Connections.Count()},
		}
	}

	status, code := statusHealthy, http.StatusOK
	for name, c := range checks {
		switch {
		case c.Status == statusUnhealthy && name == "database":
			status, code = statusUnhealthy, http.StatusServiceUnavailable
		case c.Status != statusHealthy && status == statusHealthy:
			status = statusDegraded
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: statusUnhealthy, Message: "not configured"}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		slog.Warn("health: database ping failed", slog.Any("error", err))
		return CheckStatus{Status: statusUnhealthy, Message: "ping failed"}
	}

	stats := h.DB.Stats()
	metrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
	if stats.MaxOpenConnections > 0 {
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["utilization_percent"] = utilization
		if utilization >= 80 {
			return CheckStatus{Status: statusDegraded, Message: "connection pool utilization above 80%", Details: details}
		}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

func (h *HealthHandler) checkSearch(ctx context.Context) CheckStatus {
	if err := h.Search.Healthy(ctx); err != nil {
		return CheckStatus{Status: statusDegraded, Message: "search index unavailable"}
	}
	return CheckStatus{Status: statusHealthy}
}

// ReadyHandler answers 200 once the database accepts queries.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil || h.DB.PingContext(ctx) != nil {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// LiveHandler always answers 200 while the process is serving.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
