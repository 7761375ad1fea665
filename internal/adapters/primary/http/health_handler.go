package http

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 5 * time.Second

// HealthChecker is anything a probe can ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness, readiness, and detail probes. The feed
// checker is nil when cross-instance invalidation is disabled; a broken feed
// degrades realtime updates but never fails readiness, since the service can
// still serve traffic.
type HealthHandler struct {
	db        HealthChecker
	feed      HealthChecker
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db, feed HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		feed:      feed,
		startTime: time.Now(),
		version:   version,
	}
}

// RegisterRoutes registers the probe endpoints.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// Check is one dependency's probe result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthResponse is the probe response body.
type HealthResponse struct {
	Status     string           `json:"status"`
	Timestamp  string           `json:"timestamp"`
	Version    string           `json:"version,omitempty"`
	Uptime     string           `json:"uptime,omitempty"`
	Checks     map[string]Check `json:"checks,omitempty"`
	Goroutines int              `json:"goroutines,omitempty"`
	AllocBytes uint64           `json:"alloc_bytes,omitempty"`
}

// HandleLiveness reports that the process is up. No dependencies are checked.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness reports whether the service can accept traffic. Only the
// database gates readiness.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	response, _ := h.report(r.Context())

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, response)
}

// HandleHealth reports the full dependency and runtime picture for operators.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response, degraded := h.report(r.Context())
	if degraded && response.Status == "healthy" {
		response.Status = "degraded"
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	response.Goroutines = runtime.NumGoroutine()
	response.AllocBytes = memStats.Alloc

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, response)
}

// report runs every dependency check. The bool reports whether any
// non-gating dependency failed.
func (h *HealthHandler) report(ctx context.Context) (HealthResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	checks := make(map[string]Check)
	overall := "healthy"
	degraded := false

	dbCheck := ping(ctx, h.db)
	checks["database"] = dbCheck
	if dbCheck.Status != "healthy" {
		overall = "unhealthy"
	}

	if h.feed != nil {
		feedCheck := ping(ctx, h.feed)
		checks["change_feed"] = feedCheck
		if feedCheck.Status != "healthy" {
			degraded = true
		}
	}

	return HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
	}, degraded
}

func ping(ctx context.Context, dep HealthChecker) Check {
	if dep == nil {
		return Check{Status: "unhealthy", Message: "not configured"}
	}

	start := time.Now()
	err := dep.Ping(ctx)
	latency := time.Since(start).String()

	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency}
	}
	return Check{Status: "healthy", Latency: latency}
}
