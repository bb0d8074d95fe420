package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aman1195/helium/api"
)

// HealthCheck is one readiness probe (database ping, redis ping, ...).
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to the HealthCheck interface.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (c CheckFunc) Name() string                    { return c.CheckName }
func (c CheckFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthStatus is the readiness report.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// HealthHandler serves liveness, readiness, and version endpoints.
type HealthHandler struct {
	version api.VersionInfo
	logger  *zap.Logger

	mu     sync.RWMutex
	checks []HealthCheck
}

// NewHealthHandler builds the health endpoints.
func NewHealthHandler(version api.VersionInfo, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		version: version,
		logger:  logger.With(zap.String("component", "health_handler")),
	}
}

// RegisterCheck adds a readiness probe.
func (h *HealthHandler) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// HandleLive serves GET /healthz: the process is up.
func (h *HealthHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// HandleReady serves GET /readyz: runs every registered probe. Any
// failure reports 503 with the per-check breakdown.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := make([]HealthCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := make(map[string]CheckResult, len(checks))
	healthy := true
	for _, check := range checks {
		start := time.Now()
		err := check.Check(ctx)
		result := CheckResult{Status: "pass", Latency: time.Since(start).String()}
		if err != nil {
			healthy = false
			result.Status = "fail"
			result.Message = err.Error()
			h.logger.Warn("readiness check failed",
				zap.String("check", check.Name()),
				zap.Error(err))
		}
		results[check.Name()] = result
	}

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    results,
	}
	code := http.StatusOK
	if !healthy {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, status)
}

// HandleVersion serves GET /version.
func (h *HealthHandler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.version)
}
