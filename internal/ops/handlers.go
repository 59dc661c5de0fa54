// Package ops serves the operational HTTP surface of gamerank: liveness,
// readiness, Prometheus metrics and an engine debug snapshot.
package ops

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/gamerank/internal/engine"
)

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EngineStats exposes the engine's performance snapshot.
type EngineStats interface {
	Metrics() engine.PerfSnapshot
}

// DirtyCounter reports how many items wait for a rescore.
type DirtyCounter interface {
	DirtyCount() int
}

// ReadyTimeout bounds the dependency checks behind /ready.
const ReadyTimeout = 5 * time.Second

// Handlers provides the ops endpoints.
type Handlers struct {
	redisChecker HealthChecker
	engine       EngineStats
	dirty        DirtyCounter
	now          func() time.Time
}

// HandlersConfig configures the ops handlers.
type HandlersConfig struct {
	// RedisChecker is nil when votes are kept in memory.
	RedisChecker HealthChecker
	Engine       EngineStats
	// Dirty is optional.
	Dirty DirtyCounter
}

// NewHandlers creates the ops handlers.
func NewHandlers(config HandlersConfig) *Handlers {
	return &Handlers{
		redisChecker: config.RedisChecker,
		engine:       config.Engine,
		dirty:        config.Dirty,
		now:          time.Now,
	}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness probe).
// Returns 503 when the vote store backend is unreachable.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ReadyTimeout)
	defer cancel()

	checks := map[string]string{"engine": "ok"}
	healthy := true

	if h.redisChecker != nil {
		if err := h.redisChecker.HealthCheck(ctx); err != nil {
			checks["redis"] = "error"
			healthy = false
			slog.WarnContext(ctx, "redis health check failed", "error", err)
		} else {
			checks["redis"] = "ok"
		}
	} else {
		// In-memory vote store.
		checks["redis"] = "not_configured"
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, r, statusCode, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// EngineDebugResponse is the body of /debug/engine.
type EngineDebugResponse struct {
	engine.PerfSnapshot
	CacheHitRate float64 `json:"cache_hit_rate"`
	DirtyItems   *int    `json:"dirty_items,omitempty"`
}

// EngineDebug handles GET /debug/engine with the engine's performance snapshot.
func (h *Handlers) EngineDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	snap := h.engine.Metrics()
	resp := EngineDebugResponse{PerfSnapshot: snap}
	if lookups := snap.CacheHits + snap.CacheMisses; lookups > 0 {
		resp.CacheHitRate = float64(snap.CacheHits) / float64(lookups)
	}
	if h.dirty != nil {
		n := h.dirty.DirtyCount()
		resp.DirtyItems = &n
	}

	writeJSON(w, r, http.StatusOK, resp)
}
