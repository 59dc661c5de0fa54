package ops

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/gamerank/internal/middleware"
)

// NewMux routes the ops endpoints and wraps them with request id,
// tracing and request logging.
func NewMux(h *Handlers, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ready", h.Ready)
	mux.HandleFunc("/debug/engine", h.EngineDebug)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	var handler http.Handler = mux
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing("gamerank")(handler)
	handler = middleware.RequestID(handler)
	return handler
}
