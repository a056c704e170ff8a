package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JerePrograma/laburen-agent/internal/log"
)

// healthHandler serves the liveness and readiness probes.
type healthHandler struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// liveness reports that the process is alive.
func (h *healthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness reports whether dependencies can serve traffic. It pings
// the database rather than trusting pool construction.
func (h *healthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		http.Error(w, "database pool not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.pool.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
