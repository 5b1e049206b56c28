package httpapi

import (
	"net/http"

	"github.com/Allliance/content-rating/internal/cachex"
	"github.com/Allliance/content-rating/internal/dbx"
)

// healthHandlers implements the /api/v1/health/{live,ready} endpoints named
// in SPEC_FULL.md's DOMAIN STACK — ambient operational surface, not part of
// the hard core, but carried the way the teacher carries its own health
// checks in handlers_health.go.
type healthHandlers struct {
	db    *dbx.DB
	cache cachex.Cache
}

// live is a liveness probe: if the process can answer HTTP at all, it's
// live. No dependency checks.
func (h *healthHandlers) live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

// ready additionally checks the database and cache, reporting 503 if either
// is unreachable — a load balancer should stop sending traffic, not restart
// the process.
func (h *healthHandlers) ready(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ready"}

	if err := h.db.Ping(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "not_ready"
		body["database"] = "unreachable"
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "not_ready"
			body["cache"] = "unreachable"
		}
	}
	writeJSON(w, status, body)
}
