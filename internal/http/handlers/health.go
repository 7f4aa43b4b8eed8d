package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/syncgate/internal/cache"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// Health expone liveness y readiness.
type Health struct {
	Store core.Repository
	Cache cache.Client // opcional
}

// Healthz liveness: el proceso responde.
// GET /healthz
func (h *Health) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz readiness: storage alcanzable. El cache es opcional y no bloquea
// la readiness, solo se reporta.
// GET /readyz
func (h *Health) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"store": "ok"}
	status := http.StatusOK

	if err := h.Store.Ping(ctx); err != nil {
		checks["store"] = "down"
		status = http.StatusServiceUnavailable
	}
	if h.Cache != nil {
		if err := h.Cache.Ping(ctx); err != nil {
			checks["cache"] = "down"
		} else {
			checks["cache"] = "ok"
		}
	}

	writeJSON(w, status, checks)
}
