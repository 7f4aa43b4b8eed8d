package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dropDatabas3/syncgate/internal/http/errors"
	"github.com/dropDatabas3/syncgate/internal/metrics"
	"github.com/dropDatabas3/syncgate/internal/telemetry"
)

// Telemetry recibe reportes del engine y sirve los agregados del dashboard.
type Telemetry struct {
	Ingestor   *telemetry.Ingestor
	Aggregator *telemetry.Aggregator
}

// Receive ingiere un reporte de uso. La validación de licencia es no-fatal:
// el reporte persiste y la respuesta es 200 aunque la licencia no valide.
// POST /telemetry/receive
func (h *Telemetry) Receive(w http.ResponseWriter, r *http.Request) {
	var rep telemetry.Report
	if !decodeJSON(w, r, &rep) {
		return
	}

	start := time.Now()
	res, err := h.Ingestor.Ingest(r.Context(), rep)
	metrics.TelemetryIngestLatency.Observe(float64(time.Since(start).Milliseconds()))

	validation := "ok"
	if res.ValidationErr != nil {
		validation = "failed"
	}
	metrics.TelemetryIngests.WithLabelValues(strconv.FormatBool(res.Persisted), validation).Inc()

	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// Stats agregados del dashboard para el usuario autenticado.
// GET /telemetry/stats
func (h *Telemetry) Stats(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}
	stats, err := h.Aggregator.DashboardStats(r.Context(), u.ID)
	if err != nil {
		writeAggError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Usage serie histórica por día. days inválido o ausente cae a 7.
// GET /telemetry/usage?days=N
func (h *Telemetry) Usage(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	points, err := h.Aggregator.UsageHistory(r.Context(), u.ID, days)
	if err != nil {
		writeAggError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usage": points})
}

// Instances lista las instancias activas del usuario con estado online/stale.
// GET /telemetry/instances
func (h *Telemetry) Instances(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}
	instances, err := h.Aggregator.ActiveInstances(r.Context(), u.ID)
	if err != nil {
		writeAggError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": instances})
}

func writeAggError(w http.ResponseWriter, err error) {
	if err == telemetry.ErrNoPrincipal {
		errors.WriteError(w, errors.ErrUnauthorized)
		return
	}
	errors.WriteDomainError(w, err)
}
