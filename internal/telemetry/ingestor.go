// Package telemetry recibe reportes de uso de instancias corriendo y agrega
// la telemetría persistida para el dashboard.
package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/license"
	"github.com/dropDatabas3/syncgate/internal/observability/logger"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// Report snapshot de uso que manda una instancia en cada intervalo.
type Report struct {
	LicenseID       string    `json:"license_id"`
	HardwareID      string    `json:"hardware_id"`
	Timestamp       time.Time `json:"timestamp"`
	EventsProcessed int64     `json:"events_processed"`
	BytesProcessed  int64     `json:"bytes_processed"`
	TablesTracked   int       `json:"tables_tracked"`
	SourcesActive   int       `json:"sources_active"`
	AvgLatencyMs    float64   `json:"avg_latency_ms"`
	ErrorCount      int64     `json:"error_count"`
	UptimeHours     float64   `json:"uptime_hours"`
	Version         string    `json:"version"`
	SourceType      string    `json:"source_type"`
	Hostname        string    `json:"hostname"`
	Platform        string    `json:"platform"`
}

// IngestResult separa los dos desenlaces de un ingest: el de validación de
// licencia (nunca bloquea la persistencia) y el de persistencia (el único que
// decide la respuesta al caller).
type IngestResult struct {
	ValidationErr error
	Persisted     bool
}

// Ingestor persiste reportes con bucket horario. La validación de licencia es
// deliberadamente no-fatal: la telemetría se retiene aunque la licencia esté
// expirada, revocada o no exista (evidencia de uso/billing).
type Ingestor struct {
	store    core.Repository
	registry *license.Registry

	now func() time.Time
}

func NewIngestor(store core.Repository, registry *license.Registry) *Ingestor {
	return &Ingestor{
		store:    store,
		registry: registry,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj (tests).
func (i *Ingestor) SetClock(now func() time.Time) { i.now = now }

// Ingest valida campos mínimos, chequea la licencia (no-fatal) y upsertea el
// registro bajo (license_id, hardware_id, hora). Solo el fallo de persistencia
// se reporta como error.
func (i *Ingestor) Ingest(ctx context.Context, rep Report) (IngestResult, error) {
	var res IngestResult

	if strings.TrimSpace(rep.LicenseID) == "" || strings.TrimSpace(rep.HardwareID) == "" {
		return res, core.ErrInvalid
	}

	ts := rep.Timestamp
	if ts.IsZero() {
		ts = i.now()
	}

	res.ValidationErr = i.validate(ctx, rep)
	if res.ValidationErr != nil {
		logger.From(ctx).Warn("telemetry license check failed",
			logger.LicenseID(rep.LicenseID),
			logger.HardwareID(rep.HardwareID),
			logger.Err(res.ValidationErr),
		)
	}

	rec := &core.TelemetryRecord{
		LicenseID:       rep.LicenseID,
		HardwareID:      rep.HardwareID,
		Bucket:          ts.UTC().Truncate(time.Hour),
		EventsProcessed: rep.EventsProcessed,
		BytesProcessed:  rep.BytesProcessed,
		TablesTracked:   rep.TablesTracked,
		SourcesActive:   rep.SourcesActive,
		AvgLatencyMs:    rep.AvgLatencyMs,
		ErrorCount:      rep.ErrorCount,
		UptimeHours:     rep.UptimeHours,
		Version:         rep.Version,
		SourceType:      rep.SourceType,
		ReportedAt:      i.now(),
	}
	if err := i.store.UpsertTelemetry(ctx, rec); err != nil {
		return res, err
	}
	res.Persisted = true

	// Refrescar last_seen de la activación; no-fatal, el reporte ya persistió.
	if res.ValidationErr == nil {
		i.touchActivation(ctx, rep)
	}
	return res, nil
}

// validate chequea que la licencia exista y siga vigente. El resultado nunca
// bloquea la persistencia del reporte.
func (i *Ingestor) validate(ctx context.Context, rep Report) error {
	id, err := uuid.Parse(rep.LicenseID)
	if err != nil {
		return core.ErrNotFound
	}
	l, err := i.store.GetLicenseByID(ctx, id)
	if err != nil {
		return err
	}
	if l.RevokedAt != nil || l.Status == core.LicenseRevoked {
		return license.ErrRevoked
	}
	if i.now().After(l.ExpiresAt) {
		return license.ErrExpired
	}
	if l.HardwareID != nil && *l.HardwareID != rep.HardwareID {
		return license.ErrHardwareMismatch
	}
	return nil
}

func (i *Ingestor) touchActivation(ctx context.Context, rep Report) {
	id, err := uuid.Parse(rep.LicenseID)
	if err != nil {
		return
	}
	_, err = i.registry.RecordActivation(ctx, license.ActivationInput{
		LicenseID:  id,
		HardwareID: rep.HardwareID,
		Hostname:   rep.Hostname,
		Platform:   rep.Platform,
		Version:    rep.Version,
	})
	if err != nil && !errors.Is(err, core.ErrQuotaExceeded) {
		logger.From(ctx).Warn("activation touch failed",
			logger.LicenseID(rep.LicenseID),
			logger.HardwareID(rep.HardwareID),
			logger.Err(err),
		)
	}
}
