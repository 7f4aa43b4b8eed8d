package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/http/errors"
	"github.com/dropDatabas3/syncgate/internal/license"
	"github.com/dropDatabas3/syncgate/internal/metrics"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// Licenses expone la superficie de licencias: validación/activación desde el
// engine y lecturas del dashboard.
type Licenses struct {
	Registry *license.Registry
}

// ─────────────── DTOs ───────────────

type validateRequest struct {
	LicenseKey string `json:"license_key"`
	HardwareID string `json:"hardware_id"`
}

type activateRequest struct {
	LicenseKey string `json:"license_key"`
	HardwareID string `json:"hardware_id"`
	Hostname   string `json:"hostname"`
	Platform   string `json:"platform"`
	Version    string `json:"version"`
}

type licenseResponse struct {
	ID            string   `json:"id"`
	Key           string   `json:"key"`
	Tier          string   `json:"tier"`
	Status        string   `json:"status"`
	MaxSources    int      `json:"max_sources"`
	MaxTables     int      `json:"max_tables"`
	MaxThroughput int64    `json:"max_throughput"`
	Features      []string `json:"features"`
	HardwareID    *string  `json:"hardware_id,omitempty"`
	IssuedAt      string   `json:"issued_at"`
	ExpiresAt     string   `json:"expires_at"`
}

type activationResponse struct {
	ActivationID string `json:"activation_id"`
	LicenseID    string `json:"license_id"`
	HardwareID   string `json:"hardware_id"`
	ActivatedAt  string `json:"activated_at"`
	LastSeenAt   string `json:"last_seen_at"`
}

func toLicenseResponse(l *core.License) licenseResponse {
	return licenseResponse{
		ID:            l.ID.String(),
		Key:           l.Key,
		Tier:          string(l.Tier),
		Status:        string(l.Status),
		MaxSources:    l.MaxSources,
		MaxTables:     l.MaxTables,
		MaxThroughput: l.MaxThroughput,
		Features:      l.Features,
		HardwareID:    l.HardwareID,
		IssuedAt:      l.IssuedAt.Format(time.RFC3339),
		ExpiresAt:     l.ExpiresAt.Format(time.RFC3339),
	}
}

// ─────────────── Engine endpoints ───────────────

// Validate chequea una licencia y la liga al hardware si todavía no lo está.
// POST /v1/license/validate
func (h *Licenses) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.LicenseKey) == "" || strings.TrimSpace(req.HardwareID) == "" {
		errors.WriteError(w, errors.ErrMissingFields)
		return
	}

	l, err := h.Registry.Validate(r.Context(), req.LicenseKey, req.HardwareID)
	if err != nil {
		metrics.LicenseValidations.WithLabelValues(validationResult(err)).Inc()
		errors.WriteDomainError(w, err)
		return
	}
	metrics.LicenseValidations.WithLabelValues("valid").Inc()

	writeJSON(w, http.StatusOK, toLicenseResponse(l))
}

// Activate valida la licencia y registra (o refresca) la activación del
// hardware, sujeta a la quota del tier.
// POST /v1/license/activate
func (h *Licenses) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.LicenseKey) == "" || strings.TrimSpace(req.HardwareID) == "" {
		errors.WriteError(w, errors.ErrMissingFields)
		return
	}

	l, err := h.Registry.Validate(r.Context(), req.LicenseKey, req.HardwareID)
	if err != nil {
		metrics.LicenseActivations.WithLabelValues("error").Inc()
		errors.WriteDomainError(w, err)
		return
	}

	a, err := h.Registry.RecordActivation(r.Context(), license.ActivationInput{
		LicenseID:  l.ID,
		HardwareID: req.HardwareID,
		Hostname:   req.Hostname,
		Platform:   req.Platform,
		Version:    req.Version,
	})
	if err != nil {
		if stderrors.Is(err, core.ErrQuotaExceeded) {
			metrics.LicenseActivations.WithLabelValues("quota_exceeded").Inc()
		} else {
			metrics.LicenseActivations.WithLabelValues("error").Inc()
		}
		errors.WriteDomainError(w, err)
		return
	}
	metrics.LicenseActivations.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, activationResponse{
		ActivationID: a.ID.String(),
		LicenseID:    a.LicenseID.String(),
		HardwareID:   a.HardwareID,
		ActivatedAt:  a.ActivatedAt.Format(time.RFC3339),
		LastSeenAt:   a.LastSeenAt.Format(time.RFC3339),
	})
}

// ─────────────── Dashboard endpoints (bearer) ───────────────

// List lista las licencias del usuario autenticado.
// GET /v1/licenses
func (h *Licenses) List(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}
	ls, err := h.Registry.ListByUser(r.Context(), u.ID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	out := make([]licenseResponse, 0, len(ls))
	for i := range ls {
		out = append(out, toLicenseResponse(&ls[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"licenses": out})
}

// Get devuelve una licencia del usuario autenticado.
// GET /v1/licenses/{id}
func (h *Licenses) Get(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, errors.ErrInvalidParameter.WithDetail("id must be a UUID"))
		return
	}
	l, err := h.Registry.Get(r.Context(), id)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	// Las licencias ajenas no se revelan: mismo 404 que una inexistente.
	if l.UserID != u.ID && !u.Role.IsAdmin() {
		errors.WriteError(w, errors.ErrLicenseNotFound)
		return
	}
	n, err := h.Registry.ActiveActivations(r.Context(), id)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		licenseResponse
		ActiveActivations int  `json:"active_activations"`
		UnlimitedSources  bool `json:"unlimited_sources"`
	}{toLicenseResponse(l), n, license.Unlimited(int64(l.MaxSources))})
}

// Deactivate cierra una activación de una licencia propia, liberando quota.
// POST /v1/licenses/{id}/deactivate
func (h *Licenses) Deactivate(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}
	licenseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, errors.ErrInvalidParameter.WithDetail("id must be a UUID"))
		return
	}

	var req struct {
		ActivationID string `json:"activation_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	activationID, err := uuid.Parse(req.ActivationID)
	if err != nil {
		errors.WriteError(w, errors.ErrMissingFields.WithDetail("activation_id must be a UUID"))
		return
	}

	l, err := h.Registry.Get(r.Context(), licenseID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	if l.UserID != u.ID && !u.Role.IsAdmin() {
		errors.WriteError(w, errors.ErrLicenseNotFound)
		return
	}

	// El registry verifica que la activación pertenezca a esta licencia: un
	// activation_id ajeno responde 404, nunca toca la activación de otro tenant.
	if err := h.Registry.Deactivate(r.Context(), licenseID, activationID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validationResult(err error) string {
	switch {
	case stderrors.Is(err, core.ErrNotFound):
		return "not_found"
	case stderrors.Is(err, license.ErrExpired):
		return "expired"
	case stderrors.Is(err, license.ErrRevoked):
		return "revoked"
	case stderrors.Is(err, license.ErrHardwareMismatch):
		return "hardware_mismatch"
	default:
		return "error"
	}
}
