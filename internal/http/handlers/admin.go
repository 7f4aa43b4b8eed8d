package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/http/errors"
	"github.com/dropDatabas3/syncgate/internal/license"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// Admin expone la emisión y revocación de licencias. Las rutas van detrás de
// RequireAuth + RequireAdmin.
type Admin struct {
	Registry *license.Registry
}

type issueRequest struct {
	UserID  string `json:"user_id"`
	Tier    string `json:"tier"`
	TTLDays int    `json:"ttl_days"` // 0 usa el default del tier
}

// Issue emite una licencia nueva con los defaults del tier.
// POST /v1/admin/licenses
func (h *Admin) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		errors.WriteError(w, errors.ErrMissingFields.WithDetail("user_id must be a UUID"))
		return
	}
	tier := core.Tier(strings.ToLower(strings.TrimSpace(req.Tier)))
	if !tier.Valid() {
		errors.WriteError(w, errors.ErrBadRequest.WithDetail("unknown tier"))
		return
	}

	l, err := h.Registry.Issue(r.Context(), userID, tier, time.Duration(req.TTLDays)*24*time.Hour)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLicenseResponse(l))
}

// Revoke revoca una licencia. Idempotente: revocar dos veces responde 200.
// POST /v1/admin/licenses/{id}/revoke
func (h *Admin) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, errors.ErrInvalidParameter.WithDetail("id must be a UUID"))
		return
	}

	if err := h.Registry.Revoke(r.Context(), id); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
