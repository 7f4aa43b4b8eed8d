// Package license implementa el registro de licencias: emisión, validación
// con binding de hardware, activaciones con quota y revocación.
package license

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/observability/logger"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// Registry opera sobre el repositorio de licencias. Stateless: toda la
// correctitud bajo concurrencia descansa en las constraints del storage.
type Registry struct {
	store core.LicenseRepository

	// now inyectable para tests.
	now func() time.Time
}

func NewRegistry(store core.LicenseRepository) *Registry {
	return &Registry{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj (tests).
func (r *Registry) SetClock(now func() time.Time) { r.now = now }

// Issue emite una licencia nueva para el usuario con los defaults del tier.
// ttl en 0 usa el default del tier.
func (r *Registry) Issue(ctx context.Context, userID uuid.UUID, tier core.Tier, ttl time.Duration) (*core.License, error) {
	if !tier.Valid() {
		return nil, core.ErrInvalid
	}
	limits := LimitsFor(tier)
	if ttl <= 0 {
		ttl = limits.DefaultTTL
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	now := r.now()
	l := &core.License{
		ID:            uuid.New(),
		UserID:        userID,
		Key:           key,
		Tier:          tier,
		Status:        core.LicenseActive,
		MaxSources:    limits.MaxSources,
		MaxTables:     limits.MaxTables,
		MaxThroughput: limits.MaxThroughput,
		Features:      limits.Features,
		IssuedAt:      now,
		ExpiresAt:     now.Add(ttl),
	}
	if err := r.store.CreateLicense(ctx, l); err != nil {
		return nil, err
	}
	logger.From(ctx).Info("license issued",
		logger.LicenseID(l.ID.String()),
		logger.UserID(userID.String()),
		logger.Tier(string(tier)),
	)
	return l, nil
}

// Validate busca la licencia por key y chequea estado y hardware.
// Una licencia sin ligar se liga al hardware que valida (one-way): el UPDATE
// condicional del storage hace converger a escritores concurrentes.
func (r *Registry) Validate(ctx context.Context, licenseKey, hardwareID string) (*core.License, error) {
	// Gate de formato: una key malformada no llega a DB y responde igual que
	// una inexistente.
	if err := ValidateKeyFormat(licenseKey); err != nil {
		return nil, core.ErrNotFound
	}
	l, err := r.store.GetLicenseByKey(ctx, NormalizeKey(licenseKey))
	if err != nil {
		return nil, err
	}

	if l.RevokedAt != nil || l.Status == core.LicenseRevoked {
		return nil, ErrRevoked
	}
	if r.now().After(l.ExpiresAt) {
		if l.Status == core.LicenseActive {
			// Transición lazy active→expired; best effort, la validación
			// falla igual.
			if err := r.store.MarkExpired(ctx, l.ID); err != nil {
				logger.From(ctx).Warn("mark expired failed",
					logger.LicenseID(l.ID.String()), logger.Err(err))
			}
		}
		return nil, ErrExpired
	}

	switch {
	case l.HardwareID == nil:
		bound, err := r.store.BindHardware(ctx, l.ID, hardwareID)
		if err != nil {
			return nil, err
		}
		if !bound {
			// Otro escritor ligó primero: releer y comparar.
			l, err = r.store.GetLicenseByID(ctx, l.ID)
			if err != nil {
				return nil, err
			}
			if l.HardwareID == nil || *l.HardwareID != hardwareID {
				return nil, ErrHardwareMismatch
			}
		} else {
			hw := hardwareID
			l.HardwareID = &hw
			logger.From(ctx).Info("license bound",
				logger.LicenseID(l.ID.String()), logger.HardwareID(hardwareID))
		}
	case *l.HardwareID != hardwareID:
		return nil, ErrHardwareMismatch
	}

	return l, nil
}

// ActivationInput metadata reportada por la instancia al activarse.
type ActivationInput struct {
	LicenseID  uuid.UUID
	HardwareID string
	Hostname   string
	Platform   string
	Version    string
}

// RecordActivation upsert idempotente por (license, hardware): refresca
// last_seen_at y metadata si ya existe, o crea una activación nueva sujeta a
// la quota max_sources del tier (core.ErrQuotaExceeded al superarla).
func (r *Registry) RecordActivation(ctx context.Context, in ActivationInput) (*core.Activation, error) {
	l, err := r.store.GetLicenseByID(ctx, in.LicenseID)
	if err != nil {
		return nil, err
	}
	if l.RevokedAt != nil || l.Status == core.LicenseRevoked {
		return nil, ErrRevoked
	}

	a := &core.Activation{
		LicenseID:  in.LicenseID,
		HardwareID: in.HardwareID,
		Hostname:   in.Hostname,
		Platform:   in.Platform,
		Version:    in.Version,
		LastSeenAt: r.now(),
	}
	return r.store.UpsertActivation(ctx, a, l.MaxSources)
}

// Revoke marca la licencia como revocada. Idempotente: revocar dos veces es
// success y el estado queda "revoked". No toca telemetría ya registrada.
func (r *Registry) Revoke(ctx context.Context, licenseID uuid.UUID) error {
	if err := r.store.RevokeLicense(ctx, licenseID); err != nil {
		return err
	}
	logger.From(ctx).Info("license revoked", logger.LicenseID(licenseID.String()))
	return nil
}

// Deactivate cierra una activación de la licencia dada y libera su slot de
// quota. La activación debe pertenecer a esa licencia: un id ajeno responde
// ErrNotFound, igual que uno inexistente.
func (r *Registry) Deactivate(ctx context.Context, licenseID, activationID uuid.UUID) error {
	a, err := r.store.GetActivationByID(ctx, activationID)
	if err != nil {
		return err
	}
	if a.LicenseID != licenseID {
		return core.ErrNotFound
	}
	return r.store.DeactivateActivation(ctx, activationID)
}

// ActiveActivations cuenta las activaciones vivas de la licencia.
func (r *Registry) ActiveActivations(ctx context.Context, licenseID uuid.UUID) (int, error) {
	return r.store.CountActiveActivations(ctx, licenseID)
}

// Get lee una licencia por id.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*core.License, error) {
	return r.store.GetLicenseByID(ctx, id)
}

// ListByUser lista las licencias del usuario.
func (r *Registry) ListByUser(ctx context.Context, userID uuid.UUID) ([]core.License, error) {
	return r.store.ListLicensesByUser(ctx, userID)
}
