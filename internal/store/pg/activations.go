package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/store/core"
)

const activationCols = `
	id, license_id, hardware_id, hostname, platform, version,
	activated_at, last_seen_at, deactivated_at`

// UpsertActivation serializa por licencia (FOR UPDATE sobre la fila de
// license) para que el chequeo de quota y el insert sean atómicos frente a
// escritores concurrentes. El índice único parcial
// (license_id, hardware_id) WHERE deactivated_at IS NULL garantiza una sola
// activación activa por par aunque alguien escriba por fuera de este método.
func (s *Store) UpsertActivation(ctx context.Context, a *core.Activation, maxSources int) (*core.Activation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	if err := tx.QueryRow(ctx,
		`SELECT id FROM license WHERE id = $1 FOR UPDATE`,
		a.LicenseID).Scan(&locked); err != nil {
		return nil, mapNoRows(err)
	}

	// ¿Ya hay activación activa para este hardware? → refresh, sin quota.
	var cur core.Activation
	err = tx.QueryRow(ctx, `
		SELECT `+activationCols+`
		  FROM license_activation
		 WHERE license_id = $1 AND hardware_id = $2 AND deactivated_at IS NULL`,
		a.LicenseID, a.HardwareID).
		Scan(&cur.ID, &cur.LicenseID, &cur.HardwareID, &cur.Hostname, &cur.Platform,
			&cur.Version, &cur.ActivatedAt, &cur.LastSeenAt, &cur.DeactivatedAt)
	switch {
	case err == nil:
		// last_seen_at monotónico: GREATEST evita retrocesos.
		err = tx.QueryRow(ctx, `
			UPDATE license_activation
			   SET hostname = $2, platform = $3, version = $4,
			       last_seen_at = GREATEST(last_seen_at, $5)
			 WHERE id = $1
			RETURNING `+activationCols,
			cur.ID, a.Hostname, a.Platform, a.Version, a.LastSeenAt).
			Scan(&cur.ID, &cur.LicenseID, &cur.HardwareID, &cur.Hostname, &cur.Platform,
				&cur.Version, &cur.ActivatedAt, &cur.LastSeenAt, &cur.DeactivatedAt)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &cur, nil

	case mapNoRows(err) == core.ErrNotFound:
		// Hardware nuevo: aplicar quota. 0 = sin tope (sentinel).
		if maxSources > 0 {
			var active int
			if err := tx.QueryRow(ctx, `
				SELECT COUNT(*) FROM license_activation
				 WHERE license_id = $1 AND deactivated_at IS NULL`,
				a.LicenseID).Scan(&active); err != nil {
				return nil, err
			}
			if active >= maxSources {
				return nil, core.ErrQuotaExceeded
			}
		}

		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO license_activation
			    (id, license_id, hardware_id, hostname, platform, version,
			     activated_at, last_seen_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING `+activationCols,
			a.ID, a.LicenseID, a.HardwareID, a.Hostname, a.Platform, a.Version, a.LastSeenAt).
			Scan(&cur.ID, &cur.LicenseID, &cur.HardwareID, &cur.Hostname, &cur.Platform,
				&cur.Version, &cur.ActivatedAt, &cur.LastSeenAt, &cur.DeactivatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, core.ErrConflict
			}
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &cur, nil

	default:
		return nil, err
	}
}

func (s *Store) GetActivationByID(ctx context.Context, id uuid.UUID) (*core.Activation, error) {
	var a core.Activation
	err := s.pool.QueryRow(ctx,
		`SELECT `+activationCols+` FROM license_activation WHERE id = $1`, id).
		Scan(&a.ID, &a.LicenseID, &a.HardwareID, &a.Hostname, &a.Platform,
			&a.Version, &a.ActivatedAt, &a.LastSeenAt, &a.DeactivatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &a, nil
}

func (s *Store) CountActiveActivations(ctx context.Context, licenseID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM license_activation
		 WHERE license_id = $1 AND deactivated_at IS NULL`, licenseID).Scan(&n)
	return n, err
}

func (s *Store) DeactivateActivation(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE license_activation
		   SET deactivated_at = now()
		 WHERE id = $1 AND deactivated_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Puede no existir o ya estar desactivada; distinguimos para el caller.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM license_activation WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return core.ErrNotFound
		}
	}
	return nil
}

func (s *Store) ListUserInstances(ctx context.Context, userID uuid.UUID) ([]core.Instance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.license_id, l.license_key, a.hardware_id, a.hostname,
		       a.platform, a.version, a.last_seen_at
		  FROM license_activation a
		  JOIN license l ON l.id = a.license_id
		 WHERE l.user_id = $1 AND a.deactivated_at IS NULL
		 ORDER BY a.last_seen_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Instance
	for rows.Next() {
		var in core.Instance
		if err := rows.Scan(&in.ActivationID, &in.LicenseID, &in.LicenseKey,
			&in.HardwareID, &in.Hostname, &in.Platform, &in.Version, &in.LastSeenAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
