package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/store/core"
)

const licenseCols = `
	id, user_id, license_key, tier, status, max_sources, max_tables,
	max_throughput, features, hardware_id, issued_at, expires_at, revoked_at`

func (s *Store) CreateLicense(ctx context.Context, l *core.License) error {
	const q = `
		INSERT INTO license
		    (id, user_id, license_key, tier, status, max_sources, max_tables,
		     max_throughput, features, hardware_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := s.pool.Exec(ctx, q,
		l.ID, l.UserID, l.Key, l.Tier, l.Status, l.MaxSources, l.MaxTables,
		l.MaxThroughput, l.Features, l.HardwareID, l.IssuedAt, l.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetLicenseByID(ctx context.Context, id uuid.UUID) (*core.License, error) {
	return s.scanLicense(s.pool.QueryRow(ctx,
		`SELECT `+licenseCols+` FROM license WHERE id = $1`, id))
}

func (s *Store) GetLicenseByKey(ctx context.Context, key string) (*core.License, error) {
	return s.scanLicense(s.pool.QueryRow(ctx,
		`SELECT `+licenseCols+` FROM license WHERE license_key = $1`, key))
}

func (s *Store) ListLicensesByUser(ctx context.Context, userID uuid.UUID) ([]core.License, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+licenseCols+` FROM license WHERE user_id = $1 ORDER BY issued_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.License
	for rows.Next() {
		l, err := s.scanLicense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *Store) BindHardware(ctx context.Context, id uuid.UUID, hardwareID string) (bool, error) {
	// UPDATE condicional: sólo liga si sigue sin hardware. Dos escritores
	// concurrentes convergen: uno liga, el otro ve rows=0.
	tag, err := s.pool.Exec(ctx, `
		UPDATE license
		   SET hardware_id = $1
		 WHERE id = $2 AND hardware_id IS NULL`, hardwareID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkExpired(ctx context.Context, id uuid.UUID) error {
	// Sólo desde active: no pisa revoked.
	_, err := s.pool.Exec(ctx, `
		UPDATE license
		   SET status = 'expired'
		 WHERE id = $1 AND status = 'active'`, id)
	return err
}

func (s *Store) RevokeLicense(ctx context.Context, id uuid.UUID) error {
	// Idempotente: COALESCE preserva el primer revoked_at.
	tag, err := s.pool.Exec(ctx, `
		UPDATE license
		   SET status = 'revoked', revoked_at = COALESCE(revoked_at, now())
		 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) scanLicense(row rowScanner) (*core.License, error) {
	var l core.License
	err := row.Scan(&l.ID, &l.UserID, &l.Key, &l.Tier, &l.Status, &l.MaxSources,
		&l.MaxTables, &l.MaxThroughput, &l.Features, &l.HardwareID,
		&l.IssuedAt, &l.ExpiresAt, &l.RevokedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &l, nil
}
