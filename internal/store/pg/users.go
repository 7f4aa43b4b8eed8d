package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/store/core"
)

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	const q = `
		INSERT INTO app_user (id, email, password_hash, role, email_verified)
		VALUES ($1, LOWER($2), $3, $4, $5)
		RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, u.ID, u.Email, u.PasswordHash, u.Role, u.EmailVerified).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	const q = `
		SELECT id, email, password_hash, role, email_verified, created_at, updated_at
		  FROM app_user
		 WHERE id = $1`
	return s.scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	const q = `
		SELECT id, email, password_hash, role, email_verified, created_at, updated_at
		  FROM app_user
		 WHERE email = LOWER($1)`
	return s.scanUser(s.pool.QueryRow(ctx, q, email))
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, newPHC string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE app_user
		   SET password_hash = $1, updated_at = now()
		 WHERE id = $2`, newPHC, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func (s *Store) scanUser(row rowScanner) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &u, nil
}
