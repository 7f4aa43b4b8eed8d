package pg

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/store/core"
)

func (s *Store) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (uuid.UUID, error) {
	const q = `
		INSERT INTO refresh_token (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)`
	id := uuid.New()
	if _, err := s.pool.Exec(ctx, q, id, userID, tokenHash, expiresAt); err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, core.ErrConflict
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	const q = `
		SELECT id, user_id, token_hash, issued_at, expires_at, revoked_at
		  FROM refresh_token
		 WHERE token_hash = $1`
	var rt core.RefreshToken
	err := s.pool.QueryRow(ctx, q, tokenHash).
		Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.IssuedAt, &rt.ExpiresAt, &rt.RevokedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &rt, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, id uuid.UUID) error {
	// revoked_at sólo se setea una vez; la revocación es terminal.
	_, err := s.pool.Exec(ctx, `
		UPDATE refresh_token
		   SET revoked_at = now()
		 WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE refresh_token
		   SET revoked_at = now()
		 WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	return err
}
