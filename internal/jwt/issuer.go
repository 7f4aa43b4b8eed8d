package jwt

import (
	"context"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	tokens "github.com/dropDatabas3/syncgate/internal/security/token"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// Issuer firma access tokens EdDSA y emite refresh tokens opacos.
type Issuer struct {
	Iss        string
	Keys       *Keypair
	AccessTTL  time.Duration // ej: 15m
	RefreshTTL time.Duration // ej: 720h
	Tokens     core.RefreshTokenRepository
}

func NewIssuer(iss string, keys *Keypair, repo core.RefreshTokenRepository) *Issuer {
	return &Issuer{
		Iss:        iss,
		Keys:       keys,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
		Tokens:     repo,
	}
}

// IssueAccess emite un access token firmado. Puro: no toca storage.
func (i *Issuer) IssueAccess(userID uuid.UUID, email string, role core.Role) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss":   i.Iss,
		"sub":   userID.String(),
		"email": email,
		"role":  string(role),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Keys.Private)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefresh genera un token opaco y persiste su hash SHA-256.
// El plaintext sólo viaja al cliente; un fallo de storage aborta la emisión.
func (i *Issuer) IssueRefresh(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	raw, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", time.Time{}, err
	}
	exp := time.Now().UTC().Add(i.RefreshTTL)
	if _, err := i.Tokens.CreateRefreshToken(ctx, userID, tokens.SHA256Base64URL(raw), exp); err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: persist refresh token: %w", err)
	}
	return raw, exp, nil
}
