package jwt

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/store/core"
)

var (
	// ErrInvalidToken cubre token malformado, firma inválida, issuer ajeno
	// y expiración. Es la única compuerta antes de cualquier lookup en DB.
	ErrInvalidToken = errors.New("invalid_token")

	// ErrMalformedClaims: el token verificó pero el subject no es un
	// identificador de usuario válido (drift de formato).
	ErrMalformedClaims = errors.New("malformed_claims")
)

// Claims es el payload verificado de un access token.
type Claims struct {
	Subject   string
	Email     string
	Role      core.Role
	ExpiresAt time.Time
}

// UserID parsea el subject como UUID de usuario.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrMalformedClaims
	}
	return id, nil
}
