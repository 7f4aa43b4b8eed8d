package jwt

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// ParseAccess valida firma (EdDSA), issuer y exp/nbf (30s de tolerancia) y
// devuelve las Claims tipadas. Cualquier problema colapsa a ErrInvalidToken:
// el caller no necesita distinguir por qué un token ajeno no sirve.
func ParseAccess(raw string, keys *Keypair, expectedIss string) (*Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		return keys.Public, nil
	}

	tok, err := jwtv5.Parse(raw, keyfunc,
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(expectedIss),
		jwtv5.WithLeeway(30*time.Second),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	c := &Claims{}
	c.Subject, _ = mc["sub"].(string)
	c.Email, _ = mc["email"].(string)
	if r, _ := mc["role"].(string); r != "" {
		c.Role = core.Role(r)
	}
	if expf, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(expf), 0).UTC()
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
