package jwt_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/syncgate/internal/jwt"
	tokens "github.com/dropDatabas3/syncgate/internal/security/token"
	"github.com/dropDatabas3/syncgate/internal/store/core"
	"github.com/dropDatabas3/syncgate/internal/store/memory"
)

func newTestIssuer(t *testing.T) (*jwtx.Issuer, *memory.Store) {
	t.Helper()
	kp, err := jwtx.Generate(filepath.Join(t.TempDir(), "test.key"))
	require.NoError(t, err)
	st := memory.New()
	return jwtx.NewIssuer("https://syncgate.test", kp, st), st
}

func TestIssueAndParseAccess(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	userID := uuid.New()

	signed, exp, err := issuer.IssueAccess(userID, "ana@example.com", core.RoleAdmin)
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	claims, err := jwtx.ParseAccess(signed, issuer.Keys, issuer.Iss)
	require.NoError(t, err)
	require.Equal(t, userID.String(), claims.Subject)
	require.Equal(t, "ana@example.com", claims.Email)
	require.Equal(t, core.RoleAdmin, claims.Role)

	got, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, userID, got)
}

func TestParseAccessRejectsForeignIssuer(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	signed, _, err := issuer.IssueAccess(uuid.New(), "x@example.com", core.RoleUser)
	require.NoError(t, err)

	_, err = jwtx.ParseAccess(signed, issuer.Keys, "https://other.test")
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestParseAccessRejectsWrongKey(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	signed, _, err := issuer.IssueAccess(uuid.New(), "x@example.com", core.RoleUser)
	require.NoError(t, err)

	other, err := jwtx.Generate(filepath.Join(t.TempDir(), "other.key"))
	require.NoError(t, err)

	_, err = jwtx.ParseAccess(signed, other, issuer.Iss)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestParseAccessRejectsExpired(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	// Hand-build a token already past exp, beyond the leeway window.
	now := time.Now().Add(-10 * time.Minute)
	claims := jwtv5.MapClaims{
		"iss": issuer.Iss,
		"sub": uuid.New().String(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = issuer.Keys.KID
	signed, err := tk.SignedString(issuer.Keys.Private)
	require.NoError(t, err)

	_, err = jwtx.ParseAccess(signed, issuer.Keys, issuer.Iss)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestParseAccessRejectsNonEdDSA(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	// HS256 signed with arbitrary bytes must never pass the method gate.
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"iss": issuer.Iss,
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := tk.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = jwtx.ParseAccess(signed, issuer.Keys, issuer.Iss)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestParseAccessRejectsGarbage(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := jwtx.ParseAccess(raw, issuer.Keys, issuer.Iss)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken, "input %q", raw)
	}
}

func TestClaimsUserIDMalformed(t *testing.T) {
	c := &jwtx.Claims{Subject: "user-42"}
	_, err := c.UserID()
	require.ErrorIs(t, err, jwtx.ErrMalformedClaims)
}

func TestIssueRefreshPersistsHashOnly(t *testing.T) {
	issuer, st := newTestIssuer(t)
	userID := uuid.New()

	raw, exp, err := issuer.IssueRefresh(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	// The plaintext must not be the stored lookup key; only its digest is.
	_, err = st.GetRefreshTokenByHash(context.Background(), raw)
	require.ErrorIs(t, err, core.ErrNotFound)

	rt, err := st.GetRefreshTokenByHash(context.Background(), tokens.SHA256Base64URL(raw))
	require.NoError(t, err)
	require.Equal(t, userID, rt.UserID)
	require.Nil(t, rt.RevokedAt)
}

func TestKeypairLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.key")
	gen, err := jwtx.Generate(path)
	require.NoError(t, err)

	loaded, err := jwtx.Load(path)
	require.NoError(t, err)
	require.Equal(t, gen.KID, loaded.KID)

	// Both must sign identically.
	msg := make([]byte, 32)
	_, _ = rand.Read(msg)
	require.Equal(t,
		ed25519.Sign(gen.Private, msg),
		ed25519.Sign(loaded.Private, msg),
	)
}
