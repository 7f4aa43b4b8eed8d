package middlewares

import (
	"context"

	"github.com/google/uuid"

	jwtx "github.com/dropDatabas3/syncgate/internal/jwt"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxClaimsKey guarda las claims JWT verificadas
	ctxClaimsKey ctxKey = "claims"
	// ctxUserKey guarda el usuario resuelto desde el subject del token
	ctxUserKey ctxKey = "user"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// =================================================================================
// CONTEXT SETTERS (Internos, usados por middlewares)
// =================================================================================

// WithClaims inyecta claims en el contexto
func WithClaims(ctx context.Context, claims *jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// WithUser inyecta el usuario resuelto en el contexto
func WithUser(ctx context.Context, u *core.User) context.Context {
	return context.WithValue(ctx, ctxUserKey, u)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// =================================================================================
// CONTEXT GETTERS (Públicos, usados por handlers/services)
// =================================================================================

// GetClaims obtiene las claims JWT del contexto.
// Retorna nil si no hay claims (token no validado o middleware no aplicado).
func GetClaims(ctx context.Context) *jwtx.Claims {
	if v := ctx.Value(ctxClaimsKey); v != nil {
		if c, ok := v.(*jwtx.Claims); ok {
			return c
		}
	}
	return nil
}

// GetUser obtiene el usuario resuelto del contexto.
// Retorna nil si el middleware de auth no se aplicó.
func GetUser(ctx context.Context) *core.User {
	if v := ctx.Value(ctxUserKey); v != nil {
		if u, ok := v.(*core.User); ok {
			return u
		}
	}
	return nil
}

// GetUserID obtiene el ID del usuario autenticado.
// Retorna uuid.Nil si no hay usuario en el contexto.
func GetUserID(ctx context.Context) uuid.UUID {
	if u := GetUser(ctx); u != nil {
		return u.ID
	}
	return uuid.Nil
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
