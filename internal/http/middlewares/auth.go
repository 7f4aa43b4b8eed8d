package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/syncgate/internal/http/errors"
	jwtx "github.com/dropDatabas3/syncgate/internal/jwt"
	"github.com/dropDatabas3/syncgate/internal/observability/logger"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// =================================================================================
// AUTHENTICATION MIDDLEWARES
// =================================================================================

// RequireAuth valida Authorization: Bearer <JWT>, resuelve el usuario del
// subject y deja claims + usuario en el contexto. Todo camino de rechazo
// responde 401 y corta el request: header ausente, header malformado, token
// inválido o expirado, subject desconocido.
func RequireAuth(issuer *jwtx.Issuer, users core.UserRepository) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			claims, err := jwtx.ParseAccess(raw, issuer.Keys, issuer.Iss)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}

			// El token verificó pero el principal tiene que existir.
			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				logger.From(r.Context()).Debug("principal not found",
					logger.UserID(userID.String()), logger.Err(err))
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = WithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// =================================================================================
// AUTHORIZATION MIDDLEWARES
// =================================================================================

// RequireAdmin es la segunda compuerta, componible después de RequireAuth.
// Falla cerrado: sin usuario en contexto → 401; rol insuficiente → 403.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("no principal in context"))
				return
			}
			if !user.Role.IsAdmin() {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("admin required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
