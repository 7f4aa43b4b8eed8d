package handlers

import (
	"net/http"

	"github.com/dropDatabas3/syncgate/internal/http/errors"
	"github.com/dropDatabas3/syncgate/internal/http/middlewares"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// currentUser obtiene el usuario resuelto por RequireAuth. Si no está (ruta
// mal cableada), escribe 401 y retorna nil.
func currentUser(w http.ResponseWriter, r *http.Request) *core.User {
	u := middlewares.GetUser(r.Context())
	if u == nil {
		errors.WriteError(w, errors.ErrUnauthorized)
		return nil
	}
	return u
}
