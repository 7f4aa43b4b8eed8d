package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/syncgate/internal/license"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// errorResponse estructura interna para la serialización JSON.
// Controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)

	_ = json.NewEncoder(w).Encode(resp)
}

// FromDomain mapea los sentinels de dominio (store/core y license) al
// catálogo HTTP. Errores desconocidos caen a STORE_ERROR sin filtrar detalle
// interno al cliente.
func FromDomain(err error) *AppError {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, core.ErrNotFound):
		return ErrNotFound.WithCause(err)
	case stderrors.Is(err, core.ErrConflict):
		return ErrConflict.WithCause(err)
	case stderrors.Is(err, core.ErrInvalid):
		return ErrBadRequest.WithCause(err)
	case stderrors.Is(err, core.ErrQuotaExceeded):
		return ErrQuotaExceeded.WithCause(err)
	case stderrors.Is(err, license.ErrExpired):
		return ErrLicenseExpired.WithCause(err)
	case stderrors.Is(err, license.ErrRevoked):
		return ErrLicenseRevoked.WithCause(err)
	case stderrors.Is(err, license.ErrHardwareMismatch):
		return ErrHardwareMismatch.WithCause(err)
	default:
		if appErr, ok := err.(*AppError); ok {
			return appErr
		}
		return ErrStore.WithCause(err)
	}
}

// WriteDomainError combina FromDomain + WriteError.
func WriteDomainError(w http.ResponseWriter, err error) {
	WriteError(w, FromDomain(err))
}
