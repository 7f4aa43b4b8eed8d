// Package handlers contiene los handlers HTTP del control plane.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dropDatabas3/syncgate/internal/http/errors"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON decodifica el body en dst. Escribe el error 400 y retorna false
// si el body está malformado.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		errors.WriteError(w, errors.ErrInvalidJSON)
		return false
	}
	return true
}

// writeJSON serializa v con el status dado.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
