package core

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")

	// ErrQuotaExceeded: la licencia ya tiene max_sources activaciones activas
	// en hardware distinto. Lo emite el storage para que el chequeo sea
	// atómico frente a escritores concurrentes.
	ErrQuotaExceeded = errors.New("quota exceeded")
)
