package license

import "errors"

var (
	// ErrExpired: la licencia pasó su expires_at. Sin ventana de gracia:
	// la expiración transiciona el estado de inmediato.
	ErrExpired = errors.New("license expired")

	// ErrRevoked: revoked_at está seteado. Terminal.
	ErrRevoked = errors.New("license revoked")

	// ErrHardwareMismatch: la licencia ya está ligada a otro hardware.
	// El binding es one-way, nunca se re-liga.
	ErrHardwareMismatch = errors.New("hardware mismatch")
)
