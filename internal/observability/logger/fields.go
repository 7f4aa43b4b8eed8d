package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─────────────── Campos estándar: HTTP ───────────────

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ─────────────── Campos estándar: negocio ───────────────

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// LicenseID crea un campo para el ID de la licencia.
func LicenseID(v string) zap.Field {
	return zap.String("license_id", v)
}

// HardwareID crea un campo para el hardware reportado por una instancia.
func HardwareID(v string) zap.Field {
	return zap.String("hardware_id", v)
}

// Tier crea un campo para el tier de la licencia.
func Tier(v string) zap.Field {
	return zap.String("tier", v)
}

// ─────────────── Campos estándar: sistema ───────────────

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Any crea un campo genérico.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
