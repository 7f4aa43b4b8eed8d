package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository es la interfaz completa que implementa cada driver.
// La capa de storage es responsable de las constraints de unicidad:
// email único, un refresh token por hash, una activación activa por
// (license, hardware) y un registro de telemetría por (license, hardware, hora).
type Repository interface {
	UserRepository
	RefreshTokenRepository
	LicenseRepository
	TelemetryRepository

	Ping(ctx context.Context) error
	Close()
}

type UserRepository interface {
	// CreateUser inserta el usuario. ErrConflict si el email ya existe.
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, newPHC string) error
}

type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (uuid.UUID, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// RevokeRefreshToken marca revoked_at. La revocación es terminal.
	RevokeRefreshToken(ctx context.Context, id uuid.UUID) error
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type LicenseRepository interface {
	// CreateLicense inserta la licencia. ErrConflict si la key ya existe.
	CreateLicense(ctx context.Context, l *License) error
	GetLicenseByID(ctx context.Context, id uuid.UUID) (*License, error)
	GetLicenseByKey(ctx context.Context, key string) (*License, error)
	ListLicensesByUser(ctx context.Context, userID uuid.UUID) ([]License, error)

	// BindHardware liga la licencia a un hardware SOLO si sigue sin ligar
	// (UPDATE condicional). Retorna true si esta llamada hizo el binding;
	// false si otro escritor ganó la carrera o ya estaba ligada.
	BindHardware(ctx context.Context, id uuid.UUID, hardwareID string) (bool, error)

	// MarkExpired transiciona active→expired (lazy, al detectar expiry).
	MarkExpired(ctx context.Context, id uuid.UUID) error

	// RevokeLicense marca revoked_at una sola vez; no-op si ya está revocada.
	RevokeLicense(ctx context.Context, id uuid.UUID) error

	// UpsertActivation crea o refresca la activación activa de
	// (license, hardware). Para un hardware nuevo aplica la quota de forma
	// atómica: si maxSources > 0 y ya hay maxSources activaciones activas en
	// otro hardware, retorna ErrQuotaExceeded. Un update de hardware
	// existente siempre pasa. last_seen_at nunca retrocede.
	UpsertActivation(ctx context.Context, a *Activation, maxSources int) (*Activation, error)

	GetActivationByID(ctx context.Context, id uuid.UUID) (*Activation, error)
	CountActiveActivations(ctx context.Context, licenseID uuid.UUID) (int, error)
	DeactivateActivation(ctx context.Context, id uuid.UUID) error

	// ListUserInstances lista las activaciones activas de todas las licencias
	// del usuario (para /telemetry/instances).
	ListUserInstances(ctx context.Context, userID uuid.UUID) ([]Instance, error)
}

type TelemetryRepository interface {
	// UpsertTelemetry inserta o reemplaza el registro de
	// (license_id, hardware_id, bucket). Reportes repetidos dentro de la
	// misma hora pisan contadores, nunca duplican.
	UpsertTelemetry(ctx context.Context, rec *TelemetryRecord) error

	// DashboardStats agrega la telemetría de las licencias del usuario.
	// Las ventanas de 24h usan `since` como corte.
	DashboardStats(ctx context.Context, userID uuid.UUID, since time.Time) (*DashboardStats, error)

	// UsageSeries serie por día de los últimos `days` días, ordenada
	// ascendente por fecha. Lectura pura, sin cursor.
	UsageSeries(ctx context.Context, userID uuid.UUID, days int) ([]UsagePoint, error)
}
