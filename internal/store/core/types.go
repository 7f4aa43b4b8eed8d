package core

import (
	"time"

	"github.com/google/uuid"
)

// Role es el rol de un usuario dentro del control plane.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reporta si el rol es uno de los conocidos.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// IsAdmin es el predicado usado por el gate de autorización.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Tier de licencia. Controla quotas y features del engine.
type Tier string

const (
	TierCommunity  Tier = "community"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
	TierTrial      Tier = "trial"
)

// Valid reporta si el tier es uno de los conocidos.
func (t Tier) Valid() bool {
	switch t {
	case TierCommunity, TierPro, TierEnterprise, TierTrial:
		return true
	}
	return false
}

// LicenseStatus estado derivado-o-seteado de una licencia.
type LicenseStatus string

const (
	LicenseActive  LicenseStatus = "active"
	LicenseExpired LicenseStatus = "expired"
	LicenseRevoked LicenseStatus = "revoked"
)

// User cuenta de un tenant. Nunca se borra físicamente.
type User struct {
	ID            uuid.UUID
	Email         string
	PasswordHash  string // formato PHC (argon2id)
	Role          Role
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RefreshToken credencial opaca de larga vida. Se guarda sólo el hash.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// License grant de tier + quotas para los engines de un usuario.
// HardwareID nil significa licencia todavía no ligada (pre-activación).
// Quotas en 0 significan "sin tope" (sentinel, nunca tope literal de cero).
type License struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Key           string
	Tier          Tier
	Status        LicenseStatus
	MaxSources    int
	MaxTables     int
	MaxThroughput int64 // bytes/seg
	Features      []string
	HardwareID    *string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	RevokedAt     *time.Time
}

// Activation binding entre una licencia y una instancia (hardware) corriendo.
type Activation struct {
	ID            uuid.UUID
	LicenseID     uuid.UUID
	HardwareID    string
	Hostname      string
	Platform      string
	Version       string
	ActivatedAt   time.Time
	LastSeenAt    time.Time
	DeactivatedAt *time.Time
}

// TelemetryRecord snapshot de uso reportado por una instancia.
// LicenseID es string crudo: la telemetría se retiene aunque la licencia no
// exista o haya expirado (evidencia de uso/billing).
// Bucket es el timestamp truncado a la hora: clave de upsert junto con
// (license_id, hardware_id).
type TelemetryRecord struct {
	LicenseID       string
	HardwareID      string
	Bucket          time.Time
	EventsProcessed int64
	BytesProcessed  int64
	TablesTracked   int
	SourcesActive   int
	AvgLatencyMs    float64
	ErrorCount      int64
	UptimeHours     float64
	Version         string
	SourceType      string
	ReportedAt      time.Time
}

// DashboardStats agregados para el dashboard de un usuario.
type DashboardStats struct {
	TotalLicenses      int     `json:"total_licenses"`
	ActiveInstances    int     `json:"active_instances"`
	EventsProcessed24h int64   `json:"events_processed_24h"`
	DataTransferred24h int64   `json:"data_transferred_24h"`
	AvgLatencyMs       float64 `json:"avg_latency_ms"`
	TotalErrors        int64   `json:"total_errors"`
	TotalUptimeHours   float64 `json:"total_uptime_hours"`
}

// UsagePoint un punto (por día) de la serie histórica de uso.
type UsagePoint struct {
	Date            string `json:"date"` // YYYY-MM-DD (UTC)
	EventsProcessed int64  `json:"events_processed"`
	BytesProcessed  int64  `json:"bytes_processed"`
	ErrorCount      int64  `json:"error_count"`
}

// Instance vista de una activación para el listado de instancias activas.
type Instance struct {
	ActivationID uuid.UUID `json:"activation_id"`
	LicenseID    uuid.UUID `json:"license_id"`
	LicenseKey   string    `json:"license_key"`
	HardwareID   string    `json:"hardware_id"`
	Hostname     string    `json:"hostname"`
	Platform     string    `json:"platform"`
	Version      string    `json:"version"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}
