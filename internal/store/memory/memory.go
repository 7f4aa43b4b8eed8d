// Package memory implementa core.Repository en memoria.
// Útil para desarrollo y testing: replica bajo un mutex las mismas
// constraints de unicidad que el driver de Postgres (email único, una
// activación activa por (license, hardware), un registro de telemetría por
// (license, hardware, hora)).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/store/core"
)

type Store struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*core.User
	byEmail     map[string]uuid.UUID
	refresh     map[uuid.UUID]*core.RefreshToken
	byTokenHash map[string]uuid.UUID
	licenses    map[uuid.UUID]*core.License
	byKey       map[string]uuid.UUID
	activations map[uuid.UUID]*core.Activation
	telemetry   map[telemetryKey]*core.TelemetryRecord

	// now es inyectable en tests.
	now func() time.Time
}

type telemetryKey struct {
	licenseID  string
	hardwareID string
	bucket     time.Time
}

func New() *Store {
	return &Store{
		users:       make(map[uuid.UUID]*core.User),
		byEmail:     make(map[string]uuid.UUID),
		refresh:     make(map[uuid.UUID]*core.RefreshToken),
		byTokenHash: make(map[string]uuid.UUID),
		licenses:    make(map[uuid.UUID]*core.License),
		byKey:       make(map[string]uuid.UUID),
		activations: make(map[uuid.UUID]*core.Activation),
		telemetry:   make(map[telemetryKey]*core.TelemetryRecord),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj (tests).
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close()                         {}

// ─────────────── Users ───────────────

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, dup := s.byEmail[email]; dup {
		return core.ErrConflict
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := s.now()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now

	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[email] = u.ID
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, newPHC string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = newPHC
	u.UpdatedAt = s.now()
	return nil
}

// ─────────────── Refresh tokens ───────────────

func (s *Store) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byTokenHash[tokenHash]; dup {
		return uuid.Nil, core.ErrConflict
	}
	rt := &core.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		IssuedAt:  s.now(),
		ExpiresAt: expiresAt,
	}
	s.refresh[rt.ID] = rt
	s.byTokenHash[tokenHash] = rt.ID
	return rt.ID, nil
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTokenHash[tokenHash]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *s.refresh[id]
	return &cp, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.refresh[id]
	if !ok {
		return nil
	}
	if rt.RevokedAt == nil {
		now := s.now()
		rt.RevokedAt = &now
	}
	return nil
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, rt := range s.refresh {
		if rt.UserID == userID && rt.RevokedAt == nil {
			t := now
			rt.RevokedAt = &t
		}
	}
	return nil
}

// ─────────────── Licenses ───────────────

func (s *Store) CreateLicense(ctx context.Context, l *core.License) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byKey[l.Key]; dup {
		return core.ErrConflict
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	s.licenses[l.ID] = &cp
	s.byKey[l.Key] = l.ID
	return nil
}

func (s *Store) GetLicenseByID(ctx context.Context, id uuid.UUID) (*core.License, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.licenses[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *Store) GetLicenseByKey(ctx context.Context, key string) (*core.License, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byKey[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *s.licenses[id]
	return &cp, nil
}

func (s *Store) ListLicensesByUser(ctx context.Context, userID uuid.UUID) ([]core.License, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.License
	for _, l := range s.licenses {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

func (s *Store) BindHardware(ctx context.Context, id uuid.UUID, hardwareID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.licenses[id]
	if !ok {
		return false, core.ErrNotFound
	}
	if l.HardwareID != nil {
		return false, nil
	}
	hw := hardwareID
	l.HardwareID = &hw
	return true, nil
}

func (s *Store) MarkExpired(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.licenses[id]
	if !ok {
		return core.ErrNotFound
	}
	if l.Status == core.LicenseActive {
		l.Status = core.LicenseExpired
	}
	return nil
}

func (s *Store) RevokeLicense(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.licenses[id]
	if !ok {
		return core.ErrNotFound
	}
	if l.RevokedAt == nil {
		now := s.now()
		l.RevokedAt = &now
		l.Status = core.LicenseRevoked
	}
	return nil
}

// ─────────────── Activations ───────────────

func (s *Store) UpsertActivation(ctx context.Context, a *core.Activation, maxSources int) (*core.Activation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.licenses[a.LicenseID]; !ok {
		return nil, core.ErrNotFound
	}

	// Refresh si ya hay activación activa para este hardware.
	for _, cur := range s.activations {
		if cur.LicenseID == a.LicenseID && cur.HardwareID == a.HardwareID && cur.DeactivatedAt == nil {
			cur.Hostname = a.Hostname
			cur.Platform = a.Platform
			cur.Version = a.Version
			if a.LastSeenAt.After(cur.LastSeenAt) {
				cur.LastSeenAt = a.LastSeenAt
			}
			cp := *cur
			return &cp, nil
		}
	}

	// Hardware nuevo: quota (0 = sin tope).
	if maxSources > 0 {
		active := 0
		for _, cur := range s.activations {
			if cur.LicenseID == a.LicenseID && cur.DeactivatedAt == nil {
				active++
			}
		}
		if active >= maxSources {
			return nil, core.ErrQuotaExceeded
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.ActivatedAt = a.LastSeenAt
	cp := *a
	s.activations[a.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) GetActivationByID(ctx context.Context, id uuid.UUID) (*core.Activation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activations[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) CountActiveActivations(ctx context.Context, licenseID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.activations {
		if a.LicenseID == licenseID && a.DeactivatedAt == nil {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeactivateActivation(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activations[id]
	if !ok {
		return core.ErrNotFound
	}
	if a.DeactivatedAt == nil {
		now := s.now()
		a.DeactivatedAt = &now
	}
	return nil
}

func (s *Store) ListUserInstances(ctx context.Context, userID uuid.UUID) ([]core.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Instance
	for _, a := range s.activations {
		if a.DeactivatedAt != nil {
			continue
		}
		l, ok := s.licenses[a.LicenseID]
		if !ok || l.UserID != userID {
			continue
		}
		out = append(out, core.Instance{
			ActivationID: a.ID,
			LicenseID:    a.LicenseID,
			LicenseKey:   l.Key,
			HardwareID:   a.HardwareID,
			Hostname:     a.Hostname,
			Platform:     a.Platform,
			Version:      a.Version,
			LastSeenAt:   a.LastSeenAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeenAt.After(out[j].LastSeenAt) })
	return out, nil
}

// ─────────────── Telemetry ───────────────

func (s *Store) UpsertTelemetry(ctx context.Context, rec *core.TelemetryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	cp.Bucket = rec.Bucket.Truncate(time.Hour).UTC()
	s.telemetry[telemetryKey{cp.LicenseID, cp.HardwareID, cp.Bucket}] = &cp
	return nil
}

func (s *Store) DashboardStats(ctx context.Context, userID uuid.UUID, since time.Time) (*core.DashboardStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &core.DashboardStats{}
	owned := make(map[string]bool)
	for _, l := range s.licenses {
		if l.UserID == userID {
			st.TotalLicenses++
			owned[l.ID.String()] = true
		}
	}
	for _, a := range s.activations {
		if a.DeactivatedAt == nil && owned[a.LicenseID.String()] {
			st.ActiveInstances++
		}
	}

	var latSum float64
	var latN int
	for _, t := range s.telemetry {
		if !owned[t.LicenseID] || t.Bucket.Before(since) {
			continue
		}
		st.EventsProcessed24h += t.EventsProcessed
		st.DataTransferred24h += t.BytesProcessed
		st.TotalErrors += t.ErrorCount
		st.TotalUptimeHours += t.UptimeHours
		if t.AvgLatencyMs > 0 {
			latSum += t.AvgLatencyMs
			latN++
		}
	}
	if latN > 0 {
		st.AvgLatencyMs = latSum / float64(latN)
	}
	return st, nil
}

func (s *Store) UsageSeries(ctx context.Context, userID uuid.UUID, days int) ([]core.UsagePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make(map[string]bool)
	for _, l := range s.licenses {
		if l.UserID == userID {
			owned[l.ID.String()] = true
		}
	}

	cutoff := s.now().Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))
	byDay := make(map[string]*core.UsagePoint)
	for _, t := range s.telemetry {
		if !owned[t.LicenseID] || t.Bucket.Before(cutoff) {
			continue
		}
		day := t.Bucket.Format("2006-01-02")
		p, ok := byDay[day]
		if !ok {
			p = &core.UsagePoint{Date: day}
			byDay[day] = p
		}
		p.EventsProcessed += t.EventsProcessed
		p.BytesProcessed += t.BytesProcessed
		p.ErrorCount += t.ErrorCount
	}

	out := make([]core.UsagePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
