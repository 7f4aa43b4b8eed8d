package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	httpx "github.com/dropDatabas3/syncgate/internal/http"
	"github.com/dropDatabas3/syncgate/internal/http/handlers"
	"github.com/dropDatabas3/syncgate/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/syncgate/internal/jwt"
	"github.com/dropDatabas3/syncgate/internal/license"
	"github.com/dropDatabas3/syncgate/internal/security/password"
	"github.com/dropDatabas3/syncgate/internal/store/core"
	"github.com/dropDatabas3/syncgate/internal/store/memory"
	"github.com/dropDatabas3/syncgate/internal/telemetry"
)

// testEnv wires the full HTTP surface against the in-memory store.
type testEnv struct {
	store    *memory.Store
	issuer   *jwtx.Issuer
	registry *license.Registry
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	keys, err := jwtx.Generate(filepath.Join(t.TempDir(), "test.key"))
	require.NoError(t, err)

	st := memory.New()
	issuer := jwtx.NewIssuer("https://syncgate.test", keys, st)
	reg := license.NewRegistry(st)
	ing := telemetry.NewIngestor(st, reg)
	agg := telemetry.NewAggregator(st, nil)

	router := httpx.NewRouter(httpx.RouterDeps{
		Auth:      &handlers.Auth{Store: st, Issuer: issuer},
		Licenses:  &handlers.Licenses{Registry: reg},
		Admin:     &handlers.Admin{Registry: reg},
		Telemetry: &handlers.Telemetry{Ingestor: ing, Aggregator: agg},
		Health:    &handlers.Health{Store: st},
		AuthMW:    middlewares.RequireAuth(issuer, st),
	})

	return &testEnv{store: st, issuer: issuer, registry: reg, router: router}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func bodyCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var b struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &b)
	return b.Code
}

// createAdmin seeds an admin principal directly in the store and returns a
// bearer token for it.
func (e *testEnv) createAdmin(t *testing.T) (*core.User, string) {
	t.Helper()
	phc, err := password.Hash(password.Default, "s3cret-admin")
	require.NoError(t, err)
	u := &core.User{Email: "admin@example.com", PasswordHash: phc, Role: core.RoleAdmin}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	tok, _, err := e.issuer.IssueAccess(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return u, tok
}

// createUser registers and logs in a regular user, returning it with the
// issued token pair.
func (e *testEnv) createUser(t *testing.T, email string) (*core.User, string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": email, "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": email, "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, rec, &tokens)
	u, err := e.store.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return u, tokens.AccessToken, tokens.RefreshToken
}

// ─────────────── Auth flow ───────────────

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "Dev@Example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Email was normalized on the way in; login with the canonical form.
	rec = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "dev@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	decodeBody(t, rec, &tokens)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.Equal(t, "Bearer", tokens.TokenType)

	rec = env.do(t, http.MethodGet, "/v1/auth/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decodeBody(t, rec, &me)
	require.Equal(t, "dev@example.com", me.Email)
	require.Equal(t, "user", me.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{"email": "dup@example.com", "password": "hunter2hunter2"}

	rec := env.do(t, http.MethodPost, "/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/auth/register", "", body)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "EMAIL_ALREADY_IN_USE", bodyCode(t, rec))
}

func TestLoginBadCredentialsAreUniform(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "real@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Unknown email and wrong password are indistinguishable.
	wrongPass := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "real@example.com", "password": "nope-nope",
	})
	unknownEmail := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.Equal(t, bodyCode(t, wrongPass), bodyCode(t, unknownEmail))
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "rot@example.com", "password": "hunter2hunter2",
	})
	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "rot@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var first struct {
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, rec, &first)

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": first.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var second struct {
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, rec, &second)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The consumed token is dead.
	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": first.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_INVALID", bodyCode(t, rec))
}

func TestLogoutIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "out@example.com", "password": "hunter2hunter2",
	})
	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "out@example.com", "password": "hunter2hunter2",
	})
	var tokens struct {
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, rec, &tokens)

	for i := 0; i < 2; i++ {
		rec = env.do(t, http.MethodPost, "/v1/auth/logout", "", map[string]string{
			"refresh_token": tokens.RefreshToken,
		})
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

// ─────────────── License lifecycle over HTTP ───────────────

func TestAdminIssueValidateRevoke(t *testing.T) {
	env := newTestEnv(t)
	admin, adminTok := env.createAdmin(t)

	rec := env.do(t, http.MethodPost, "/v1/admin/licenses", adminTok, map[string]any{
		"user_id": admin.ID.String(), "tier": "pro", "ttl_days": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var issued struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	decodeBody(t, rec, &issued)
	require.NotEmpty(t, issued.Key)

	// First validate binds the hardware.
	rec = env.do(t, http.MethodPost, "/v1/license/validate", "", map[string]string{
		"license_key": issued.Key, "hardware_id": "hw-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var validated struct {
		Status     string  `json:"status"`
		HardwareID *string `json:"hardware_id"`
	}
	decodeBody(t, rec, &validated)
	require.Equal(t, "active", validated.Status)
	require.NotNil(t, validated.HardwareID)
	require.Equal(t, "hw-1", *validated.HardwareID)

	// A different hardware is rejected. The binding is one way.
	rec = env.do(t, http.MethodPost, "/v1/license/validate", "", map[string]string{
		"license_key": issued.Key, "hardware_id": "hw-2",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "HARDWARE_MISMATCH", bodyCode(t, rec))

	rec = env.do(t, http.MethodPost, "/v1/admin/licenses/"+issued.ID+"/revoke", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/license/validate", "", map[string]string{
		"license_key": issued.Key, "hardware_id": "hw-1",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "LICENSE_REVOKED", bodyCode(t, rec))
}

func TestValidateUnknownKey(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/license/validate", "", map[string]string{
		"license_key": "SG-QQQQ-QQQQ-QQQQ", "hardware_id": "hw-1",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", bodyCode(t, rec))
}

func TestActivateSecondHardwareRejected(t *testing.T) {
	env := newTestEnv(t)
	_, adminTok := env.createAdmin(t)

	// Community tier allows a single source.
	userID := uuid.New()
	rec := env.do(t, http.MethodPost, "/v1/admin/licenses", adminTok, map[string]any{
		"user_id": userID.String(), "tier": "community",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var issued struct {
		Key string `json:"key"`
	}
	decodeBody(t, rec, &issued)

	rec = env.do(t, http.MethodPost, "/v1/license/activate", "", map[string]string{
		"license_key": issued.Key, "hardware_id": "hw-1", "hostname": "db01",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// hw-2 fails validate first (hardware bound to hw-1), so the quota path
	// never runs. The binding gate is the outer one.
	rec = env.do(t, http.MethodPost, "/v1/license/activate", "", map[string]string{
		"license_key": issued.Key, "hardware_id": "hw-2", "hostname": "db02",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "HARDWARE_MISMATCH", bodyCode(t, rec))
}

func TestAdminRoutesForbiddenForUsers(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "plain@example.com", "password": "hunter2hunter2",
	})
	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "plain@example.com", "password": "hunter2hunter2",
	})
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rec, &tokens)

	rec = env.do(t, http.MethodPost, "/v1/admin/licenses", tokens.AccessToken, map[string]any{
		"user_id": uuid.NewString(), "tier": "pro",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLicenseGetHidesForeignLicenses(t *testing.T) {
	env := newTestEnv(t)
	_, adminTok := env.createAdmin(t)

	// License owned by somebody else.
	other, err := env.registry.Issue(context.Background(), uuid.New(), core.TierPro, 0)
	require.NoError(t, err)

	env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "peek@example.com", "password": "hunter2hunter2",
	})
	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "peek@example.com", "password": "hunter2hunter2",
	})
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rec, &tokens)

	rec = env.do(t, http.MethodGet, "/v1/licenses/"+other.ID.String(), tokens.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "LICENSE_NOT_FOUND", bodyCode(t, rec))

	// Admins see everything.
	rec = env.do(t, http.MethodGet, "/v1/licenses/"+other.ID.String(), adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeactivateRejectsForeignActivation(t *testing.T) {
	env := newTestEnv(t)

	// Victim tenant with a live activation.
	victim, err := env.registry.Issue(context.Background(), uuid.New(), core.TierPro, 0)
	require.NoError(t, err)
	victimAct, err := env.registry.RecordActivation(context.Background(), license.ActivationInput{
		LicenseID: victim.ID, HardwareID: "hw-victim",
	})
	require.NoError(t, err)

	// Attacker owns a license of their own and posts the victim's
	// activation id under it.
	attacker, attackerTok, _ := env.createUser(t, "attacker@example.com")
	mine, err := env.registry.Issue(context.Background(), attacker.ID, core.TierPro, 0)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/v1/licenses/"+mine.ID.String()+"/deactivate", attackerTok,
		map[string]string{"activation_id": victimAct.ID.String()})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", bodyCode(t, rec))

	// The victim's activation is untouched.
	stored, err := env.store.GetActivationByID(context.Background(), victimAct.ID)
	require.NoError(t, err)
	require.Nil(t, stored.DeactivatedAt)

	// Deactivating an activation of the caller's own license still works.
	mineAct, err := env.registry.RecordActivation(context.Background(), license.ActivationInput{
		LicenseID: mine.ID, HardwareID: "hw-mine",
	})
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/v1/licenses/"+mine.ID.String()+"/deactivate", attackerTok,
		map[string]string{"activation_id": mineAct.ID.String()})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLicenseGetReportsActivationUsage(t *testing.T) {
	env := newTestEnv(t)
	u, tok, _ := env.createUser(t, "usage@example.com")

	l, err := env.registry.Issue(context.Background(), u.ID, core.TierPro, 0)
	require.NoError(t, err)
	for _, hw := range []string{"hw-1", "hw-2"} {
		_, err := env.registry.RecordActivation(context.Background(), license.ActivationInput{
			LicenseID: l.ID, HardwareID: hw,
		})
		require.NoError(t, err)
	}

	rec := env.do(t, http.MethodGet, "/v1/licenses/"+l.ID.String(), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		ActiveActivations int  `json:"active_activations"`
		UnlimitedSources  bool `json:"unlimited_sources"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, 2, body.ActiveActivations)
	require.False(t, body.UnlimitedSources)

	// Enterprise has no source cap.
	ent, err := env.registry.Issue(context.Background(), u.ID, core.TierEnterprise, 0)
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/v1/licenses/"+ent.ID.String(), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &body)
	require.True(t, body.UnlimitedSources)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	_, tok, refresh := env.createUser(t, "rotpass@example.com")

	// Wrong current password is rejected.
	rec := env.do(t, http.MethodPost, "/v1/auth/password", tok, map[string]string{
		"current_password": "nope-nope", "new_password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/auth/password", tok, map[string]string{
		"current_password": "hunter2hunter2", "new_password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Every refresh session issued before the change is dead.
	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The old password no longer logs in; the new one does.
	rec = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "rotpass@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "rotpass@example.com", "password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

// ─────────────── Telemetry over HTTP ───────────────

func TestTelemetryReceiveUnknownLicenseStillRecorded(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/telemetry/receive", "", map[string]any{
		"license_id": "lic-123", "hardware_id": "hw-456", "events_processed": 42,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string `json:"status"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, "recorded", body.Status)
}

func TestTelemetryReceiveMissingKeys(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/telemetry/receive", "", map[string]any{
		"events_processed": 42,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// brokenTelemetryStore fails every telemetry upsert, simulating a storage
// outage during ingest.
type brokenTelemetryStore struct {
	*memory.Store
}

func (s *brokenTelemetryStore) UpsertTelemetry(context.Context, *core.TelemetryRecord) error {
	return stderrors.New("write failed")
}

func TestTelemetryReceivePersistenceFailure(t *testing.T) {
	keys, err := jwtx.Generate(filepath.Join(t.TempDir(), "test.key"))
	require.NoError(t, err)

	st := &brokenTelemetryStore{memory.New()}
	issuer := jwtx.NewIssuer("https://syncgate.test", keys, st)
	reg := license.NewRegistry(st)
	router := httpx.NewRouter(httpx.RouterDeps{
		Auth:      &handlers.Auth{Store: st, Issuer: issuer},
		Licenses:  &handlers.Licenses{Registry: reg},
		Admin:     &handlers.Admin{Registry: reg},
		Telemetry: &handlers.Telemetry{
			Ingestor:   telemetry.NewIngestor(st, reg),
			Aggregator: telemetry.NewAggregator(st, nil),
		},
		Health: &handlers.Health{Store: st},
		AuthMW: middlewares.RequireAuth(issuer, st),
	})

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]any{
		"license_id": "lic-123", "hardware_id": "hw-456", "events_processed": 42,
	}))
	req := httptest.NewRequest(http.MethodPost, "/telemetry/receive", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// A persistence failure is the one outcome that turns ingest into an
	// error response.
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "STORE_ERROR", bodyCode(t, rec))
}

func TestTelemetryStatsRequiresBearer(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/telemetry/stats", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTelemetryStatsRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "stats@example.com", "password": "hunter2hunter2",
	})
	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "stats@example.com", "password": "hunter2hunter2",
	})
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rec, &tokens)

	u, err := env.store.GetUserByEmail(context.Background(), "stats@example.com")
	require.NoError(t, err)
	l, err := env.registry.Issue(context.Background(), u.ID, core.TierPro, 0)
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/telemetry/receive", "", map[string]any{
		"license_id": l.ID.String(), "hardware_id": "hw-1", "events_processed": 777,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/telemetry/stats", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		TotalLicenses      int   `json:"total_licenses"`
		ActiveInstances    int   `json:"active_instances"`
		EventsProcessed24h int64 `json:"events_processed_24h"`
	}
	decodeBody(t, rec, &stats)
	require.Equal(t, 1, stats.TotalLicenses)
	require.Equal(t, 1, stats.ActiveInstances)
	require.Equal(t, int64(777), stats.EventsProcessed24h)
}

// ─────────────── Infra ───────────────

func TestHealthAndUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "ROUTE_NOT_FOUND", bodyCode(t, rec))

	rec = env.do(t, http.MethodDelete, "/healthz", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "METHOD_NOT_ALLOWED", bodyCode(t, rec))
}
