package license_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/syncgate/internal/license"
	"github.com/dropDatabas3/syncgate/internal/store/core"
	"github.com/dropDatabas3/syncgate/internal/store/memory"
)

func newRegistry(t *testing.T) (*license.Registry, *memory.Store) {
	t.Helper()
	st := memory.New()
	return license.NewRegistry(st), st
}

func issueLicense(t *testing.T, r *license.Registry, tier core.Tier) *core.License {
	t.Helper()
	l, err := r.Issue(context.Background(), uuid.New(), tier, 0)
	require.NoError(t, err)
	return l
}

func TestIssueAppliesTierDefaults(t *testing.T) {
	r, _ := newRegistry(t)

	l := issueLicense(t, r, core.TierPro)
	require.Equal(t, core.LicenseActive, l.Status)
	require.Equal(t, 5, l.MaxSources)
	require.Equal(t, 100, l.MaxTables)
	require.Contains(t, l.Features, "transforms")
	require.Nil(t, l.HardwareID)
	require.NoError(t, license.ValidateKeyFormat(l.Key), "key %q", l.Key)

	trial := issueLicense(t, r, core.TierTrial)
	ttl := trial.ExpiresAt.Sub(trial.IssuedAt)
	require.Equal(t, 14*24*time.Hour, ttl)
}

func TestIssueRejectsUnknownTier(t *testing.T) {
	r, _ := newRegistry(t)
	_, err := r.Issue(context.Background(), uuid.New(), core.Tier("platinum"), 0)
	require.ErrorIs(t, err, core.ErrInvalid)
}

func TestValidateBindsFirstHardware(t *testing.T) {
	r, _ := newRegistry(t)
	l := issueLicense(t, r, core.TierCommunity)

	got, err := r.Validate(context.Background(), l.Key, "hw-1")
	require.NoError(t, err)
	require.NotNil(t, got.HardwareID)
	require.Equal(t, "hw-1", *got.HardwareID)

	// Same hardware keeps validating.
	_, err = r.Validate(context.Background(), l.Key, "hw-1")
	require.NoError(t, err)

	// Binding is one-way: a different hardware is rejected, never re-bound.
	_, err = r.Validate(context.Background(), l.Key, "hw-2")
	require.ErrorIs(t, err, license.ErrHardwareMismatch)
}

func TestValidateLoserOfBindRaceConverges(t *testing.T) {
	r, st := newRegistry(t)
	l := issueLicense(t, r, core.TierCommunity)

	// Another writer binds between the read and our conditional update.
	bound, err := st.BindHardware(context.Background(), l.ID, "hw-1")
	require.NoError(t, err)
	require.True(t, bound)

	// The loser re-reads: same hardware converges to success.
	_, err = r.Validate(context.Background(), l.Key, "hw-1")
	require.NoError(t, err)

	// A different hardware sees the mismatch.
	_, err = r.Validate(context.Background(), l.Key, "hw-9")
	require.ErrorIs(t, err, license.ErrHardwareMismatch)
}

func TestValidateUnknownKey(t *testing.T) {
	r, _ := newRegistry(t)
	_, err := r.Validate(context.Background(), "SG-XXXX-XXXX-XXXX", "hw-1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestValidateMalformedKeyNeverHitsStore(t *testing.T) {
	r, _ := newRegistry(t)

	// The format gate answers like an unknown key, with no store lookup.
	for _, key := range []string{"", "garbage", "SG-OOOO-0000-1111", "PRO-ABCD-EFGH-JKMN"} {
		_, err := r.Validate(context.Background(), key, "hw-1")
		require.ErrorIs(t, err, core.ErrNotFound, "key %q", key)
	}
}

func TestValidateExpiredFlipsStatusLazily(t *testing.T) {
	r, st := newRegistry(t)
	l := issueLicense(t, r, core.TierCommunity)

	// Move the registry clock past expiry.
	r.SetClock(func() time.Time { return l.ExpiresAt.Add(time.Hour) })

	_, err := r.Validate(context.Background(), l.Key, "hw-1")
	require.ErrorIs(t, err, license.ErrExpired)

	stored, err := st.GetLicenseByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.Equal(t, core.LicenseExpired, stored.Status)
}

func TestValidateRevoked(t *testing.T) {
	r, _ := newRegistry(t)
	l := issueLicense(t, r, core.TierCommunity)

	require.NoError(t, r.Revoke(context.Background(), l.ID))

	_, err := r.Validate(context.Background(), l.Key, "hw-1")
	require.ErrorIs(t, err, license.ErrRevoked)
}

func TestRevokeIsIdempotentAndTerminal(t *testing.T) {
	r, st := newRegistry(t)
	l := issueLicense(t, r, core.TierCommunity)

	require.NoError(t, r.Revoke(context.Background(), l.ID))
	first, err := st.GetLicenseByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.NotNil(t, first.RevokedAt)

	// Second revoke succeeds and does not move revoked_at.
	require.NoError(t, r.Revoke(context.Background(), l.ID))
	second, err := st.GetLicenseByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.Equal(t, *first.RevokedAt, *second.RevokedAt)
	require.Equal(t, core.LicenseRevoked, second.Status)
}

func TestRecordActivationQuota(t *testing.T) {
	r, _ := newRegistry(t)
	l := issueLicense(t, r, core.TierTrial) // MaxSources = 2

	ctx := context.Background()
	for _, hw := range []string{"hw-1", "hw-2"} {
		_, err := r.RecordActivation(ctx, license.ActivationInput{LicenseID: l.ID, HardwareID: hw})
		require.NoError(t, err)
	}

	// Third distinct hardware exceeds the tier quota.
	_, err := r.RecordActivation(ctx, license.ActivationInput{LicenseID: l.ID, HardwareID: "hw-3"})
	require.ErrorIs(t, err, core.ErrQuotaExceeded)

	// Existing hardware still refreshes fine.
	_, err = r.RecordActivation(ctx, license.ActivationInput{LicenseID: l.ID, HardwareID: "hw-1"})
	require.NoError(t, err)
}

func TestRecordActivationUnlimitedTier(t *testing.T) {
	r, _ := newRegistry(t)
	l := issueLicense(t, r, core.TierEnterprise) // MaxSources = 0, sin tope

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := r.RecordActivation(ctx, license.ActivationInput{
			LicenseID:  l.ID,
			HardwareID: uuid.NewString(),
		})
		require.NoError(t, err)
	}
}

func TestRecordActivationIsIdempotentPerHardware(t *testing.T) {
	r, st := newRegistry(t)
	l := issueLicense(t, r, core.TierCommunity)

	ctx := context.Background()
	a1, err := r.RecordActivation(ctx, license.ActivationInput{LicenseID: l.ID, HardwareID: "hw-1", Version: "1.0"})
	require.NoError(t, err)

	a2, err := r.RecordActivation(ctx, license.ActivationInput{LicenseID: l.ID, HardwareID: "hw-1", Version: "1.1"})
	require.NoError(t, err)
	require.Equal(t, a1.ID, a2.ID, "same (license, hardware) must upsert, not duplicate")
	require.Equal(t, "1.1", a2.Version)

	n, err := st.CountActiveActivations(ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestDeactivateFreesQuotaSlot(t *testing.T) {
	r, _ := newRegistry(t)
	l := issueLicense(t, r, core.TierCommunity) // MaxSources = 1

	ctx := context.Background()
	a, err := r.RecordActivation(ctx, license.ActivationInput{LicenseID: l.ID, HardwareID: "hw-1"})
	require.NoError(t, err)

	_, err = r.RecordActivation(ctx, license.ActivationInput{LicenseID: l.ID, HardwareID: "hw-2"})
	require.ErrorIs(t, err, core.ErrQuotaExceeded)

	require.NoError(t, r.Deactivate(ctx, l.ID, a.ID))

	_, err = r.RecordActivation(ctx, license.ActivationInput{LicenseID: l.ID, HardwareID: "hw-2"})
	require.NoError(t, err)
}

func TestDeactivateForeignActivationNotFound(t *testing.T) {
	r, st := newRegistry(t)
	victim := issueLicense(t, r, core.TierPro)
	other := issueLicense(t, r, core.TierPro)

	ctx := context.Background()
	a, err := r.RecordActivation(ctx, license.ActivationInput{LicenseID: victim.ID, HardwareID: "hw-1"})
	require.NoError(t, err)

	// Deactivating through a license the activation does not belong to must
	// not touch it.
	err = r.Deactivate(ctx, other.ID, a.ID)
	require.ErrorIs(t, err, core.ErrNotFound)

	stored, err := st.GetActivationByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, stored.DeactivatedAt)
}

func TestRecordActivationRevokedLicense(t *testing.T) {
	r, _ := newRegistry(t)
	l := issueLicense(t, r, core.TierCommunity)
	require.NoError(t, r.Revoke(context.Background(), l.ID))

	_, err := r.RecordActivation(context.Background(), license.ActivationInput{LicenseID: l.ID, HardwareID: "hw-1"})
	require.ErrorIs(t, err, license.ErrRevoked)
}
