package license

import (
	"time"

	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// TierLimits quotas y features por tier. Un valor 0 en MaxSources/MaxTables/
// MaxThroughput es el sentinel "sin tope": las comparaciones de quota lo
// cortocircuitan a permitido, nunca lo tratan como tope literal de cero.
type TierLimits struct {
	MaxSources    int
	MaxTables     int
	MaxThroughput int64 // bytes/seg
	Features      []string
	DefaultTTL    time.Duration
}

var tierLimits = map[core.Tier]TierLimits{
	core.TierCommunity: {
		MaxSources:    1,
		MaxTables:     10,
		MaxThroughput: 5 << 20,
		Features:      []string{"cdc"},
		DefaultTTL:    365 * 24 * time.Hour,
	},
	core.TierPro: {
		MaxSources:    5,
		MaxTables:     100,
		MaxThroughput: 50 << 20,
		Features:      []string{"cdc", "transforms", "webhooks"},
		DefaultTTL:    365 * 24 * time.Hour,
	},
	core.TierEnterprise: {
		MaxSources:    0, // sin tope
		MaxTables:     0,
		MaxThroughput: 0,
		Features:      []string{"cdc", "transforms", "webhooks", "audit", "sso"},
		DefaultTTL:    365 * 24 * time.Hour,
	},
	core.TierTrial: {
		MaxSources:    2,
		MaxTables:     50,
		MaxThroughput: 20 << 20,
		Features:      []string{"cdc", "transforms", "webhooks"},
		DefaultTTL:    14 * 24 * time.Hour,
	},
}

// LimitsFor devuelve las quotas del tier. Tiers desconocidos caen a community.
func LimitsFor(t core.Tier) TierLimits {
	if l, ok := tierLimits[t]; ok {
		return l
	}
	return tierLimits[core.TierCommunity]
}

// Unlimited reporta si un valor de quota es el sentinel "sin tope".
func Unlimited(limit int64) bool { return limit <= 0 }
