package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/syncgate/internal/cache"
	"github.com/dropDatabas3/syncgate/internal/observability/logger"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// ErrNoPrincipal lo retornan las lecturas del aggregator cuando el principal
// no vino resuelto. El middleware lo garantiza; esto es el cinturón.
var ErrNoPrincipal = errors.New("telemetry: no principal")

const (
	defaultUsageDays   = 7
	defaultStatsTTL    = 30 * time.Second
	defaultStaleAfter  = 10 * time.Minute
	dashboardKeyFormat = "stats:%s"
)

// InstanceStatus una instancia activa anotada con su frescura.
type InstanceStatus struct {
	core.Instance
	Status string `json:"status"` // "online" | "stale"
}

// Aggregator lecturas puras sobre la telemetría persistida. El cache es solo
// aceleración: con Client nil todo sigue funcionando contra el storage.
type Aggregator struct {
	store core.Repository
	cache cache.Client
	group singleflight.Group

	statsTTL   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func NewAggregator(store core.Repository, c cache.Client) *Aggregator {
	return &Aggregator{
		store:      store,
		cache:      c,
		statsTTL:   defaultStatsTTL,
		staleAfter: defaultStaleAfter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj (tests).
func (a *Aggregator) SetClock(now func() time.Time) { a.now = now }

// SetStaleAfter ajusta el umbral online/stale.
func (a *Aggregator) SetStaleAfter(d time.Duration) { a.staleAfter = d }

// DashboardStats agrega las últimas 24h de las licencias del usuario.
// Lecturas concurrentes del mismo usuario colapsan vía singleflight.
func (a *Aggregator) DashboardStats(ctx context.Context, userID uuid.UUID) (*core.DashboardStats, error) {
	if userID == uuid.Nil {
		return nil, ErrNoPrincipal
	}

	key := fmt.Sprintf(dashboardKeyFormat, userID)
	if a.cache != nil {
		if raw, err := a.cache.Get(ctx, key); err == nil {
			var stats core.DashboardStats
			if err := json.Unmarshal([]byte(raw), &stats); err == nil {
				return &stats, nil
			}
			// Entrada corrupta: limpiar y recalcular.
			_ = a.cache.Delete(ctx, key)
		}
	}

	v, err, _ := a.group.Do(key, func() (any, error) {
		since := a.now().Add(-24 * time.Hour)
		stats, err := a.store.DashboardStats(ctx, userID, since)
		if err != nil {
			return nil, err
		}
		if a.cache != nil {
			if raw, err := json.Marshal(stats); err == nil {
				if err := a.cache.Set(ctx, key, string(raw), a.statsTTL); err != nil {
					logger.From(ctx).Warn("stats cache set failed", logger.Err(err))
				}
			}
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.DashboardStats), nil
}

// UsageHistory serie por día. days fuera de rango cae a 7.
func (a *Aggregator) UsageHistory(ctx context.Context, userID uuid.UUID, days int) ([]core.UsagePoint, error) {
	if userID == uuid.Nil {
		return nil, ErrNoPrincipal
	}
	if days <= 0 {
		days = defaultUsageDays
	}
	return a.store.UsageSeries(ctx, userID, days)
}

// ActiveInstances lista las activaciones activas del usuario anotadas como
// online o stale según last_seen_at contra el umbral.
func (a *Aggregator) ActiveInstances(ctx context.Context, userID uuid.UUID) ([]InstanceStatus, error) {
	if userID == uuid.Nil {
		return nil, ErrNoPrincipal
	}
	instances, err := a.store.ListUserInstances(ctx, userID)
	if err != nil {
		return nil, err
	}

	cutoff := a.now().Add(-a.staleAfter)
	out := make([]InstanceStatus, 0, len(instances))
	for _, in := range instances {
		status := "online"
		if in.LastSeenAt.Before(cutoff) {
			status = "stale"
		}
		out = append(out, InstanceStatus{Instance: in, Status: status})
	}
	return out, nil
}
