package pg

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/store/core"
)

func (s *Store) UpsertTelemetry(ctx context.Context, rec *core.TelemetryRecord) error {
	// Clave natural (license_id, hardware_id, bucket): reportes repetidos en
	// la misma hora reemplazan contadores (replace idempotente, no append).
	const q = `
		INSERT INTO telemetry_usage
		    (license_id, hardware_id, bucket, events_processed, bytes_processed,
		     tables_tracked, sources_active, avg_latency_ms, error_count,
		     uptime_hours, version, source_type, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (license_id, hardware_id, bucket) DO UPDATE
		   SET events_processed = EXCLUDED.events_processed,
		       bytes_processed  = EXCLUDED.bytes_processed,
		       tables_tracked   = EXCLUDED.tables_tracked,
		       sources_active   = EXCLUDED.sources_active,
		       avg_latency_ms   = EXCLUDED.avg_latency_ms,
		       error_count      = EXCLUDED.error_count,
		       uptime_hours     = EXCLUDED.uptime_hours,
		       version          = EXCLUDED.version,
		       source_type      = EXCLUDED.source_type,
		       reported_at      = EXCLUDED.reported_at`
	_, err := s.pool.Exec(ctx, q,
		rec.LicenseID, rec.HardwareID, rec.Bucket.Truncate(time.Hour).UTC(),
		rec.EventsProcessed, rec.BytesProcessed, rec.TablesTracked,
		rec.SourcesActive, rec.AvgLatencyMs, rec.ErrorCount, rec.UptimeHours,
		rec.Version, rec.SourceType, rec.ReportedAt)
	return err
}

func (s *Store) DashboardStats(ctx context.Context, userID uuid.UUID, since time.Time) (*core.DashboardStats, error) {
	st := &core.DashboardStats{}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM license WHERE user_id = $1`, userID).
		Scan(&st.TotalLicenses); err != nil {
		return nil, err
	}

	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		  FROM license_activation a
		  JOIN license l ON l.id = a.license_id
		 WHERE l.user_id = $1 AND a.deactivated_at IS NULL`, userID).
		Scan(&st.ActiveInstances); err != nil {
		return nil, err
	}

	// La telemetría guarda license_id crudo: join por texto contra las
	// licencias del usuario.
	if err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(t.events_processed), 0),
		       COALESCE(SUM(t.bytes_processed), 0),
		       COALESCE(AVG(NULLIF(t.avg_latency_ms, 0)), 0),
		       COALESCE(SUM(t.error_count), 0),
		       COALESCE(SUM(t.uptime_hours), 0)
		  FROM telemetry_usage t
		  JOIN license l ON l.id::text = t.license_id
		 WHERE l.user_id = $1 AND t.bucket >= $2`, userID, since.UTC()).
		Scan(&st.EventsProcessed24h, &st.DataTransferred24h, &st.AvgLatencyMs,
			&st.TotalErrors, &st.TotalUptimeHours); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *Store) UsageSeries(ctx context.Context, userID uuid.UUID, days int) ([]core.UsagePoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(date_trunc('day', t.bucket), 'YYYY-MM-DD') AS day,
		       SUM(t.events_processed), SUM(t.bytes_processed), SUM(t.error_count)
		  FROM telemetry_usage t
		  JOIN license l ON l.id::text = t.license_id
		 WHERE l.user_id = $1
		   AND t.bucket >= date_trunc('day', now()) - ($2 - 1) * interval '1 day'
		 GROUP BY 1
		 ORDER BY 1 ASC`, userID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.UsagePoint
	for rows.Next() {
		var p core.UsagePoint
		if err := rows.Scan(&p.Date, &p.EventsProcessed, &p.BytesProcessed, &p.ErrorCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
