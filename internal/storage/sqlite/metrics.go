package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
)

type MetricsRepo struct {
	db *sql.DB
}

func NewMetricsRepo(db *sql.DB) *MetricsRepo {
	return &MetricsRepo{db: db}
}

// AddMetrics upserts points keyed by (user, kind, timestamp).
func (r *MetricsRepo) AddMetrics(ctx context.Context, records []core.MetricRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO health_metrics (user_id, kind, at, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, kind, at) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.UserID, string(rec.Kind), toUnix(rec.At), rec.Value); err != nil {
			return fmt.Errorf("failed to insert metric: %w", err)
		}
	}
	return tx.Commit()
}

// GetMetrics returns points in [from, to] ordered by time.
func (r *MetricsRepo) GetMetrics(ctx context.Context, userID string, from, to time.Time) ([]core.MetricRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, at, value FROM health_metrics WHERE user_id = ? AND at BETWEEN ? AND ? ORDER BY at ASC, kind ASC`,
		userID, toUnix(from), toUnix(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var out []core.MetricRecord
	for rows.Next() {
		var (
			rec  core.MetricRecord
			kind string
			at   int64
		)
		if err := rows.Scan(&kind, &at, &rec.Value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		rec.UserID = userID
		rec.Kind = core.MetricKind(kind)
		rec.At = fromUnix(at)
		out = append(out, rec)
	}
	return out, rows.Err()
}
