package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/vitalbot/internal/core"
)

type InsightsRepo struct {
	db *sql.DB
}

func NewInsightsRepo(db *sql.DB) *InsightsRepo {
	return &InsightsRepo{db: db}
}

// GetInsights returns the unexpired insights of a user, highest confidence first.
func (r *InsightsRepo) GetInsights(ctx context.Context, userID string, now time.Time) ([]core.Insight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, finding, confidence, timeframe, observed_at, generated_at, expires_at
		   FROM insights WHERE user_id = ? AND expires_at > ?
		  ORDER BY confidence DESC, generated_at DESC`, userID, toUnix(now))
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var out []core.Insight
	for rows.Next() {
		var (
			in                             core.Insight
			id, timeframe                  string
			observedAt, generated, expires int64
		)
		if err := rows.Scan(&id, &in.Category, &in.Finding, &in.Confidence, &timeframe, &observedAt, &generated, &expires); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		if in.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse insight id %q: %w", id, err)
		}
		in.UserID = userID
		in.Timeframe = core.ParseTimeframe(timeframe)
		in.ObservedAt = fromUnix(observedAt)
		in.GeneratedAt = fromUnix(generated)
		in.ExpiresAt = fromUnix(expires)
		out = append(out, in)
	}
	return out, rows.Err()
}

// SaveInsights replaces the stored insight set of a user with a fresh batch.
func (r *InsightsRepo) SaveInsights(ctx context.Context, userID string, insights []core.Insight) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM insights WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear insights: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO insights (id, user_id, category, finding, confidence, timeframe, observed_at, generated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, in := range insights {
		if in.ID == uuid.Nil {
			in.ID = uuid.New()
		}
		if _, err := stmt.ExecContext(ctx,
			in.ID.String(), userID, in.Category, in.Finding, core.ClampConfidence(in.Confidence),
			in.Timeframe.String(), toUnix(in.ObservedAt), toUnix(in.GeneratedAt), toUnix(in.ExpiresAt),
		); err != nil {
			return fmt.Errorf("failed to insert insight: %w", err)
		}
	}

	return tx.Commit()
}

func (r *InsightsRepo) DeleteExpiredInsights(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM insights WHERE expires_at <= ?`, toUnix(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired insights: %w", err)
	}
	return res.RowsAffected()
}
