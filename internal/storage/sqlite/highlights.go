package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sandevgo/vitalbot/internal/core"
)

type HighlightsRepo struct {
	db *sql.DB
}

func NewHighlightsRepo(db *sql.DB) *HighlightsRepo {
	return &HighlightsRepo{db: db}
}

const insertHighlight = `INSERT INTO highlights (id, user_id, field, value, granularity, source_message_id, created_at, compacted_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func addHighlight(ctx context.Context, db execer, h core.Highlight) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if !h.Field.Valid() {
		return fmt.Errorf("unknown highlight field %q", h.Field)
	}
	if h.Granularity == "" {
		h.Granularity = core.GranularityVerbatim
	}

	var source sql.NullString
	if h.SourceMessageID != nil {
		source = sql.NullString{String: h.SourceMessageID.String(), Valid: true}
	}

	_, err := db.ExecContext(ctx, insertHighlight,
		h.ID.String(), h.UserID, string(h.Field), h.Value, string(h.Granularity),
		source, toUnix(h.CreatedAt), toNullUnix(h.CompactedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert highlight: %w", err)
	}
	return nil
}

func (r *HighlightsRepo) AddHighlight(ctx context.Context, h core.Highlight) error {
	return addHighlight(ctx, r.db, h)
}

// GetHighlights returns a user's highlights ordered oldest first.
func (r *HighlightsRepo) GetHighlights(ctx context.Context, userID string) ([]core.Highlight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, field, value, granularity, source_message_id, created_at, compacted_at
		   FROM highlights WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlights: %w", err)
	}
	defer rows.Close()

	var out []core.Highlight
	for rows.Next() {
		var (
			h                      core.Highlight
			id, field, granularity string
			source                 sql.NullString
			createdAt              int64
			compactedAt            sql.NullInt64
		)
		if err := rows.Scan(&id, &h.UserID, &field, &h.Value, &granularity, &source, &createdAt, &compactedAt); err != nil {
			return nil, fmt.Errorf("failed to scan highlight: %w", err)
		}
		if h.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse highlight id %q: %w", id, err)
		}
		if source.Valid {
			if sid, err := uuid.Parse(source.String); err == nil {
				h.SourceMessageID = &sid
			}
		}
		h.Field = core.HighlightField(field)
		h.Granularity = core.Granularity(granularity)
		h.CreatedAt = fromUnix(createdAt)
		h.CompactedAt = fromNullUnix(compactedAt)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *HighlightsRepo) ReplaceHighlights(ctx context.Context, remove []uuid.UUID, replacement core.Highlight) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if len(remove) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(remove)), ",")
		args := make([]any, 0, len(remove))
		for _, id := range remove {
			args = append(args, id.String())
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM highlights WHERE id IN (`+placeholders+`)`, args...); err != nil {
			return fmt.Errorf("failed to delete highlights: %w", err)
		}
	}

	if err := addHighlight(ctx, tx, replacement); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *HighlightsRepo) ListHighlightUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM highlights ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlight users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
