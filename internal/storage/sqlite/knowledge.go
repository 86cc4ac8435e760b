package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
)

type KnowledgeRepo struct {
	db *sql.DB
}

func NewKnowledgeRepo(db *sql.DB) *KnowledgeRepo {
	return &KnowledgeRepo{db: db}
}

func (r *KnowledgeRepo) UpsertKnowledge(ctx context.Context, entry core.KnowledgeEntry) error {
	keywords, err := json.Marshal(entry.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO knowledge (topic, title, content, source, keywords, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(topic) DO UPDATE SET
		   title = excluded.title, content = excluded.content, source = excluded.source,
		   keywords = excluded.keywords, updated_at = excluded.updated_at`,
		entry.Topic, entry.Title, entry.Content, entry.Source, string(keywords), toUnix(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert knowledge %s: %w", entry.Topic, err)
	}
	return nil
}

func (r *KnowledgeRepo) ListKnowledge(ctx context.Context) ([]core.KnowledgeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT topic, title, content, source, keywords FROM knowledge ORDER BY topic`)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: %w", err)
	}
	defer rows.Close()

	var out []core.KnowledgeEntry
	for rows.Next() {
		var (
			e        core.KnowledgeEntry
			keywords string
		)
		if err := rows.Scan(&e.Topic, &e.Title, &e.Content, &e.Source, &keywords); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &e.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords of %s: %w", e.Topic, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
