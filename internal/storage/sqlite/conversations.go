package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
)

var ErrNotFound = errors.New("not found")

type ConversationsRepo struct {
	db *sql.DB
}

func NewConversationsRepo(db *sql.DB) *ConversationsRepo {
	return &ConversationsRepo{db: db}
}

// StartConversation registers a conversation. Starting an existing id is a no-op.
func (r *ConversationsRepo) StartConversation(ctx context.Context, conv core.Conversation) error {
	if conv.Status == "" {
		conv.Status = core.ConversationActive
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, status, started_at) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		conv.ID, conv.UserID, string(conv.Status), toUnix(conv.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

func (r *ConversationsRepo) GetConversation(ctx context.Context, id string) (*core.Conversation, error) {
	var (
		conv      core.Conversation
		status    string
		startedAt int64
		endedAt   sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, started_at, ended_at FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.UserID, &status, &startedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}

	conv.Status = core.ConversationStatus(status)
	conv.StartedAt = fromUnix(startedAt)
	conv.EndedAt = fromNullUnix(endedAt)
	return &conv, nil
}

func (r *ConversationsRepo) EndConversation(ctx context.Context, id string, status core.ConversationStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET status = ?, ended_at = ? WHERE id = ?`,
		string(status), toUnix(at), id,
	)
	if err != nil {
		return fmt.Errorf("failed to end conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return nil
}
