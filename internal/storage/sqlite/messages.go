package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
)

type MessagesRepo struct {
	db *sql.DB
}

func NewMessagesRepo(db *sql.DB) *MessagesRepo {
	return &MessagesRepo{db: db}
}

func (r *MessagesRepo) AddMessage(ctx context.Context, sessionID string, msg core.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	var metadata sql.NullString
	if len(msg.Metadata) > 0 {
		raw, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal message metadata: %w", err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	query := `INSERT INTO messages (message_id, session_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		msg.ID.String(), sessionID, string(msg.Role), msg.Content, metadata, toUnix(msg.CreatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessages returns the last limit messages of a session in chronological
// order. A non-positive limit returns the whole history.
func (r *MessagesRepo) GetMessages(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	if limit <= 0 {
		limit = -1
	}

	// Fetch the LAST 'limit' messages by ordering DESC
	query := `SELECT message_id, role, content, metadata, created_at FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var (
			msg       core.Message
			id, role  string
			metadata  sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&id, &role, &msg.Content, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		if msg.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse message id %q: %w", id, err)
		}
		msg.Role = core.Role(role)
		msg.CreatedAt = fromUnix(createdAt)

		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal message metadata: %w", err)
			}
		}

		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest first from the query; callers want oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.FromCtx(ctx).Debug().Str("session", sessionID).Int("count", len(messages)).Msg("loaded history messages")
	return messages, nil
}

func (r *MessagesRepo) CountMessages(ctx context.Context, sessionID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}
