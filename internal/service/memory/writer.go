package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
)

type MessageAppender interface {
	AddMessage(ctx context.Context, sessionID string, msg core.Message) error
}

type HighlightAppender interface {
	AddHighlight(ctx context.Context, h core.Highlight) error
}

// Exchange is one user message and the reply it got.
type Exchange struct {
	User      core.Message
	Assistant core.Message
}

// Writer is the only component that mutates history and highlights.
type Writer struct {
	messages   MessageAppender
	highlights HighlightAppender
}

func NewWriter(messages MessageAppender, highlights HighlightAppender) *Writer {
	return &Writer{messages: messages, highlights: highlights}
}

// Update appends the exchange to the session history and records a highlight
// for every field the user message touches. Replaying the same exchange
// appends again; callers deduplicate by message id if they need to.
func (w *Writer) Update(ctx context.Context, userID, sessionID string, ex Exchange) ([]core.Highlight, error) {
	logger := log.FromCtx(ctx).With().Str("component", "memory_writer").Str("session", sessionID).Logger()

	for _, msg := range []core.Message{ex.User, ex.Assistant} {
		if err := w.messages.AddMessage(ctx, sessionID, msg); err != nil {
			return nil, fmt.Errorf("append %s message: %w", msg.Role, err)
		}
	}

	facts := extractFacts(ex.User.Content)
	if len(facts) == 0 {
		return nil, nil
	}

	var sourceID *uuid.UUID
	if ex.User.ID != uuid.Nil {
		id := ex.User.ID
		sourceID = &id
	}

	created := make([]core.Highlight, 0, len(facts))
	for _, f := range facts {
		h := core.Highlight{
			ID:              uuid.New(),
			UserID:          userID,
			Field:           f.Field,
			Value:           f.Value,
			Granularity:     core.GranularityVerbatim,
			SourceMessageID: sourceID,
			CreatedAt:       ex.User.CreatedAt,
		}
		if err := w.highlights.AddHighlight(ctx, h); err != nil {
			return created, fmt.Errorf("append highlight %s: %w", f.Field, err)
		}
		created = append(created, h)
	}

	logger.Debug().Int("highlights", len(created)).Msg("memory updated")
	return created, nil
}
