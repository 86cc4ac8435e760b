package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type MessagesRepository interface {
	AddMessage(ctx context.Context, sessionID string, msg Message) error
	GetMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
	CountMessages(ctx context.Context, sessionID string) (int, error)
}

type ConversationsRepository interface {
	StartConversation(ctx context.Context, conv Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	EndConversation(ctx context.Context, id string, status ConversationStatus, at time.Time) error
}

type HighlightsRepository interface {
	AddHighlight(ctx context.Context, h Highlight) error
	GetHighlights(ctx context.Context, userID string) ([]Highlight, error)
	// ReplaceHighlights atomically removes the given ids and inserts the replacement.
	ReplaceHighlights(ctx context.Context, remove []uuid.UUID, replacement Highlight) error
	ListHighlightUsers(ctx context.Context) ([]string, error)
}

type InsightsRepository interface {
	GetInsights(ctx context.Context, userID string, now time.Time) ([]Insight, error)
	SaveInsights(ctx context.Context, userID string, insights []Insight) error
	DeleteExpiredInsights(ctx context.Context, now time.Time) (int64, error)
}

type MetricsRepository interface {
	AddMetrics(ctx context.Context, records []MetricRecord) error
	GetMetrics(ctx context.Context, userID string, from, to time.Time) ([]MetricRecord, error)
}

type KnowledgeRepository interface {
	UpsertKnowledge(ctx context.Context, entry KnowledgeEntry) error
	ListKnowledge(ctx context.Context) ([]KnowledgeEntry, error)
}

type UsersRepository interface {
	UpsertUser(ctx context.Context, user UserProfile) error
	GetUser(ctx context.Context, id string) (*UserProfile, error)
	ListUsers(ctx context.Context) ([]UserProfile, error)
}
