package core

import (
	"time"

	"github.com/google/uuid"
)

const (
	AppName      = "VitalBot"
	AppVersion   = "0.1.0"
	AppUserAgent = "VitalBot/0.1"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        uuid.UUID         `json:"id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewMessage stamps a message with a fresh id and the given time.
func NewMessage(role Role, content string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: at,
	}
}

type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
	ConversationFailed    ConversationStatus = "failed"
)

type Conversation struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Status    ConversationStatus `json:"status"`
	StartedAt time.Time          `json:"started_at"`
	EndedAt   *time.Time         `json:"ended_at,omitempty"`
}

type Preferences struct {
	CommunicationStyle string `json:"communication_style,omitempty" yaml:"communication_style"`
}

type UserProfile struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Age         int         `json:"age,omitempty" yaml:"age"`
	Gender      string      `json:"gender,omitempty" yaml:"gender"`
	Location    string      `json:"location,omitempty" yaml:"location"`
	Goals       []string    `json:"goals,omitempty" yaml:"goals"`
	Preferences Preferences `json:"preferences" yaml:"preferences"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type ModelResponse struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

type CommunicationStyle string

const (
	StyleDefault     CommunicationStyle = "default"
	StyleEncouraging CommunicationStyle = "encouraging"
	StyleAnalytical  CommunicationStyle = "analytical"
	StyleCasual      CommunicationStyle = "casual"
)

func (s CommunicationStyle) Valid() bool {
	switch s {
	case StyleDefault, StyleEncouraging, StyleAnalytical, StyleCasual:
		return true
	}
	return false
}
