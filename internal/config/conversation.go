package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/vitalbot/internal/core"
)

const maxMetricWindowDays = 365

// ConversationConfig is the behavioural surface of the turn loop.
type ConversationConfig struct {
	CommunicationStyle      core.CommunicationStyle `env:"VITAL_COMMUNICATION_STYLE" envDefault:"default"`
	MessageCap              int                     `env:"VITAL_MESSAGE_CAP" envDefault:"10"`
	EndIntentPhrases        []string                `env:"VITAL_END_PHRASES" envSeparator:"," envDefault:"bye,goodbye,good bye,see you,see ya,farewell,end conversation"`
	RawMetricWindowDays     int                     `env:"VITAL_METRIC_WINDOW_DAYS" envDefault:"7"`
	InsightsPerCategory     int                     `env:"VITAL_INSIGHTS_PER_CATEGORY" envDefault:"3"`
	HighlightDecayThreshold time.Duration           `env:"VITAL_HIGHLIGHT_DECAY" envDefault:"336h"`
}

func DefaultConversationConfig() ConversationConfig {
	return ConversationConfig{
		CommunicationStyle:      core.StyleDefault,
		MessageCap:              10,
		EndIntentPhrases:        []string{"bye", "goodbye", "good bye", "see you", "see ya", "farewell", "end conversation"},
		RawMetricWindowDays:     7,
		InsightsPerCategory:     3,
		HighlightDecayThreshold: 14 * 24 * time.Hour,
	}
}

// NewConversationConfig parses the environment and validates the result.
// Errors are always *core.ConfigurationError.
func NewConversationConfig() (ConversationConfig, error) {
	var c ConversationConfig
	if err := env.Parse(&c); err != nil {
		return c, &core.ConfigurationError{Field: "environment", Reason: err.Error()}
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate normalizes the phrase list in place.
func (c *ConversationConfig) Validate() error {
	if !c.CommunicationStyle.Valid() {
		return &core.ConfigurationError{
			Field:  "communication_style",
			Reason: fmt.Sprintf("unknown style %q, want encouraging, analytical, casual or default", c.CommunicationStyle),
		}
	}
	if c.MessageCap < 1 {
		return &core.ConfigurationError{Field: "conversation_message_cap", Reason: "must be at least 1"}
	}
	if c.RawMetricWindowDays < 1 || c.RawMetricWindowDays > maxMetricWindowDays {
		return &core.ConfigurationError{
			Field:  "raw_metric_window_days",
			Reason: fmt.Sprintf("must be between 1 and %d", maxMetricWindowDays),
		}
	}
	if c.InsightsPerCategory < 1 {
		return &core.ConfigurationError{Field: "insights_per_category", Reason: "must be at least 1"}
	}
	if c.HighlightDecayThreshold <= 0 {
		return &core.ConfigurationError{Field: "highlight_decay_threshold", Reason: "must be positive"}
	}

	seen := make(map[string]struct{}, len(c.EndIntentPhrases))
	phrases := make([]string, 0, len(c.EndIntentPhrases))
	for _, p := range c.EndIntentPhrases {
		p = strings.ToLower(strings.Join(strings.Fields(p), " "))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
	}
	if len(phrases) == 0 {
		return &core.ConfigurationError{Field: "end_intent_phrases", Reason: "at least one phrase is required"}
	}
	c.EndIntentPhrases = phrases
	return nil
}
