package core

import "time"

type SlotStatus string

const (
	SlotOK          SlotStatus = "ok"
	SlotEmpty       SlotStatus = "empty"
	SlotUnavailable SlotStatus = "unavailable"
)

// Slot holds one memory source's contribution to a turn.
type Slot[T any] struct {
	Status SlotStatus `json:"status"`
	Data   T          `json:"data"`
	Err    string     `json:"error,omitempty"`
}

func (s Slot[T]) Ready() bool {
	return s.Status == SlotOK
}

type InsightGroup struct {
	Category string    `json:"category"`
	Label    string    `json:"label"`
	Items    []Insight `json:"items"`
}

type HighlightEntry struct {
	Field     HighlightField `json:"field"`
	Text      string         `json:"text"`
	Compacted bool           `json:"compacted"`
	CreatedAt time.Time      `json:"created_at"`
}

type HighlightBucket struct {
	Bucket  Bucket           `json:"bucket"`
	Entries []HighlightEntry `json:"entries"`
}

// Has reports whether any entry of the given field is present.
func (b HighlightBucket) Has(f HighlightField) bool {
	for _, e := range b.Entries {
		if e.Field == f {
			return true
		}
	}
	return false
}

type Signal struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type ExternalView struct {
	Weather string   `json:"weather,omitempty"`
	Signals []Signal `json:"signals,omitempty"`
}

func (v ExternalView) IsEmpty() bool {
	return v.Weather == "" && len(v.Signals) == 0
}

// AssembledContext is rebuilt for every turn and never stored.
type AssembledContext struct {
	UserID      string                  `json:"user_id"`
	SessionID   string                  `json:"session_id"`
	Profile     *UserProfile            `json:"profile,omitempty"`
	Query       string                  `json:"query,omitempty"`
	Metrics     Slot[RawMetricSnapshot] `json:"metrics"`
	Insights    Slot[[]InsightGroup]    `json:"insights"`
	Highlights  Slot[[]HighlightBucket] `json:"highlights"`
	External    Slot[ExternalView]      `json:"external"`
	Knowledge   Slot[[]KnowledgeEntry]  `json:"knowledge"`
	AssembledAt time.Time               `json:"assembled_at"`
}

// HasHighlight reports whether the highlights slot carries the field.
func (c AssembledContext) HasHighlight(f HighlightField) bool {
	if !c.Highlights.Ready() {
		return false
	}
	for _, b := range c.Highlights.Data {
		if b.Has(f) {
			return true
		}
	}
	return false
}
