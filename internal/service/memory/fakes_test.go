package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/vitalbot/internal/core"
)

var errBoom = errors.New("boom")

type fakeMetrics struct {
	records []core.MetricRecord
	err     error
}

func (f *fakeMetrics) GetMetrics(ctx context.Context, userID string, from, to time.Time) ([]core.MetricRecord, error) {
	return f.records, f.err
}

type fakeInsights struct {
	insights []core.Insight
	err      error
	delay    time.Duration
}

func (f *fakeInsights) GetInsights(ctx context.Context, userID string, now time.Time) ([]core.Insight, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.insights, f.err
}

type fakeKnowledge struct {
	entries []core.KnowledgeEntry
	panics  bool
}

func (f *fakeKnowledge) ListKnowledge(ctx context.Context) ([]core.KnowledgeEntry, error) {
	if f.panics {
		panic("corrupt knowledge table")
	}
	return f.entries, nil
}

type fakeProfiles struct {
	profile *core.UserProfile
	delay   time.Duration
}

func (f *fakeProfiles) GetUser(ctx context.Context, id string) (*core.UserProfile, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.profile == nil {
		return nil, errors.New("not found")
	}
	return f.profile, nil
}

type fakeWeather struct {
	record *core.WeatherRecord
	err    error
}

func (f *fakeWeather) GetWeather(ctx context.Context, location string) (*core.WeatherRecord, error) {
	return f.record, f.err
}

type fakeSignals struct {
	name    string
	signals map[string]any
	err     error
}

func (f *fakeSignals) Name() string { return f.name }

func (f *fakeSignals) Signals(ctx context.Context, profile *core.UserProfile) (map[string]any, error) {
	return f.signals, f.err
}

// memStore keeps messages and highlights in memory.
type memStore struct {
	mu         sync.Mutex
	messages   map[string][]core.Message
	highlights []core.Highlight
	failAdd    bool
}

func newMemStore() *memStore {
	return &memStore{messages: make(map[string][]core.Message)}
}

func (s *memStore) AddMessage(ctx context.Context, sessionID string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAdd {
		return errBoom
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return nil
}

func (s *memStore) AddHighlight(ctx context.Context, h core.Highlight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlights = append(s.highlights, h)
	return nil
}

func (s *memStore) GetHighlights(ctx context.Context, userID string) ([]core.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Highlight
	for _, h := range s.highlights {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *memStore) ReplaceHighlights(ctx context.Context, remove []uuid.UUID, replacement core.Highlight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[uuid.UUID]bool, len(remove))
	for _, id := range remove {
		drop[id] = true
	}
	kept := s.highlights[:0]
	for _, h := range s.highlights {
		if !drop[h.ID] {
			kept = append(kept, h)
		}
	}
	s.highlights = append(kept, replacement)
	return nil
}

func (s *memStore) ListHighlightUsers(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, h := range s.highlights {
		if !seen[h.UserID] {
			seen[h.UserID] = true
			out = append(out, h.UserID)
		}
	}
	return out, nil
}

type fakeModel struct {
	text string
	err  error

	prompt  string
	history []core.Message
}

func (f *fakeModel) Invoke(ctx context.Context, prompt string, history []core.Message) (core.ModelResponse, error) {
	f.prompt = prompt
	f.history = history
	if f.err != nil {
		return core.ModelResponse{}, f.err
	}
	return core.ModelResponse{Text: f.text}, nil
}

func ptr[T any](v T) *T { return &v }
