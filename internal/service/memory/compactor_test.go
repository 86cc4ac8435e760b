package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactor_RunOnceMergesStaleHighlights(t *testing.T) {
	day := 24 * time.Hour
	store := newMemStore()
	store.highlights = []core.Highlight{
		{ID: uuid.New(), UserID: "u1", Field: core.FieldAllergies, Value: "allergic to peanuts", CreatedAt: testNow.Add(-40 * day)},
		{ID: uuid.New(), UserID: "u1", Field: core.FieldAllergies, Value: "shellfish makes me sick", CreatedAt: testNow.Add(-20 * day)},
		{ID: uuid.New(), UserID: "u1", Field: core.FieldAllergies, Value: "hay fever in spring", CreatedAt: testNow.Add(-day)},
		{ID: uuid.New(), UserID: "u1", Field: core.FieldGoalsMentioned, Value: "run a marathon", CreatedAt: testNow.Add(-day)},
		{ID: uuid.New(), UserID: "u2", Field: core.FieldStressSources, Value: "deadlines at work", CreatedAt: testNow.Add(-30 * day)},
	}

	c := NewCompactor(store, KeywordSummarizer{}, 14*day)
	c.now = func() time.Time { return testNow }

	stats, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CompactionStats{Users: 2, Merged: 3, Created: 2}, stats)

	u1, _ := store.GetHighlights(context.Background(), "u1")
	require.Len(t, u1, 3)

	var compacted []core.Highlight
	for _, h := range u1 {
		if h.Granularity == core.GranularityCompacted {
			compacted = append(compacted, h)
		}
	}
	require.Len(t, compacted, 1)
	merged := compacted[0]
	assert.Equal(t, core.FieldAllergies, merged.Field)
	assert.True(t, testNow.Add(-40*day).Equal(merged.CreatedAt))
	require.NotNil(t, merged.CompactedAt)
	assert.Equal(t, "Allergies mentioned (as of May 2024): allergic, peanuts, shellfish, makes, sick", merged.Value)

	// A second pass finds nothing new to fold.
	stats, err = c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Created)
}

func TestCompactor_RefoldsIntoExistingCompacted(t *testing.T) {
	day := 24 * time.Hour
	store := newMemStore()
	compactedAt := testNow.Add(-10 * day)
	store.highlights = []core.Highlight{
		{ID: uuid.New(), UserID: "u1", Field: core.FieldWorkSchedule, Value: "Work schedule mentioned (as of Jan 2024): night, shifts",
			Granularity: core.GranularityCompacted, CreatedAt: testNow.Add(-150 * day), CompactedAt: &compactedAt},
		{ID: uuid.New(), UserID: "u1", Field: core.FieldWorkSchedule, Value: "I commute two hours", CreatedAt: testNow.Add(-15 * day)},
	}

	c := NewCompactor(store, KeywordSummarizer{}, 14*day)
	c.now = func() time.Time { return testNow }

	_, err := c.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, store.highlights, 1)
	h := store.highlights[0]
	assert.Equal(t, core.GranularityCompacted, h.Granularity)
	assert.True(t, strings.HasPrefix(h.Value, "Work schedule mentioned (Jan 2024 to May 2024): night, shifts, commute, two, hours"), h.Value)
}

func TestCompactor_StartAndShutdown(t *testing.T) {
	c := NewCompactor(newMemStore(), nil, time.Hour)
	c.Schedule = "@every 10ms"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestCompactor_InvalidSchedule(t *testing.T) {
	c := NewCompactor(newMemStore(), nil, time.Hour)
	c.Schedule = "every now and then"

	err := c.Start(context.Background())
	assert.Error(t, err)
}

func TestModelSummarizer(t *testing.T) {
	inputs := []core.Highlight{
		{Field: core.FieldStressSources, Value: "deadlines keep piling up", CreatedAt: testNow},
	}

	tests := []struct {
		name  string
		model *fakeModel
		want  string
	}{
		{
			name:  "model answer",
			model: &fakeModel{text: "Work deadlines are a recurring stressor\nextra line"},
			want:  "Stress sources mentioned (as of Jun 2024): Work deadlines are a recurring stressor",
		},
		{
			name:  "model failure falls back",
			model: &fakeModel{err: &core.ModelFatalError{Err: errBoom}},
			want:  "Stress sources mentioned (as of Jun 2024): deadlines, keep, piling",
		},
		{
			name:  "verbatim echo falls back",
			model: &fakeModel{text: "Deadlines keep piling up"},
			want:  "Stress sources mentioned (as of Jun 2024): deadlines, keep, piling",
		},
		{
			name:  "blank answer falls back",
			model: &fakeModel{text: "   "},
			want:  "Stress sources mentioned (as of Jun 2024): deadlines, keep, piling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewModelSummarizer(tt.model, time.Second)
			got, err := s.Summarize(context.Background(), core.FieldStressSources, inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, tt.model.history, 1, "facts are sent as a user message")
			assert.Equal(t, core.RoleUser, tt.model.history[0].Role)
			assert.Contains(t, tt.model.history[0].Content, "deadlines keep piling up")
			assert.Contains(t, tt.model.history[0].Content, "Field: Stress sources")
			assert.NotEmpty(t, tt.model.prompt)
		})
	}
}
