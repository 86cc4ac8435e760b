package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
)

const (
	defaultCompactionSchedule = "@every 1h"
	cronStopTimeout           = 10 * time.Second
)

type HighlightStore interface {
	GetHighlights(ctx context.Context, userID string) ([]core.Highlight, error)
	ReplaceHighlights(ctx context.Context, remove []uuid.UUID, replacement core.Highlight) error
	ListHighlightUsers(ctx context.Context) ([]string, error)
}

type CompactionStats struct {
	Users   int
	Merged  int
	Created int
}

// Compactor periodically folds highlights older than the decay threshold into
// one coarse, long-lived highlight per user and field.
type Compactor struct {
	store      HighlightStore
	summarizer Summarizer
	cron       *cron.Cron
	now        func() time.Time

	Threshold time.Duration
	Schedule  string
}

func NewCompactor(store HighlightStore, summarizer Summarizer, threshold time.Duration) *Compactor {
	if summarizer == nil {
		summarizer = KeywordSummarizer{}
	}
	if threshold <= 0 {
		threshold = defaultDecayThreshold
	}
	return &Compactor{
		store:      store,
		summarizer: summarizer,
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:        time.Now,
		Threshold:  threshold,
		Schedule:   defaultCompactionSchedule,
	}
}

func (c *Compactor) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "highlight_compactor").Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Str("schedule", c.Schedule).Dur("threshold", c.Threshold).Msg("starting highlight compactor")

	if _, err := c.cron.AddFunc(c.Schedule, func() {
		stats, err := c.RunOnce(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("compaction pass failed")
		}
		if stats.Created > 0 {
			logger.Info().Int("users", stats.Users).Int("merged", stats.Merged).Int("created", stats.Created).Msg("highlights compacted")
		}
	}); err != nil {
		return fmt.Errorf("invalid compaction schedule %q: %w", c.Schedule, err)
	}

	c.cron.Start()
	<-ctx.Done()
	return nil
}

func (c *Compactor) Shutdown(ctx context.Context) error {
	stopped := c.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(cronStopTimeout):
		return errors.New("compactor did not stop in time")
	}
	return nil
}

// RunOnce performs a single compaction pass over every user with highlights.
// A failing user does not stop the pass.
func (c *Compactor) RunOnce(ctx context.Context) (CompactionStats, error) {
	var stats CompactionStats

	users, err := c.store.ListHighlightUsers(ctx)
	if err != nil {
		return stats, fmt.Errorf("list users: %w", err)
	}

	var errs []error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		merged, created, err := c.compactUser(ctx, userID)
		stats.Merged += merged
		stats.Created += created
		if created > 0 {
			stats.Users++
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
		}
	}
	return stats, errors.Join(errs...)
}

func (c *Compactor) compactUser(ctx context.Context, userID string) (int, int, error) {
	highlights, err := c.store.GetHighlights(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	now := c.now()

	byField := make(map[core.HighlightField][]core.Highlight)
	stale := make(map[core.HighlightField]bool)
	for _, h := range highlights {
		switch {
		case h.Granularity == core.GranularityCompacted:
			byField[h.Field] = append(byField[h.Field], h)
		case h.Age(now) > c.Threshold:
			byField[h.Field] = append(byField[h.Field], h)
			stale[h.Field] = true
		}
	}

	merged, created := 0, 0
	for _, field := range core.AllFields() {
		if !stale[field] {
			continue
		}
		inputs := byField[field]
		sort.SliceStable(inputs, func(i, j int) bool {
			return inputs[i].CreatedAt.Before(inputs[j].CreatedAt)
		})

		summary, err := c.summarizer.Summarize(ctx, field, inputs)
		if err != nil {
			return merged, created, fmt.Errorf("summarize %s: %w", field, err)
		}

		ids := make([]uuid.UUID, 0, len(inputs))
		for _, h := range inputs {
			ids = append(ids, h.ID)
		}
		compactedAt := now
		replacement := core.Highlight{
			ID:          uuid.New(),
			UserID:      userID,
			Field:       field,
			Value:       summary,
			Granularity: core.GranularityCompacted,
			CreatedAt:   inputs[0].CreatedAt,
			CompactedAt: &compactedAt,
		}
		if err := c.store.ReplaceHighlights(ctx, ids, replacement); err != nil {
			return merged, created, fmt.Errorf("replace %s: %w", field, err)
		}
		merged += len(inputs)
		created++
	}
	return merged, created, nil
}
