package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
)

const (
	defaultLookbackDays = 30
	defaultTTL          = 7 * day
	defaultSchedule     = "@daily"
	cronStopTimeout     = 10 * time.Second
)

type MetricsSource interface {
	GetMetrics(ctx context.Context, userID string, from, to time.Time) ([]core.MetricRecord, error)
}

type UserLister interface {
	ListUsers(ctx context.Context) ([]core.UserProfile, error)
}

type InsightStore interface {
	SaveInsights(ctx context.Context, userID string, insights []core.Insight) error
	DeleteExpiredInsights(ctx context.Context, now time.Time) (int64, error)
}

type BatchStats struct {
	Users    int
	Insights int
	Expired  int64
	Errors   int
}

// Generator is the daily batch job that turns raw metrics into insights.
type Generator struct {
	metrics MetricsSource
	users   UserLister
	store   InsightStore
	cron    *cron.Cron
	now     func() time.Time

	LookbackDays int
	TTL          time.Duration
	Schedule     string
}

func NewGenerator(metrics MetricsSource, users UserLister, store InsightStore) *Generator {
	return &Generator{
		metrics:      metrics,
		users:        users,
		store:        store,
		cron:         cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:          time.Now,
		LookbackDays: defaultLookbackDays,
		TTL:          defaultTTL,
		Schedule:     defaultSchedule,
	}
}

func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "insights_generator").Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Str("schedule", g.Schedule).Msg("starting insights generator")

	if _, err := g.cron.AddFunc(g.Schedule, func() {
		stats, err := g.RunOnce(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("insights batch failed")
		}
		logger.Info().
			Int("users", stats.Users).
			Int("insights", stats.Insights).
			Int64("expired", stats.Expired).
			Int("errors", stats.Errors).
			Msg("insights batch complete")
	}); err != nil {
		return fmt.Errorf("invalid insights schedule %q: %w", g.Schedule, err)
	}

	g.cron.Start()
	<-ctx.Done()
	return nil
}

func (g *Generator) Shutdown(ctx context.Context) error {
	stopped := g.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(cronStopTimeout):
		return errors.New("insights generator did not stop in time")
	}
	return nil
}

// RunOnce expires old insights and regenerates them for every user. Users
// are processed independently; their errors are joined.
func (g *Generator) RunOnce(ctx context.Context) (BatchStats, error) {
	var stats BatchStats
	now := g.now().UTC()

	expired, err := g.store.DeleteExpiredInsights(ctx, now)
	if err != nil {
		return stats, fmt.Errorf("delete expired insights: %w", err)
	}
	stats.Expired = expired

	users, err := g.users.ListUsers(ctx)
	if err != nil {
		return stats, fmt.Errorf("list users: %w", err)
	}

	var errs []error
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		n, err := g.GenerateForUser(ctx, u, now)
		if err != nil {
			stats.Errors++
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
			continue
		}
		stats.Users++
		stats.Insights += n
	}
	return stats, errors.Join(errs...)
}

// GenerateForUser replaces the stored insights of one user.
func (g *Generator) GenerateForUser(ctx context.Context, user core.UserProfile, now time.Time) (int, error) {
	from := now.Add(-time.Duration(g.LookbackDays) * day)
	records, err := g.metrics.GetMetrics(ctx, user.ID, from, now)
	if err != nil {
		return 0, fmt.Errorf("load metrics: %w", err)
	}

	found := Analyze(user, records, now)
	for i := range found {
		found[i].ID = uuid.New()
		found[i].GeneratedAt = now
		found[i].ExpiresAt = now.Add(g.TTL)
	}

	if err := g.store.SaveInsights(ctx, user.ID, found); err != nil {
		return 0, fmt.Errorf("save insights: %w", err)
	}

	log.FromCtx(ctx).Debug().Str("user", user.ID).Int("records", len(records)).Int("insights", len(found)).Msg("insights generated")
	return len(found), nil
}
