package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
	"golang.org/x/sync/errgroup"
)

const defaultDecayThreshold = 14 * 24 * time.Hour

const (
	SourceRawMetrics = "raw_metrics"
	SourceInsights   = "insights"
	SourceHighlights = "highlights"
	SourceExternal   = "external_context"
	SourceKnowledge  = "knowledge_base"
)

type MetricsReader interface {
	GetMetrics(ctx context.Context, userID string, from, to time.Time) ([]core.MetricRecord, error)
}

type InsightsReader interface {
	GetInsights(ctx context.Context, userID string, now time.Time) ([]core.Insight, error)
}

type HighlightsReader interface {
	GetHighlights(ctx context.Context, userID string) ([]core.Highlight, error)
}

type KnowledgeReader interface {
	ListKnowledge(ctx context.Context) ([]core.KnowledgeEntry, error)
}

type ProfileReader interface {
	GetUser(ctx context.Context, id string) (*core.UserProfile, error)
}

type AssemblerConfig struct {
	// SourceTimeout bounds the whole assembly, profile lookup included.
	SourceTimeout       time.Duration
	// ProfileTimeout caps the profile lookup so the location and goal
	// dependent sources keep the rest of SourceTimeout.
	ProfileTimeout      time.Duration
	WindowDays          int
	InsightsPerCategory int
	DecayThreshold      time.Duration
	KnowledgeLimit      int
}

// Sources bundles the read side of every memory source. Weather and
// Profiles may be nil.
type Sources struct {
	Metrics    MetricsReader
	Insights   InsightsReader
	Highlights HighlightsReader
	Knowledge  KnowledgeReader
	Profiles   ProfileReader
	Weather    core.WeatherProvider
	Signals    []core.SignalProvider
}

// SessionState is what the assembler needs to know about the running session.
type SessionState struct {
	SessionID string
	// Query is the latest user message; knowledge relevance is matched against it.
	Query string
}

type Assembler struct {
	cfg     AssemblerConfig
	sources Sources
	now     func() time.Time
}

func NewAssembler(cfg AssemblerConfig, sources Sources) *Assembler {
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 2 * time.Second
	}
	if cfg.ProfileTimeout <= 0 || cfg.ProfileTimeout > cfg.SourceTimeout {
		cfg.ProfileTimeout = cfg.SourceTimeout / 2
	}
	if cfg.InsightsPerCategory <= 0 {
		cfg.InsightsPerCategory = 3
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}
	if cfg.KnowledgeLimit <= 0 {
		cfg.KnowledgeLimit = 5
	}
	if cfg.DecayThreshold <= 0 {
		cfg.DecayThreshold = defaultDecayThreshold
	}
	return &Assembler{cfg: cfg, sources: sources, now: time.Now}
}

// WithClock replaces the time source, for tests and replays.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Assemble never fails: every source is isolated, time-boxed and degrades
// to an empty or unavailable slot.
func (a *Assembler) Assemble(ctx context.Context, userID string, state SessionState) core.AssembledContext {
	logger := log.FromCtx(ctx).With().Str("component", "assembler").Str("user", userID).Logger()
	ctx = logger.WithContext(ctx)
	now := a.now()

	ac := core.AssembledContext{
		UserID:      userID,
		SessionID:   state.SessionID,
		Query:       state.Query,
		AssembledAt: now,
	}

	// One deadline for every source; profile dependents get what the lookup left.
	bctx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
	defer cancel()

	var g errgroup.Group
	profiled := make(chan struct{})
	g.Go(func() error {
		defer close(profiled)
		ac.Profile = fetchSlot(bctx, "profile", a.cfg.ProfileTimeout, func(ctx context.Context) (*core.UserProfile, bool, error) {
			if a.sources.Profiles == nil {
				return nil, true, nil
			}
			p, err := a.sources.Profiles.GetUser(ctx, userID)
			return p, p == nil, err
		}).Data
		return nil
	})
	g.Go(func() error {
		ac.Metrics = fetchSlot(bctx, SourceRawMetrics, a.cfg.SourceTimeout, func(ctx context.Context) (core.RawMetricSnapshot, bool, error) {
			return a.loadMetrics(ctx, userID, now)
		})
		return nil
	})
	g.Go(func() error {
		ac.Insights = fetchSlot(bctx, SourceInsights, a.cfg.SourceTimeout, func(ctx context.Context) ([]core.InsightGroup, bool, error) {
			return a.loadInsights(ctx, userID, now)
		})
		return nil
	})
	g.Go(func() error {
		ac.Highlights = fetchSlot(bctx, SourceHighlights, a.cfg.SourceTimeout, func(ctx context.Context) ([]core.HighlightBucket, bool, error) {
			return a.loadHighlights(ctx, userID, now)
		})
		return nil
	})
	g.Go(func() error {
		<-profiled
		ac.External = fetchSlot(bctx, SourceExternal, a.cfg.SourceTimeout, func(ctx context.Context) (core.ExternalView, bool, error) {
			return a.loadExternal(ctx, ac.Profile)
		})
		return nil
	})
	g.Go(func() error {
		<-profiled
		ac.Knowledge = fetchSlot(bctx, SourceKnowledge, a.cfg.SourceTimeout, func(ctx context.Context) ([]core.KnowledgeEntry, bool, error) {
			return a.loadKnowledge(ctx, state.Query, ac.Profile)
		})
		return nil
	})
	_ = g.Wait()

	logger.Debug().
		Str(SourceRawMetrics, string(ac.Metrics.Status)).
		Str(SourceInsights, string(ac.Insights.Status)).
		Str(SourceHighlights, string(ac.Highlights.Status)).
		Str(SourceExternal, string(ac.External.Status)).
		Str(SourceKnowledge, string(ac.Knowledge.Status)).
		Dur("took", time.Since(now)).
		Msg("context assembled")

	return ac
}

func (a *Assembler) loadMetrics(ctx context.Context, userID string, now time.Time) (core.RawMetricSnapshot, bool, error) {
	snap := core.RawMetricSnapshot{
		UserID:     userID,
		WindowDays: a.cfg.WindowDays,
		From:       now.AddDate(0, 0, -a.cfg.WindowDays),
		To:         now,
	}
	if a.sources.Metrics == nil {
		return snap, true, nil
	}

	records, err := a.sources.Metrics.GetMetrics(ctx, userID, snap.From, snap.To)
	if err != nil {
		return snap, false, err
	}
	for _, r := range records {
		switch r.Kind {
		case core.MetricSteps:
			snap.Steps = append(snap.Steps, r.MetricSample)
		case core.MetricHeartRate:
			snap.HeartRate = append(snap.HeartRate, r.MetricSample)
		case core.MetricSleepHours:
			snap.SleepHours = append(snap.SleepHours, r.MetricSample)
		}
	}
	return snap, snap.IsEmpty(), nil
}

func (a *Assembler) loadInsights(ctx context.Context, userID string, now time.Time) ([]core.InsightGroup, bool, error) {
	if a.sources.Insights == nil {
		return nil, true, nil
	}
	insights, err := a.sources.Insights.GetInsights(ctx, userID, now)
	if err != nil {
		return nil, false, err
	}
	groups := groupInsights(insights, a.cfg.InsightsPerCategory, now)
	return groups, len(groups) == 0, nil
}

func (a *Assembler) loadHighlights(ctx context.Context, userID string, now time.Time) ([]core.HighlightBucket, bool, error) {
	if a.sources.Highlights == nil {
		return nil, true, nil
	}
	highlights, err := a.sources.Highlights.GetHighlights(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	buckets := partitionHighlights(highlights, now, a.cfg.DecayThreshold)
	return buckets, len(buckets) == 0, nil
}

// loadExternal fails only when every configured provider failed; a single
// working provider is enough for a usable view.
func (a *Assembler) loadExternal(ctx context.Context, profile *core.UserProfile) (core.ExternalView, bool, error) {
	snap := core.ExternalContextSnapshot{Signals: make(map[string]any)}

	var (
		attempted int
		errs      []error
	)

	if a.sources.Weather != nil && profile != nil && profile.Location != "" {
		attempted++
		w, err := a.sources.Weather.GetWeather(ctx, profile.Location)
		if err != nil {
			errs = append(errs, fmt.Errorf("weather: %w", err))
		} else {
			snap.Weather = w
		}
	}

	for _, p := range a.sources.Signals {
		attempted++
		signals, err := p.Signals(ctx, profile)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		for k, v := range signals {
			snap.Signals[k] = v
		}
	}

	if attempted > 0 && len(errs) == attempted {
		return core.ExternalView{}, false, errors.Join(errs...)
	}
	for _, err := range errs {
		log.FromCtx(ctx).Debug().Err(err).Msg("external provider skipped")
	}

	view := buildExternalView(snap)
	return view, view.IsEmpty(), nil
}

func (a *Assembler) loadKnowledge(ctx context.Context, query string, profile *core.UserProfile) ([]core.KnowledgeEntry, bool, error) {
	if a.sources.Knowledge == nil {
		return nil, true, nil
	}
	entries, err := a.sources.Knowledge.ListKnowledge(ctx)
	if err != nil {
		return nil, false, err
	}
	selected := selectKnowledge(entries, query, profile, a.cfg.KnowledgeLimit)
	return selected, len(selected) == 0, nil
}
