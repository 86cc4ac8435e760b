package seed

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
	"gopkg.in/yaml.v3"
)

//go:embed users.yaml
var usersYAML []byte

type UserStore interface {
	UpsertUser(ctx context.Context, user core.UserProfile) error
}

type MetricStore interface {
	AddMetrics(ctx context.Context, records []core.MetricRecord) error
}

// DemoUsers returns the built-in demo profiles.
func DemoUsers() ([]core.UserProfile, error) {
	var doc struct {
		Users []core.UserProfile `yaml:"users"`
	}
	if err := yaml.Unmarshal(usersYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode demo users: %w", err)
	}
	return doc.Users, nil
}

// baseline is the per-user centre the generated series wander around.
type baseline struct {
	steps     float64
	restingHR float64
	sleep     float64
}

// GenerateMetrics produces days of daily steps, resting heart rate and sleep
// for userID ending at now. The same seed yields the same series.
func GenerateMetrics(userID string, days int, now time.Time, seed int64) []core.MetricRecord {
	rnd := rand.New(rand.NewSource(seed))
	b := baseline{
		steps:     6000 + float64(rnd.Intn(6000)),
		restingHR: 55 + float64(rnd.Intn(20)),
		sleep:     6.5 + rnd.Float64()*2,
	}

	day := now.UTC().Truncate(24 * time.Hour)
	out := make([]core.MetricRecord, 0, days*3)
	for i := 0; i < days; i++ {
		d := day.AddDate(0, 0, -i)

		steps := b.steps * (0.8 + rnd.Float64()*0.5)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			steps = b.steps * (0.7 + rnd.Float64()*0.5)
		}
		hr := math.Max(45, b.restingHR+rnd.Float64()*10-5)
		sleep := math.Max(4, b.sleep+rnd.Float64()*3-1.5)

		out = append(out,
			record(userID, core.MetricSteps, d.Add(23*time.Hour+59*time.Minute), math.Round(steps)),
			record(userID, core.MetricHeartRate, d.Add(8*time.Hour), math.Round(hr)),
			record(userID, core.MetricSleepHours, d.Add(7*time.Hour), math.Round(sleep*10)/10),
		)
	}
	return out
}

func record(userID string, kind core.MetricKind, at time.Time, v float64) core.MetricRecord {
	return core.MetricRecord{UserID: userID, Kind: kind, MetricSample: core.MetricSample{At: at, Value: v}}
}

type Seeder struct {
	users   UserStore
	metrics MetricStore
	now     func() time.Time

	Days int
	Seed int64
}

func NewSeeder(users UserStore, metrics MetricStore) *Seeder {
	return &Seeder{users: users, metrics: metrics, now: time.Now, Days: 30, Seed: 42}
}

// Run stores the demo users and their metric history. It returns the ids seeded.
func (s *Seeder) Run(ctx context.Context) ([]string, error) {
	logger := log.FromCtx(ctx)

	users, err := DemoUsers()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(users))
	for i, u := range users {
		if err := s.users.UpsertUser(ctx, u); err != nil {
			return ids, fmt.Errorf("store user %s: %w", u.ID, err)
		}
		records := GenerateMetrics(u.ID, s.Days, s.now(), s.Seed+int64(i))
		if err := s.metrics.AddMetrics(ctx, records); err != nil {
			return ids, fmt.Errorf("store metrics for %s: %w", u.ID, err)
		}
		logger.Info().Str("user", u.ID).Int("records", len(records)).Msg("demo user seeded")
		ids = append(ids, u.ID)
	}
	return ids, nil
}
