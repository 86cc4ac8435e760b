package core

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type MetricKind string

const (
	MetricSteps      MetricKind = "steps"
	MetricHeartRate  MetricKind = "heart_rate"
	MetricSleepHours MetricKind = "sleep_hours"
)

type MetricSample struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// MetricRecord is one persisted point of the health_metrics series.
type MetricRecord struct {
	UserID string
	Kind   MetricKind
	MetricSample
}

type RawMetricSnapshot struct {
	UserID     string         `json:"user_id"`
	WindowDays int            `json:"window_days"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Steps      []MetricSample `json:"steps,omitempty"`
	HeartRate  []MetricSample `json:"heart_rate,omitempty"`
	SleepHours []MetricSample `json:"sleep_hours,omitempty"`
}

func (s RawMetricSnapshot) IsEmpty() bool {
	return len(s.Steps) == 0 && len(s.HeartRate) == 0 && len(s.SleepHours) == 0
}

// Series returns the samples of one metric kind.
func (s RawMetricSnapshot) Series(kind MetricKind) []MetricSample {
	switch kind {
	case MetricSteps:
		return s.Steps
	case MetricHeartRate:
		return s.HeartRate
	case MetricSleepHours:
		return s.SleepHours
	}
	return nil
}

// Timeframe is ordered: a wider timeframe compares greater.
type Timeframe int

const (
	TimeframeSpike Timeframe = iota
	TimeframeRecentTrend
	TimeframeLongTermPattern
)

const (
	recentTrendAge     = 7 * 24 * time.Hour
	longTermPatternAge = 30 * 24 * time.Hour
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeRecentTrend:
		return "recent trend"
	case TimeframeLongTermPattern:
		return "long-term pattern"
	default:
		return "single-day spike"
	}
}

func ParseTimeframe(s string) Timeframe {
	switch s {
	case "recent trend", "recent_trend":
		return TimeframeRecentTrend
	case "long-term pattern", "long_term_pattern":
		return TimeframeLongTermPattern
	default:
		return TimeframeSpike
	}
}

// Widen returns the timeframe an observation of the given age deserves.
// The result is never narrower than t.
func (t Timeframe) Widen(age time.Duration) Timeframe {
	target := TimeframeSpike
	switch {
	case age >= longTermPatternAge:
		target = TimeframeLongTermPattern
	case age >= recentTrendAge:
		target = TimeframeRecentTrend
	}
	if target > t {
		return target
	}
	return t
}

type Insight struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Category    string    `json:"category"`
	Finding     string    `json:"finding"`
	Confidence  float64   `json:"confidence"`
	Timeframe   Timeframe `json:"timeframe"`
	ObservedAt  time.Time `json:"observed_at"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ClampConfidence keeps a confidence score inside [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
