package insights

import (
	"testing"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNow is a Saturday.
var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// daily builds one record per day, i days before testNow.
func daily(kind core.MetricKind, values ...float64) []core.MetricRecord {
	out := make([]core.MetricRecord, len(values))
	for i, v := range values {
		out[i] = core.MetricRecord{
			UserID:       "u1",
			Kind:         kind,
			MetricSample: core.MetricSample{At: testNow.AddDate(0, 0, -i), Value: v},
		}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func byCategory(ins []core.Insight, category string) []core.Insight {
	var out []core.Insight
	for _, in := range ins {
		if in.Category == category {
			out = append(out, in)
		}
	}
	return out
}

var profile = core.UserProfile{ID: "u1"}

func TestAnalyze_NoData(t *testing.T) {
	assert.Empty(t, Analyze(profile, nil, testNow))
}

func TestAnalyze_StepTrend(t *testing.T) {
	values := append(repeat(12000, 14), repeat(10000, 14)...)
	got := Analyze(profile, daily(core.MetricSteps, values...), testNow)

	trends := byCategory(got, CategoryTrend)
	require.Len(t, trends, 1)
	assert.Equal(t, "Your average daily steps have increased by 20% over the past two weeks", trends[0].Finding)
	assert.InDelta(t, 0.8, trends[0].Confidence, 1e-9)
	assert.Equal(t, core.TimeframeRecentTrend, trends[0].Timeframe)
	assert.Equal(t, testNow, trends[0].ObservedAt)
	assert.Equal(t, "u1", trends[0].UserID)

	assert.Empty(t, byCategory(got, CategoryPattern))
	assert.Empty(t, byCategory(got, CategoryAnomaly))
}

func TestAnalyze_WeekdayPattern(t *testing.T) {
	values := make([]float64, 21)
	for i := range values {
		if isWeekend(testNow.AddDate(0, 0, -i)) {
			values[i] = 5000
		} else {
			values[i] = 10000
		}
	}
	got := Analyze(profile, daily(core.MetricSteps, values...), testNow)

	patterns := byCategory(got, CategoryPattern)
	require.Len(t, patterns, 1)
	assert.Equal(t, "You're consistently more active on weekdays, with a 100% difference in average steps", patterns[0].Finding)
	assert.Equal(t, 0.8, patterns[0].Confidence)
	assert.Empty(t, byCategory(got, CategoryTrend))
}

func TestAnalyze_Sleep(t *testing.T) {
	t.Run("short and consistent", func(t *testing.T) {
		got := Analyze(profile, daily(core.MetricSleepHours, repeat(6, 14)...), testNow)

		concerns := byCategory(got, CategoryHealthConcern)
		require.Len(t, concerns, 1)
		assert.Equal(t, "Your average sleep of 6.0 hours is below the recommended 7-9 hours", concerns[0].Finding)
		assert.Equal(t, 0.9, concerns[0].Confidence)
		assert.Len(t, byCategory(got, CategoryPositivePattern), 1)
	})

	t.Run("long", func(t *testing.T) {
		got := Analyze(profile, daily(core.MetricSleepHours, repeat(9.5, 10)...), testNow)
		assert.Len(t, byCategory(got, CategoryObservation), 1)
	})

	t.Run("irregular", func(t *testing.T) {
		values := make([]float64, 14)
		for i := range values {
			values[i] = 5
			if i%2 == 0 {
				values[i] = 9
			}
		}
		got := Analyze(profile, daily(core.MetricSleepHours, values...), testNow)

		assert.Len(t, byCategory(got, CategoryImprovementOpportunity), 1)
		assert.Empty(t, byCategory(got, CategoryHealthConcern))
		assert.Empty(t, byCategory(got, CategoryPositivePattern))
	})

	t.Run("too few nights", func(t *testing.T) {
		got := Analyze(profile, daily(core.MetricSleepHours, repeat(5, 6)...), testNow)
		assert.Empty(t, got)
	})
}

func TestAnalyze_HeartRateTrend(t *testing.T) {
	values := append(repeat(60, 14), repeat(66, 14)...)
	got := Analyze(profile, daily(core.MetricHeartRate, values...), testNow)

	trends := byCategory(got, CategoryTrend)
	require.Len(t, trends, 1)
	assert.Equal(t, "Your resting heart rate has decreased by 6.0 bpm, suggesting improved cardiovascular fitness", trends[0].Finding)
}

func TestAnalyze_GoalProgress(t *testing.T) {
	p := core.UserProfile{ID: "u1", Goals: []string{GoalDailySteps, GoalBetterSleep}}

	records := daily(core.MetricSteps, 12000, 9000, 11000, 10000, 8000, 10500, 7000)
	records = append(records, daily(core.MetricSleepHours, append(repeat(7.5, 10), repeat(6, 4)...)...)...)

	got := byCategory(Analyze(p, records, testNow), CategoryGoalProgress)
	require.Len(t, got, 2)
	assert.Equal(t, "You hit your 10k steps goal 4 out of 7 days this week (57%)", got[0].Finding)
	assert.Equal(t, 0.95, got[0].Confidence)
	assert.Equal(t, "You're averaging 7.1 hours of sleep, with 10 nights in the optimal 7-9 hour range", got[1].Finding)

	assert.Empty(t, byCategory(Analyze(profile, records, testNow), CategoryGoalProgress))
}

func TestAnalyze_Correlation(t *testing.T) {
	steps := make([]float64, 12)
	sleep := make([]float64, 12)
	for i := range steps {
		steps[i] = 8000 + 1000*float64(i)
		sleep[i] = 6 + 0.2*float64(i)
	}
	records := append(daily(core.MetricSteps, steps...), daily(core.MetricSleepHours, sleep...)...)

	got := byCategory(Analyze(profile, records, testNow), CategoryCorrelation)
	require.Len(t, got, 1)
	assert.Equal(t, "You tend to sleep longer on days with higher step counts (correlation 1.00 over 12 days)", got[0].Finding)
	assert.Equal(t, core.TimeframeLongTermPattern, got[0].Timeframe)
}

func TestAnalyze_Anomaly(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		switch {
		case i == 0:
			values[i] = 20000
		case i < 3:
			values[i] = 10000
		case i%2 == 1:
			values[i] = 9000
		default:
			values[i] = 11000
		}
	}
	got := byCategory(Analyze(profile, daily(core.MetricSteps, values...), testNow), CategoryAnomaly)

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Finding, "Your step count was unusually high today (20000.0 vs typical")
	assert.Equal(t, 0.9, got[0].Confidence)
	assert.Equal(t, core.TimeframeSpike, got[0].Timeframe)
	assert.Equal(t, testNow, got[0].ObservedAt)
}

func TestStats(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 2.0, mean([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, stdev([]float64{4}))
	assert.InDelta(t, 1.0, stdev([]float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, -1.0, pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
	assert.Equal(t, 0.0, pearson([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Equal(t, "yesterday", agoPhrase(1))
	assert.Equal(t, "4 days ago", agoPhrase(4))
}
