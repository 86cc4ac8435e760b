package insights

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
)

const (
	CategoryTrend                  = "trend"
	CategoryPattern                = "pattern"
	CategoryHealthConcern          = "health_concern"
	CategoryObservation            = "observation"
	CategoryPositivePattern        = "positive_pattern"
	CategoryImprovementOpportunity = "improvement_opportunity"
	CategoryGoalProgress           = "goal_progress"
	CategoryCorrelation            = "correlation"
	CategoryAnomaly                = "anomaly"
)

const (
	GoalDailySteps  = "10k_steps_daily"
	GoalBetterSleep = "better_sleep"
)

const day = 24 * time.Hour

// Analyze derives insights from a user's metric history. It is pure: the
// caller stamps ids and expiry.
func Analyze(profile core.UserProfile, records []core.MetricRecord, now time.Time) []core.Insight {
	byKind := map[core.MetricKind][]core.MetricSample{}
	for _, r := range records {
		byKind[r.Kind] = append(byKind[r.Kind], r.MetricSample)
	}
	steps := newSeries(byKind[core.MetricSteps])
	sleep := newSeries(byKind[core.MetricSleepHours])
	heart := newSeries(byKind[core.MetricHeartRate])

	var out []core.Insight
	out = append(out, stepTrends(steps)...)
	out = append(out, sleepPatterns(sleep)...)
	out = append(out, heartRateTrend(heart)...)
	out = append(out, goalProgress(profile.Goals, steps, sleep, now)...)
	out = append(out, correlations(steps, sleep)...)
	out = append(out, anomalies(now, map[core.MetricKind]series{
		core.MetricSteps:      steps,
		core.MetricSleepHours: sleep,
		core.MetricHeartRate:  heart,
	})...)

	for i := range out {
		out[i].UserID = profile.ID
		out[i].Confidence = core.ClampConfidence(out[i].Confidence)
	}
	return out
}

func stepTrends(steps series) []core.Insight {
	if len(steps) < 7 {
		return nil
	}
	var out []core.Insight

	recent, older := steps.window(0, 14), steps.window(14, 28)
	if len(recent) >= 7 && len(older) >= 7 {
		recentAvg, olderAvg := mean(recent.values()), mean(older.values())
		if olderAvg > 0 {
			change := (recentAvg - olderAvg) / olderAvg * 100
			if math.Abs(change) > 10 {
				direction := "increased"
				if change < 0 {
					direction = "decreased"
				}
				out = append(out, core.Insight{
					Category:   CategoryTrend,
					Finding:    fmt.Sprintf("Your average daily steps have %s by %.0f%% over the past two weeks", direction, math.Abs(change)),
					Confidence: math.Min(0.95, math.Abs(change)/100+0.6),
					Timeframe:  core.TimeframeRecentTrend,
					ObservedAt: steps.latest(),
				})
			}
		}
	}

	var weekday, weekend []float64
	for _, s := range steps.window(0, 21) {
		if isWeekend(s.At) {
			weekend = append(weekend, s.Value)
		} else {
			weekday = append(weekday, s.Value)
		}
	}
	if len(weekday) >= 5 && len(weekend) >= 2 {
		wdAvg, weAvg := mean(weekday), mean(weekend)
		if weAvg > 0 {
			diff := (wdAvg - weAvg) / weAvg * 100
			if math.Abs(diff) > 20 {
				when := "weekdays"
				if diff < 0 {
					when = "weekends"
				}
				out = append(out, core.Insight{
					Category:   CategoryPattern,
					Finding:    fmt.Sprintf("You're consistently more active on %s, with a %.0f%% difference in average steps", when, math.Abs(diff)),
					Confidence: 0.8,
					Timeframe:  core.TimeframeRecentTrend,
					ObservedAt: steps.latest(),
				})
			}
		}
	}
	return out
}

func sleepPatterns(sleep series) []core.Insight {
	if len(sleep) < 7 {
		return nil
	}
	var out []core.Insight

	values := sleep.window(0, 14).values()
	avg := mean(values)
	switch {
	case avg < 6.5:
		out = append(out, core.Insight{
			Category:   CategoryHealthConcern,
			Finding:    fmt.Sprintf("Your average sleep of %.1f hours is below the recommended 7-9 hours", avg),
			Confidence: 0.9,
			Timeframe:  core.TimeframeRecentTrend,
			ObservedAt: sleep.latest(),
		})
	case avg > 9:
		out = append(out, core.Insight{
			Category:   CategoryObservation,
			Finding:    fmt.Sprintf("You're getting %.1f hours of sleep on average, which is above typical recommendations", avg),
			Confidence: 0.8,
			Timeframe:  core.TimeframeRecentTrend,
			ObservedAt: sleep.latest(),
		})
	}

	sd := stdev(values)
	switch {
	case sd < 0.5:
		out = append(out, core.Insight{
			Category:   CategoryPositivePattern,
			Finding:    "Your sleep schedule is very consistent, which is great for your circadian rhythm",
			Confidence: 0.85,
			Timeframe:  core.TimeframeRecentTrend,
			ObservedAt: sleep.latest(),
		})
	case sd > 1.5:
		out = append(out, core.Insight{
			Category:   CategoryImprovementOpportunity,
			Finding:    "Your sleep duration varies a lot from night to night. A more consistent bedtime may help",
			Confidence: 0.75,
			Timeframe:  core.TimeframeRecentTrend,
			ObservedAt: sleep.latest(),
		})
	}
	return out
}

func heartRateTrend(heart series) []core.Insight {
	if len(heart) < 10 {
		return nil
	}
	recent, older := heart.window(0, 14), heart.window(14, 28)
	if len(recent) < 7 || len(older) < 7 {
		return nil
	}
	change := mean(recent.values()) - mean(older.values())
	if math.Abs(change) <= 3 {
		return nil
	}

	direction, meaning := "increased", "check whether you're getting enough rest"
	if change < 0 {
		direction, meaning = "decreased", "improved cardiovascular fitness"
	}
	return []core.Insight{{
		Category:   CategoryTrend,
		Finding:    fmt.Sprintf("Your resting heart rate has %s by %.1f bpm, suggesting %s", direction, math.Abs(change), meaning),
		Confidence: 0.8,
		Timeframe:  core.TimeframeRecentTrend,
		ObservedAt: heart.latest(),
	}}
}

func goalProgress(goals []string, steps, sleep series, now time.Time) []core.Insight {
	var out []core.Insight

	if slices.Contains(goals, GoalDailySteps) {
		week := steps.since(now.Add(-7 * day))
		if len(week) >= 5 {
			hit := 0
			for _, s := range week {
				if s.Value >= 10000 {
					hit++
				}
			}
			out = append(out, core.Insight{
				Category:   CategoryGoalProgress,
				Finding:    fmt.Sprintf("You hit your 10k steps goal %d out of %d days this week (%.0f%%)", hit, len(week), float64(hit)/float64(len(week))*100),
				Confidence: 0.95,
				Timeframe:  core.TimeframeRecentTrend,
				ObservedAt: week.latest(),
			})
		}
	}

	if slices.Contains(goals, GoalBetterSleep) {
		recent := sleep.since(now.Add(-14 * day))
		if len(recent) > 0 {
			good := 0
			for _, s := range recent {
				if s.Value >= 7 && s.Value <= 9 {
					good++
				}
			}
			out = append(out, core.Insight{
				Category:   CategoryGoalProgress,
				Finding:    fmt.Sprintf("You're averaging %.1f hours of sleep, with %d nights in the optimal 7-9 hour range", mean(recent.values()), good),
				Confidence: 0.9,
				Timeframe:  core.TimeframeRecentTrend,
				ObservedAt: recent.latest(),
			})
		}
	}
	return out
}

func correlations(steps, sleep series) []core.Insight {
	sleepByDay := make(map[string]float64, len(sleep))
	for _, s := range sleep {
		sleepByDay[dayKey(s.At)] = s.Value
	}

	var xs, ys []float64
	var latest time.Time
	for _, s := range steps {
		v, ok := sleepByDay[dayKey(s.At)]
		if !ok {
			continue
		}
		xs = append(xs, s.Value)
		ys = append(ys, v)
		if s.At.After(latest) {
			latest = s.At
		}
	}
	if len(xs) < 10 {
		return nil
	}

	r := pearson(xs, ys)
	if math.Abs(r) <= 0.3 {
		return nil
	}
	longer := "longer"
	if r < 0 {
		longer = "less"
	}
	return []core.Insight{{
		Category:   CategoryCorrelation,
		Finding:    fmt.Sprintf("You tend to sleep %s on days with higher step counts (correlation %.2f over %d days)", longer, r, len(xs)),
		Confidence: 0.7,
		Timeframe:  core.TimeframeLongTermPattern,
		ObservedAt: latest,
	}}
}

var metricNames = map[core.MetricKind]string{
	core.MetricSteps:      "step count",
	core.MetricSleepHours: "sleep duration",
	core.MetricHeartRate:  "heart rate",
}

func anomalies(now time.Time, all map[core.MetricKind]series) []core.Insight {
	kinds := make([]core.MetricKind, 0, len(all))
	for k := range all {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	var out []core.Insight
	for _, kind := range kinds {
		s := all[kind]
		baseline := s.window(7, len(s))
		if len(s) < 10 || len(baseline) < 10 {
			continue
		}
		bm, bsd := mean(baseline.values()), stdev(baseline.values())
		if bsd == 0 {
			continue
		}

		for _, sm := range s.window(0, 3) {
			z := math.Abs(sm.Value-bm) / bsd
			if z <= 2 {
				continue
			}
			direction := "unusually high"
			if sm.Value < bm {
				direction = "unusually low"
			}
			daysAgo := int(now.Sub(sm.At) / day)
			out = append(out, core.Insight{
				Category:   CategoryAnomaly,
				Finding:    fmt.Sprintf("Your %s was %s %s (%.1f vs typical %.1f)", metricNames[kind], direction, agoPhrase(daysAgo), sm.Value, bm),
				Confidence: math.Min(0.9, z/3),
				Timeframe:  core.TimeframeSpike,
				ObservedAt: sm.At,
			})
		}
	}
	return out
}

func agoPhrase(days int) string {
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	}
	return fmt.Sprintf("%d days ago", days)
}
