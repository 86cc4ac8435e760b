package weather

import (
	"context"
	"strings"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
)

const (
	SignalTimeOfDay    = "time_of_day"
	SignalWeekend      = "is_weekend"
	SignalSeason       = "season"
	SignalActivityHint = "activity_hint"
)

// Signals derives calendar signals and an outdoor activity hint for the user.
type Signals struct {
	weather core.WeatherProvider
	loc     *time.Location
	now     func() time.Time
}

// NewSignals takes an optional weather provider for the activity hint.
func NewSignals(weather core.WeatherProvider) *Signals {
	return &Signals{weather: weather, loc: time.Local, now: time.Now}
}

func (s *Signals) WithClock(now func() time.Time, loc *time.Location) *Signals {
	s.now = now
	s.loc = loc
	return s
}

func (s *Signals) Name() string { return "signals" }

func (s *Signals) Signals(ctx context.Context, profile *core.UserProfile) (map[string]any, error) {
	now := s.now().In(s.loc)
	out := map[string]any{
		SignalTimeOfDay: TimeOfDay(now),
		SignalWeekend:   now.Weekday() == time.Saturday || now.Weekday() == time.Sunday,
		SignalSeason:    Season(now),
	}

	if s.weather != nil && profile != nil && profile.Location != "" {
		if w, err := s.weather.GetWeather(ctx, profile.Location); err == nil {
			if hint := ActivityHint(w); hint != "" {
				out[SignalActivityHint] = hint
			}
		}
	}
	return out, nil
}

func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 22:
		return "evening"
	}
	return "night"
}

// Season assumes the northern hemisphere.
func Season(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	}
	return "autumn"
}

var indoorConditions = []string{"rain", "drizzle", "snow", "thunder", "storm", "sleet", "hail", "smoke", "dust"}

func ActivityHint(w *core.WeatherRecord) string {
	if w.IsEmpty() {
		return ""
	}
	switch w.AirQuality {
	case "poor", "very poor":
		return "indoor activities recommended"
	}
	cond := strings.ToLower(w.Condition)
	for _, c := range indoorConditions {
		if strings.Contains(cond, c) {
			return "indoor activities recommended"
		}
	}
	if w.Temperature != nil {
		switch t := *w.Temperature; {
		case t >= 30:
			return "stay hydrated and avoid midday heat"
		case t <= 0:
			return "dress warmly for outdoor activity"
		}
	}
	return "good conditions for outdoor activity"
}
