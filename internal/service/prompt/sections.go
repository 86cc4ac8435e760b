package prompt

import (
	"fmt"
	"math"
	"strings"

	"github.com/sandevgo/vitalbot/internal/core"
)

const defaultAssistantName = "Vital"

const (
	HeaderBaseCharacter = "ASSISTANT CHARACTER:"
	HeaderHealthData    = "CURRENT HEALTH DATA:"
	HeaderInsights      = "RECENT INSIGHTS:"
	HeaderUserContext   = "USER CONTEXT:"
	HeaderExternal      = "EXTERNAL CONTEXT:"
	HeaderKnowledge     = "HEALTH KNOWLEDGE:"
	HeaderGuidelines    = "CONVERSATION GUIDELINES:"
)

const (
	PlaceholderHealthData  = "No recent health data available."
	PlaceholderInsights    = "No recent insights available."
	PlaceholderUserContext = "No previous conversation context available."
	PlaceholderExternal    = "No external context available."
	PlaceholderKnowledge   = "No reference knowledge available."
)

var styleClauses = map[core.CommunicationStyle]string{
	core.StyleEncouraging: "Be warm and encouraging. Celebrate progress, however small, and treat setbacks as something to learn from.",
	core.StyleAnalytical:  "Be precise and analytical. Lead with the numbers, explain the trends behind them and say how confident each observation is.",
	core.StyleCasual:      "Keep it relaxed and conversational, like a friend who happens to know a lot about health.",
	core.StyleDefault:     "Be friendly, clear and supportive, and match the user's tone.",
}

// resolveStyle lets an explicit configuration win over the profile preference.
func resolveStyle(cfg BehaviorConfig, profile *core.UserProfile) core.CommunicationStyle {
	if cfg.Style != "" && cfg.Style != core.StyleDefault && cfg.Style.Valid() {
		return cfg.Style
	}
	if profile != nil {
		if s := core.CommunicationStyle(profile.Preferences.CommunicationStyle); s.Valid() {
			return s
		}
	}
	return core.StyleDefault
}

func baseCharacter(_ *renderer, ac core.AssembledContext, cfg BehaviorConfig) string {
	var sb strings.Builder
	sb.WriteString(HeaderBaseCharacter + "\n")
	fmt.Fprintf(&sb, "You are %s, a personal health companion. You help the user understand their activity, sleep and heart data and build healthier habits.\n", cfg.AssistantName)
	sb.WriteString(styleClauses[resolveStyle(cfg, ac.Profile)] + "\n")

	if p := ac.Profile; p != nil {
		var about []string
		if p.Name != "" {
			about = append(about, "name: "+p.Name)
		}
		if p.Age > 0 {
			about = append(about, fmt.Sprintf("age: %d", p.Age))
		}
		if p.Location != "" {
			about = append(about, "location: "+p.Location)
		}
		if len(p.Goals) > 0 {
			goals := make([]string, len(p.Goals))
			for i, g := range p.Goals {
				goals[i] = strings.ReplaceAll(g, "_", " ")
			}
			about = append(about, "goals: "+strings.Join(goals, ", "))
		}
		if len(about) > 0 {
			sb.WriteString("About the user: " + strings.Join(about, "; ") + ".\n")
		}
	}
	return sb.String()
}

type seriesStats struct {
	avg, min, max, latest float64
	n                     int
}

func stats(samples []core.MetricSample) (seriesStats, bool) {
	if len(samples) == 0 {
		return seriesStats{}, false
	}
	s := seriesStats{min: math.Inf(1), max: math.Inf(-1), n: len(samples)}
	var sum float64
	latest := samples[0]
	for _, sm := range samples {
		sum += sm.Value
		s.min = math.Min(s.min, sm.Value)
		s.max = math.Max(s.max, sm.Value)
		if !sm.At.Before(latest.At) {
			latest = sm
		}
	}
	s.avg = sum / float64(len(samples))
	s.latest = latest.Value
	return s, true
}

func healthData(r *renderer, ac core.AssembledContext, _ BehaviorConfig) string {
	if !ac.Metrics.Ready() {
		return HeaderHealthData + "\n" + PlaceholderHealthData
	}
	snap := ac.Metrics.Data

	var lines []string
	if s, ok := stats(snap.Steps); ok {
		lines = append(lines, r.numbers.Sprintf("- Steps: average %d per day over %d days (latest %d)",
			int64(math.Round(s.avg)), s.n, int64(math.Round(s.latest))))
	}
	if s, ok := stats(snap.SleepHours); ok {
		lines = append(lines, fmt.Sprintf("- Sleep: average %.1f hours per night over %d nights (range %.1f-%.1f)",
			s.avg, s.n, s.min, s.max))
	}
	if s, ok := stats(snap.HeartRate); ok {
		lines = append(lines, fmt.Sprintf("- Heart rate: average %.0f bpm (range %.0f-%.0f)", s.avg, s.min, s.max))
	}
	if len(lines) == 0 {
		return HeaderHealthData + "\n" + PlaceholderHealthData
	}

	window := fmt.Sprintf("Window: last %d days", snap.WindowDays)
	return HeaderHealthData + "\n" + window + "\n" + strings.Join(lines, "\n")
}

// FormatInsight renders one insight line body.
func FormatInsight(in core.Insight) string {
	pct := int(math.Round(core.ClampConfidence(in.Confidence) * 100))
	return fmt.Sprintf("%s (confidence: %d%%, timeframe: %s)", in.Finding, pct, in.Timeframe)
}

func insights(_ *renderer, ac core.AssembledContext, _ BehaviorConfig) string {
	if !ac.Insights.Ready() || len(ac.Insights.Data) == 0 {
		return HeaderInsights + "\n" + PlaceholderInsights
	}

	var sb strings.Builder
	sb.WriteString(HeaderInsights + "\n")
	for _, g := range ac.Insights.Data {
		if len(g.Items) == 0 {
			continue
		}
		sb.WriteString(g.Label + ":\n")
		for _, in := range g.Items {
			sb.WriteString("- " + FormatInsight(in) + "\n")
		}
	}
	return sb.String()
}

func userContext(_ *renderer, ac core.AssembledContext, _ BehaviorConfig) string {
	if !ac.Highlights.Ready() || len(ac.Highlights.Data) == 0 {
		return HeaderUserContext + "\n" + PlaceholderUserContext
	}

	var sb strings.Builder
	sb.WriteString(HeaderUserContext + "\n")
	for _, b := range ac.Highlights.Data {
		if len(b.Entries) == 0 {
			continue
		}
		sb.WriteString(b.Bucket.Title() + ":\n")
		for _, e := range b.Entries {
			if e.Compacted {
				sb.WriteString("- " + e.Text + "\n")
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n", e.Field.Label(), e.Text)
		}
	}
	return sb.String()
}

func externalContext(_ *renderer, ac core.AssembledContext, _ BehaviorConfig) string {
	if !ac.External.Ready() || ac.External.Data.IsEmpty() {
		return HeaderExternal + "\n" + PlaceholderExternal
	}

	view := ac.External.Data
	var sb strings.Builder
	sb.WriteString(HeaderExternal + "\n")
	if view.Weather != "" {
		sb.WriteString("- Weather: " + view.Weather + "\n")
	}
	for _, s := range view.Signals {
		fmt.Fprintf(&sb, "- %s: %s\n", s.Label, s.Value)
	}
	return sb.String()
}

func knowledge(_ *renderer, ac core.AssembledContext, _ BehaviorConfig) string {
	if !ac.Knowledge.Ready() || len(ac.Knowledge.Data) == 0 {
		return HeaderKnowledge + "\n" + PlaceholderKnowledge
	}

	var sb strings.Builder
	sb.WriteString(HeaderKnowledge + "\n")
	for _, e := range ac.Knowledge.Data {
		title := e.Title
		if title == "" {
			title = strings.ReplaceAll(e.Topic, "_", " ")
		}
		if e.Source != "" {
			title += " (" + e.Source + ")"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", title, strings.Join(strings.Fields(e.Content), " "))
	}
	return sb.String()
}

var baseGuidelines = []string{
	"Ground statements about the user's health in the data above and say so when data is missing.",
	"You are not a doctor. Suggest seeing a professional for symptoms, diagnoses or treatment questions.",
	"Keep answers focused and end with at most one follow-up question.",
}

func guidelines(_ *renderer, ac core.AssembledContext, _ BehaviorConfig) string {
	lines := append([]string(nil), baseGuidelines...)

	if ac.HasHighlight(core.FieldAllergies) {
		lines = append(lines, "The user has allergies on record. Check food, outdoor and product suggestions against them.")
	}
	if ac.HasHighlight(core.FieldWorkSchedule) {
		lines = append(lines, "Fit suggestions around the user's work schedule.")
	}
	if ac.HasHighlight(core.FieldStressSources) {
		lines = append(lines, "The user has mentioned sources of stress. Acknowledge them and prefer low-pressure suggestions.")
	}
	if ac.HasHighlight(core.FieldHealthConcerns) || ac.HasHighlight(core.FieldMedications) {
		lines = append(lines, "Never advise changing medication or treatment. Refer those questions to the user's doctor.")
	}

	var sb strings.Builder
	sb.WriteString(HeaderGuidelines + "\n")
	for _, l := range lines {
		sb.WriteString("- " + l + "\n")
	}
	return sb.String()
}
