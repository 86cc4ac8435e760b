package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// HumanizeKey turns a raw key such as "sleep_quality" into "Sleep Quality".
func HumanizeKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	return titleCaser.String(strings.Join(words, " "))
}

// groupInsights buckets insights by category and keeps the top perCategory
// of each, highest confidence first with the newest winning ties.
// Timeframes are widened by the age of the underlying observation.
func groupInsights(insights []core.Insight, perCategory int, now time.Time) []core.InsightGroup {
	byCategory := make(map[string][]core.Insight)
	for _, in := range insights {
		in.Confidence = core.ClampConfidence(in.Confidence)
		if !in.ObservedAt.IsZero() {
			in.Timeframe = in.Timeframe.Widen(now.Sub(in.ObservedAt))
		}
		byCategory[in.Category] = append(byCategory[in.Category], in)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	groups := make([]core.InsightGroup, 0, len(categories))
	for _, c := range categories {
		items := byCategory[c]
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Confidence != items[j].Confidence {
				return items[i].Confidence > items[j].Confidence
			}
			return items[i].GeneratedAt.After(items[j].GeneratedAt)
		})
		if len(items) > perCategory {
			items = items[:perCategory]
		}
		groups = append(groups, core.InsightGroup{
			Category: c,
			Label:    HumanizeKey(c),
			Items:    items,
		})
	}
	return groups
}
