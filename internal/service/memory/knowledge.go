package memory

import (
	"regexp"
	"strings"

	"github.com/sandevgo/vitalbot/internal/core"
)

// selectKnowledge puts entries relevant to the query or the profile goals
// first and fills up to limit with the rest in stored order.
func selectKnowledge(entries []core.KnowledgeEntry, query string, profile *core.UserProfile, limit int) []core.KnowledgeEntry {
	if limit <= 0 || len(entries) == 0 {
		return nil
	}

	haystack := strings.ToLower(query)
	if profile != nil {
		for _, g := range profile.Goals {
			haystack += " " + strings.ToLower(strings.ReplaceAll(g, "_", " "))
		}
	}

	var relevant, rest []core.KnowledgeEntry
	for _, e := range entries {
		if matchesAny(haystack, knowledgeTerms(e)) {
			relevant = append(relevant, e)
		} else {
			rest = append(rest, e)
		}
	}

	out := append(relevant, rest...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func knowledgeTerms(e core.KnowledgeEntry) []string {
	terms := make([]string, 0, len(e.Keywords)+2)
	for _, k := range e.Keywords {
		terms = append(terms, strings.ToLower(k))
	}
	terms = append(terms, strings.Fields(strings.ToLower(strings.ReplaceAll(e.Topic, "_", " ")))...)
	return terms
}

func matchesAny(haystack string, terms []string) bool {
	if haystack == "" {
		return false
	}
	for _, t := range terms {
		if len(t) < 3 {
			continue
		}
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(t))
		if err != nil {
			continue
		}
		if re.MatchString(haystack) {
			return true
		}
	}
	return false
}
