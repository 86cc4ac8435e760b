package memory

import (
	"regexp"
	"strings"

	"github.com/sandevgo/vitalbot/internal/core"
)

const minExtractableLength = 20

// fieldCues maps every highlight field to the phrases that signal it.
// Cues are matched case-insensitively on word boundaries.
var fieldCues = map[core.HighlightField][]string{
	core.FieldAllergies: {
		`allerg(y|ic|ies)`, `intoleran(t|ce)`, `anaphyla\w*`, `hay ?fever`,
	},
	core.FieldHealthConcerns: {
		`pain`, `blood pressure`, `cholesterol`, `diabet\w*`, `asthma`, `injur(y|ed|ies)`,
		`headaches?`, `migraines?`, `arthritis`, `dizz(y|iness)`, `diagnosed`,
	},
	core.FieldMedications: {
		`medications?`, `medicines?`, `meds`, `pills?`, `prescri\w*`, `vitamins?`,
		`supplements?`, `insulin`, `ibuprofen`, `antihistamines?`, `inhaler`,
	},
	core.FieldFamilyHealth: {
		`family history`, `runs in (my|the) family`, `hereditary`, `genetic`,
		`my (mother|father|mom|dad|mum|parents?|sister|brother|grand(mother|father|ma|pa)) (has|had|have|was|were)`,
	},
	core.FieldSleepSchedule: {
		`bed ?time`, `insomnia`, `wake up`, `woke up`, `go to (bed|sleep)`, `sleep(ing)? (schedule|routine)`,
		`naps?`, `night owl`, `early bird`, `can'?t sleep`,
	},
	core.FieldWorkSchedule: {
		`shifts?`, `night shifts?`, `work(ing)? (hours|from home|schedule|late|nights|weekends)`,
		`9 ?(to|-) ?5`, `commut(e|ing)`, `desk job`, `meetings`, `overtime`,
	},
	core.FieldExercisePreferences: {
		`yoga`, `gym`, `running`, `jog(ging)?`, `swim(ming)?`, `cycling`, `bike`, `hik(e|ing)`,
		`workouts?`, `pilates`, `lift(ing)? weights`, `walking`, `dance|dancing`, `tennis`, `football`,
	},
	core.FieldNutritionPreferences: {
		`vegetarian`, `vegan`, `diet`, `keto`, `gluten`, `dairy`, `meals?`, `snack(s|ing)?`,
		`coffee`, `sugar`, `protein`, `breakfast`, `fasting`,
	},
	core.FieldStressSources: {
		`stress(ed|ful)?`, `anxious`, `anxiety`, `deadlines?`, `overwhelmed`, `under pressure`,
		`worr(y|ied|ying)`, `burn(ed|t)? out`, `burnout`,
	},
	core.FieldCommunicationStyle: {
		`keep it (short|brief|simple)`, `be (more )?(direct|blunt|gentle)`, `more detail(s|ed)?`,
		`just the facts`, `no fluff`, `(explain|tell) me why`, `show me (the )?numbers`,
	},
	core.FieldGoalsMentioned: {
		`goals?`, `i want to`, `i'?d like to`, `i('m| am) trying to`, `aim(ing)? to`, `lose weight`,
		`marathon`, `10k`, `target`, `get fit(ter)?`,
	},
	core.FieldMotivationFactors: {
		`motivat\w*`, `inspir\w*`, `for my (kids|family|children|wife|husband|partner)`,
		`feel better`, `accountab\w*`, `rewards?`, `keeps? me going`,
	},
}

var cueMatchers map[core.HighlightField]*regexp.Regexp

var (
	sentenceSplit = regexp.MustCompile(`[.!?;\n]+`)
	smallTalk     = map[string]struct{}{}
)

func init() {
	cueMatchers = make(map[core.HighlightField]*regexp.Regexp, len(fieldCues))
	for field, cues := range fieldCues {
		cueMatchers[field] = regexp.MustCompile(`(?i)\b(` + strings.Join(cues, "|") + `)\b`)
	}

	for _, w := range []string{
		"hi", "hello", "hey", "thanks", "thank", "you", "ok", "okay", "good", "morning", "evening",
		"afternoon", "night", "bye", "goodbye", "cool", "great", "nice", "yes", "no", "sure", "cheers",
	} {
		smallTalk[w] = struct{}{}
	}
}

// shouldExtract skips very short messages and pure small talk.
func shouldExtract(text string) bool {
	if len(strings.TrimSpace(text)) < minExtractableLength {
		return false
	}
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if _, ok := smallTalk[w]; !ok {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplit.Split(text, -1) {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// extractFacts returns, per matching field, the sentences of text that carry
// one of its cues. Fields come back in taxonomy order.
func extractFacts(text string) []fieldFact {
	if !shouldExtract(text) {
		return nil
	}
	sentences := splitSentences(text)

	var facts []fieldFact
	for _, field := range core.AllFields() {
		re := cueMatchers[field]
		var matched []string
		for _, s := range sentences {
			if re.MatchString(s) {
				matched = append(matched, s)
			}
		}
		if len(matched) > 0 {
			facts = append(facts, fieldFact{Field: field, Value: strings.Join(matched, ". ")})
		}
	}
	return facts
}

type fieldFact struct {
	Field core.HighlightField
	Value string
}
