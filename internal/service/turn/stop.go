package turn

import (
	"regexp"
	"strings"
)

type StopReason string

const (
	StopNone       StopReason = ""
	StopMessageCap StopReason = "message_cap"
	StopEndIntent  StopReason = "end_intent"
	StopModelError StopReason = "model_error"
)

// StopMatcher detects end-of-conversation intent in user text.
type StopMatcher struct {
	cap     int
	phrases []*regexp.Regexp
}

// NewStopMatcher expects phrases already normalized to lower case with single spaces.
func NewStopMatcher(messageCap int, phrases []string) *StopMatcher {
	m := &StopMatcher{cap: messageCap}
	for _, p := range phrases {
		words := strings.Fields(p)
		if len(words) == 0 {
			continue
		}
		first, last := words[0], words[len(words)-1]
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		// \b only holds next to a word character; "bye." or "ttyl!" end in punctuation.
		expr := strings.Join(words, `\s+`)
		if isWordRune(first[0]) {
			expr = `\b` + expr
		}
		if isWordRune(last[len(last)-1]) {
			expr += `\b`
		}
		m.phrases = append(m.phrases, regexp.MustCompile(`(?i)`+expr))
	}
	return m
}

// Check returns the reason the conversation must stop, or StopNone.
func (m *StopMatcher) Check(messageCount int, userText string) StopReason {
	if m.cap > 0 && messageCount >= m.cap {
		return StopMessageCap
	}
	if m.HasEndIntent(userText) {
		return StopEndIntent
	}
	return StopNone
}

func (m *StopMatcher) HasEndIntent(text string) bool {
	for _, re := range m.phrases {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// isWordRune matches the ASCII class regexp uses for \b.
func isWordRune(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
