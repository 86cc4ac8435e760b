package llm

import (
	"strings"

	"github.com/sandevgo/vitalbot/internal/core"
)

type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
	Headers     map[string]string
}

// conversation drops system turns and leading assistant turns, which the
// chat APIs reject as the opening message.
func conversation(history []core.Message) []core.Message {
	out := make([]core.Message, 0, len(history))
	for _, m := range history {
		if m.Role == core.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		if len(out) == 0 && m.Role != core.RoleUser {
			continue
		}
		out = append(out, m)
	}
	return out
}

// fillUsage estimates token usage when the provider did not report any.
func fillUsage(u core.Usage, tk *Tokenizer, prompt string, history []core.Message, reply string) core.Usage {
	if u.InputTokens == 0 {
		n := tk.Count(prompt)
		for _, m := range history {
			n += tk.Count(m.Content)
		}
		u.InputTokens = n
	}
	if u.OutputTokens == 0 {
		u.OutputTokens = tk.Count(reply)
	}
	return u
}
