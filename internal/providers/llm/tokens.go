package llm

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Tokenizer counts tokens with tiktoken. When the encoding cannot be loaded
// it falls back to a four-characters-per-token estimate.
type Tokenizer struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{encoding: defaultEncoding}
}

func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err == nil {
			t.enc = enc
		}
	})
	if t.enc == nil {
		return approxTokens(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

func approxTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
