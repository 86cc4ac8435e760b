package memory

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
)

const maxCoarseKeywords = 6

// Summarizer folds several highlights of one field into a single coarse statement.
type Summarizer interface {
	Summarize(ctx context.Context, field core.HighlightField, highlights []core.Highlight) (string, error)
}

var (
	wordRe = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'-]*`)

	stopwords = map[string]struct{}{}
)

func init() {
	for _, w := range strings.Fields(`a about after again all also am an and any are as at be because been before
		being but by can could did do does doing don't for from had has have having he her here hers him his how
		i i'd i'll i'm i've if in into is it it's its just me more most my myself no not now of off on once only
		or other our out over own really same she should so some such than that the their them then there these
		they this those through to too under until up very was we were what when where which while who why will
		with would you your yours lot bit kind sort quite get got mentioned`) {
		stopwords[w] = struct{}{}
	}
}

// Keywords returns up to max distinct content words of text, in order of appearance.
func Keywords(text string, max int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		w = strings.Trim(w, "'-")
		if len(w) < 3 {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == max {
			break
		}
	}
	return out
}

// coarseBody strips the "<label> mentioned (...): " prefix of an already
// coarse value so re-compaction does not feed on its own header.
func coarseBody(h core.Highlight) string {
	if h.Granularity != core.GranularityCompacted {
		return h.Value
	}
	if _, body, ok := strings.Cut(h.Value, "): "); ok {
		return body
	}
	return h.Value
}

func period(highlights []core.Highlight) string {
	if len(highlights) == 0 {
		return ""
	}
	oldest, newest := highlights[0].CreatedAt, highlights[0].CreatedAt
	for _, h := range highlights[1:] {
		if h.CreatedAt.Before(oldest) {
			oldest = h.CreatedAt
		}
		if h.CreatedAt.After(newest) {
			newest = h.CreatedAt
		}
	}
	from, to := oldest.Format("Jan 2006"), newest.Format("Jan 2006")
	if from == to {
		return "as of " + from
	}
	return from + " to " + to
}

// KeywordSummarizer is deterministic and never fails.
type KeywordSummarizer struct{}

func (KeywordSummarizer) Summarize(_ context.Context, field core.HighlightField, highlights []core.Highlight) (string, error) {
	return coarseForm(field, highlights), nil
}

func coarseForm(field core.HighlightField, highlights []core.Highlight) string {
	var sb strings.Builder
	for _, h := range highlights {
		sb.WriteString(coarseBody(h))
		sb.WriteString(" ")
	}

	body := strings.Join(Keywords(sb.String(), maxCoarseKeywords), ", ")
	if body == "" {
		body = "details no longer retained"
	}
	return fmt.Sprintf("%s mentioned (%s): %s", field.Label(), period(highlights), body)
}

const summarizeSystem = `You compress remembered facts about a user into one short, general statement.
Keep only what stays useful over months. Drop dates, quotes and specific wording.
Answer with a single line of at most 20 words and nothing else.`

const summarizeRequest = `Field: %s
Facts:
%s`

// ModelSummarizer asks the model for a coarse statement and falls back to
// keywords on any failure.
type ModelSummarizer struct {
	model    core.ModelClient
	fallback KeywordSummarizer
	timeout  time.Duration
}

func NewModelSummarizer(model core.ModelClient, timeout time.Duration) *ModelSummarizer {
	return &ModelSummarizer{model: model, timeout: timeout}
}

func (s *ModelSummarizer) Summarize(ctx context.Context, field core.HighlightField, highlights []core.Highlight) (string, error) {
	logger := log.FromCtx(ctx)

	var facts strings.Builder
	for _, h := range highlights {
		fmt.Fprintf(&facts, "- %s\n", coarseBody(h))
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Clients answer the last user message, so the facts travel as one.
	req := core.NewMessage(core.RoleUser, fmt.Sprintf(summarizeRequest, field.Label(), facts.String()), time.Now().UTC())
	resp, err := s.model.Invoke(cctx, summarizeSystem, []core.Message{req})
	if err != nil {
		logger.Warn().Err(err).Str("field", string(field)).Msg("model summary failed, using keywords")
		return s.fallback.Summarize(ctx, field, highlights)
	}

	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(resp.Text), "\n", 2)[0])
	if line == "" {
		return s.fallback.Summarize(ctx, field, highlights)
	}
	for _, h := range highlights {
		if strings.EqualFold(line, strings.TrimSpace(h.Value)) {
			return s.fallback.Summarize(ctx, field, highlights)
		}
	}
	return fmt.Sprintf("%s mentioned (%s): %s", field.Label(), period(highlights), line), nil
}
