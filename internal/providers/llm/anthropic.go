package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sandevgo/vitalbot/internal/core"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-5"
	defaultAnthropicMaxTokens = 1024
)

type Anthropic struct {
	client anthropic.Client
	opts   Options
	tokens *Tokenizer
}

func NewAnthropic(opts Options) *Anthropic {
	if opts.Model == "" {
		opts.Model = defaultAnthropicModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultAnthropicMaxTokens
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// Retries belong to the turn controller.
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	for k, v := range opts.Headers {
		reqOpts = append(reqOpts, option.WithHeader(k, v))
	}

	return &Anthropic{
		client: anthropic.NewClient(reqOpts...),
		opts:   opts,
		tokens: NewTokenizer(),
	}
}

func (a *Anthropic) Invoke(ctx context.Context, prompt string, history []core.Message) (core.ModelResponse, error) {
	msgs := conversation(history)
	if len(msgs) == 0 {
		return core.ModelResponse{}, &core.ModelFatalError{Err: errors.New("no user message to answer")}
	}

	messages := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == core.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.opts.Model),
		MaxTokens:   a.opts.MaxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(a.opts.Temperature),
	}
	if prompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return core.ModelResponse{}, classify(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())

	usage := core.Usage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	return core.ModelResponse{
		Text:  text,
		Usage: fillUsage(usage, a.tokens, prompt, msgs, text),
	}, nil
}
