package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sandevgo/vitalbot/internal/core"
)

// OpenAI speaks the chat completions API. OpenRouter, Ollama and other
// compatible servers are reached through Options.BaseURL.
type OpenAI struct {
	client openai.Client
	opts   Options
	tokens *Tokenizer
}

func NewOpenAI(opts Options) *OpenAI {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	for k, v := range opts.Headers {
		reqOpts = append(reqOpts, option.WithHeader(k, v))
	}

	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		opts:   opts,
		tokens: NewTokenizer(),
	}
}

func (o *OpenAI) Invoke(ctx context.Context, prompt string, history []core.Message) (core.ModelResponse, error) {
	msgs := conversation(history)
	if len(msgs) == 0 {
		return core.ModelResponse{}, &core.ModelFatalError{Err: errors.New("no user message to answer")}
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if prompt != "" {
		messages = append(messages, openai.SystemMessage(prompt))
	}
	for _, m := range msgs {
		if m.Role == core.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.opts.Model),
		Messages:    messages,
		Temperature: openai.Float(o.opts.Temperature),
	}
	if o.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(o.opts.MaxTokens)
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return core.ModelResponse{}, classify(err)
	}
	if len(completion.Choices) == 0 {
		return core.ModelResponse{}, &core.ModelTransientError{Err: errors.New("completion has no choices")}
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)

	usage := core.Usage{
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}
	return core.ModelResponse{
		Text:  text,
		Usage: fillUsage(usage, o.tokens, prompt, msgs, text),
	}, nil
}
