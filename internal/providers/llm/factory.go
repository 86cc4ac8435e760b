package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/vitalbot/internal/config"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1/"
	repositoryURL     = "https://github.com/sandevgo/vitalbot"
)

var defaultModels = map[string]string{
	"anthropic":  defaultAnthropicModel,
	"openai":     "gpt-4o-mini",
	"openrouter": "openai/gpt-4o-mini",
	"ollama":     "llama3.1",
}

// NewProvider creates the model client selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg *config.LLMConfig) (core.ModelClient, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModels[cfg.Provider]
	}

	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", model).
		Msg("starting llm provider")

	opts := Options{
		Model:       model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	switch cfg.Provider {
	case "anthropic":
		opts.APIKey = cfg.AnthropicAPIKey
		return NewAnthropic(opts), nil
	case "openai":
		opts.APIKey = cfg.OpenAIAPIKey
		return NewOpenAI(opts), nil
	case "openrouter":
		opts.APIKey = cfg.OpenRouterAPIKey
		opts.BaseURL = openRouterBaseURL
		opts.Headers = map[string]string{
			"HTTP-Referer": repositoryURL,
			"X-Title":      core.AppName,
		}
		return NewOpenAI(opts), nil
	case "ollama":
		opts.APIKey = cfg.OllamaAPIKey
		if opts.APIKey == "" {
			opts.APIKey = "ollama"
		}
		opts.BaseURL = cfg.OllamaBaseURL
		return NewOpenAI(opts), nil
	case "custom":
		if cfg.CustomBaseURL == "" {
			return nil, &core.ConfigurationError{Field: "CUSTOM_OPENAI_BASE_URL", Reason: "required for the custom provider"}
		}
		if model == "" {
			return nil, &core.ConfigurationError{Field: "LLM_MODEL", Reason: "required for the custom provider"}
		}
		opts.APIKey = cfg.CustomAPIKey
		opts.BaseURL = cfg.CustomBaseURL
		return NewOpenAI(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
