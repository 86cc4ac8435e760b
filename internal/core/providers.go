package core

import "context"

// ModelClient is the opaque model-call collaborator. Implementations report
// retryable failures as *ModelTransientError and everything else as
// *ModelFatalError.
type ModelClient interface {
	Invoke(ctx context.Context, prompt string, history []Message) (ModelResponse, error)
}

type WeatherProvider interface {
	GetWeather(ctx context.Context, location string) (*WeatherRecord, error)
}

type SignalProvider interface {
	Name() string
	Signals(ctx context.Context, profile *UserProfile) (map[string]any, error)
}
