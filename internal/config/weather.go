package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/vitalbot/pkg/log"
)

type WeatherConfig struct {
	// An empty key disables the provider; the weather source then reports unavailable.
	APIKey   string        `env:"OPENWEATHER_API_KEY"`
	BaseURL  string        `env:"OPENWEATHER_BASE_URL" envDefault:"https://api.openweathermap.org"`
	CacheTTL time.Duration `env:"OPENWEATHER_CACHE_TTL" envDefault:"10m"`
}

func NewWeatherConfig(ctx context.Context) *WeatherConfig {
	c := &WeatherConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Weather config")
	}
	return c
}
