package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/vitalbot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"VITAL_RUNTIME_PATH" envDefault:".vitalbot"`
	UserID      string `env:"VITAL_USER_ID" envDefault:"demo"`
	// AssistantName is how the bot introduces itself.
	AssistantName string `env:"VITAL_ASSISTANT_NAME" envDefault:"Vital"`

	// Transport Flags
	EnableTelegram bool `env:"VITAL_ENABLE_TELEGRAM" envDefault:"false"`

	// Turn loop
	SourceTimeout  time.Duration `env:"VITAL_SOURCE_TIMEOUT" envDefault:"2s"`
	ProfileTimeout time.Duration `env:"VITAL_PROFILE_TIMEOUT" envDefault:"1s"`
	ModelTimeout   time.Duration `env:"VITAL_MODEL_TIMEOUT" envDefault:"60s"`
	ModelRetries   int           `env:"VITAL_MODEL_RETRIES" envDefault:"3"`
	HistoryLimit   int           `env:"VITAL_HISTORY_LIMIT" envDefault:"30"`
	KnowledgeLimit int           `env:"VITAL_KNOWLEDGE_LIMIT" envDefault:"5"`

	// Background jobs
	CompactionSchedule string `env:"VITAL_COMPACTION_SCHEDULE" envDefault:"@every 1h"`
	InsightsSchedule   string `env:"VITAL_INSIGHTS_SCHEDULE" envDefault:"@daily"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	if !filepath.IsAbs(c.RuntimePath) {
		c.RuntimePath = GetRuntimePath()
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "vitalbot.db")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}
