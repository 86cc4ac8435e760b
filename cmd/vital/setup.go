package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/vitalbot/internal/config"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/internal/providers/llm"
	"github.com/sandevgo/vitalbot/internal/providers/weather"
	"github.com/sandevgo/vitalbot/internal/service/insights"
	"github.com/sandevgo/vitalbot/internal/service/memory"
	"github.com/sandevgo/vitalbot/internal/service/prompt"
	"github.com/sandevgo/vitalbot/internal/service/turn"
	"github.com/sandevgo/vitalbot/internal/storage/sqlite"
	"github.com/sandevgo/vitalbot/internal/transport/telegram"
	"github.com/sandevgo/vitalbot/pkg/log"
	"github.com/sandevgo/vitalbot/pkg/retry"
	"github.com/sandevgo/vitalbot/pkg/srv"
)

// app holds configuration and storage shared by every command.
type app struct {
	cfg  *config.AppConfig
	conv config.ConversationConfig

	db            *sql.DB
	messages      *sqlite.MessagesRepo
	conversations *sqlite.ConversationsRepo
	highlights    *sqlite.HighlightsRepo
	insights      *sqlite.InsightsRepo
	metrics       *sqlite.MetricsRepo
	knowledge     *sqlite.KnowledgeRepo
	users         *sqlite.UsersRepo

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, err
	}

	appCfg := config.NewAppConfig(ctx)
	convCfg, err := config.NewConversationConfig()
	if err != nil {
		return nil, err
	}

	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:           appCfg,
		conv:          convCfg,
		db:            db,
		messages:      sqlite.NewMessagesRepo(db),
		conversations: sqlite.NewConversationsRepo(db),
		highlights:    sqlite.NewHighlightsRepo(db),
		insights:      sqlite.NewInsightsRepo(db),
		metrics:       sqlite.NewMetricsRepo(db),
		knowledge:     sqlite.NewKnowledgeRepo(db),
		users:         sqlite.NewUsersRepo(db),
		closers:       []func() error{db.Close},
	}, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func (a *app) model(ctx context.Context) (core.ModelClient, error) {
	return llm.NewProvider(ctx, config.NewLLMConfig(ctx))
}

func (a *app) assembler(ctx context.Context) (*memory.Assembler, error) {
	ow, err := weather.NewOpenWeather(config.NewWeatherConfig(ctx))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		ow.Close()
		return nil
	})

	return memory.NewAssembler(memory.AssemblerConfig{
		SourceTimeout:       a.cfg.SourceTimeout,
		ProfileTimeout:      a.cfg.ProfileTimeout,
		WindowDays:          a.conv.RawMetricWindowDays,
		InsightsPerCategory: a.conv.InsightsPerCategory,
		DecayThreshold:      a.conv.HighlightDecayThreshold,
		KnowledgeLimit:      a.cfg.KnowledgeLimit,
	}, memory.Sources{
		Metrics:    a.metrics,
		Insights:   a.insights,
		Highlights: a.highlights,
		Knowledge:  a.knowledge,
		Profiles:   a.users,
		Weather:    ow,
		Signals:    []core.SignalProvider{weather.NewSignals(ow)},
	}), nil
}

func (a *app) controller(ctx context.Context, model core.ModelClient) (*turn.Controller, error) {
	asm, err := a.assembler(ctx)
	if err != nil {
		return nil, err
	}

	rc := retry.NewDefaultConfig()
	rc.MaxRetries = a.cfg.ModelRetries

	return turn.NewController(turn.Config{
		Conversation:  a.conv,
		AssistantName: a.cfg.AssistantName,
		HistoryLimit:  a.cfg.HistoryLimit,
		ModelTimeout:  a.cfg.ModelTimeout,
		Retry:         rc,
	}, turn.Deps{
		Context:       asm,
		Prompts:       prompt.NewBuilder(),
		Model:         model,
		Memory:        memory.NewWriter(a.messages, a.highlights),
		History:       a.messages,
		Conversations: a.conversations,
		Tokens:        llm.NewTokenizer(),
	}), nil
}

func (a *app) compactor(model core.ModelClient) *memory.Compactor {
	var summarizer memory.Summarizer
	if model != nil {
		summarizer = memory.NewModelSummarizer(model, a.cfg.ModelTimeout)
	}
	c := memory.NewCompactor(a.highlights, summarizer, a.conv.HighlightDecayThreshold)
	c.Schedule = a.cfg.CompactionSchedule
	return c
}

func (a *app) generator() *insights.Generator {
	g := insights.NewGenerator(a.metrics, a.users, a.insights)
	g.Schedule = a.cfg.InsightsSchedule
	return g
}

// services wires everything `vital start` runs in the background.
func (a *app) services(ctx context.Context) ([]srv.Service, error) {
	model, err := a.model(ctx)
	if err != nil {
		return nil, err
	}

	services := []srv.Service{
		srv.NewCleanup(a.Close),
		a.compactor(model),
		a.generator(),
	}

	if a.cfg.EnableTelegram {
		ctrl, err := a.controller(ctx, model)
		if err != nil {
			return nil, err
		}
		bot, err := telegram.NewBot(ctx, config.NewTelegramConfig(ctx), ctrl, a.cfg.UserID, a.cfg.AssistantName)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	} else {
		log.FromCtx(ctx).Warn().Msg("telegram disabled, running background jobs only")
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
