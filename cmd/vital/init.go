package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandevgo/vitalbot/internal/config"
	"github.com/sandevgo/vitalbot/pkg/env"
	"github.com/sandevgo/vitalbot/pkg/log"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:          "init",
	Short:        "Write a commented .env with every option at its default",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		runtimePath := config.GetRuntimePath()
		envPath := filepath.Join(runtimePath, ".env")
		if _, err := os.Stat(envPath); err == nil && !initForce {
			return fmt.Errorf("%s already exists, use --force to overwrite", envPath)
		}

		body, err := renderEnv(ctx)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(runtimePath, 0755); err != nil {
			return fmt.Errorf("failed to create runtime directory: %w", err)
		}
		if err := os.WriteFile(envPath, []byte(body), 0600); err != nil {
			return fmt.Errorf("write %s: %w", envPath, err)
		}

		log.FromCtx(ctx).Info().Str("path", envPath).Msg("configuration written, edit it and run 'vital seed'")
		return nil
	},
}

func renderEnv(ctx context.Context) (string, error) {
	conv := config.DefaultConversationConfig()
	sections := []struct {
		title string
		cfg   any
	}{
		{"App", config.NewAppConfig(ctx)},
		{"Conversation", &conv},
		{"LLM", config.NewLLMConfig(ctx)},
		{"Weather", config.NewWeatherConfig(ctx)},
		{"Telegram", &config.TelegramConfig{}},
	}

	var sb strings.Builder
	for _, s := range sections {
		body, err := env.MarshalEnv(s.cfg)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "# %s\n%s\n", s.title, body)
	}
	return sb.String(), nil
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing .env")
	rootCmd.AddCommand(initCmd)
}
