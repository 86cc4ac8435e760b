package main

import (
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:          "insights",
	Short:        "Generate insights for every user now",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.generator().RunOnce(ctx)
		log.FromCtx(ctx).Info().
			Int("users", stats.Users).
			Int("insights", stats.Insights).
			Int64("expired", stats.Expired).
			Int("errors", stats.Errors).
			Msg("insight batch finished")
		return err
	},
}

var compactNoModel bool

var compactCmd = &cobra.Command{
	Use:          "compact",
	Short:        "Run one highlight compaction pass",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		var model core.ModelClient
		if !compactNoModel {
			if model, err = a.model(ctx); err != nil {
				return err
			}
		}

		stats, err := a.compactor(model).RunOnce(ctx)
		log.FromCtx(ctx).Info().
			Int("users", stats.Users).
			Int("merged", stats.Merged).
			Int("created", stats.Created).
			Msg("compaction finished")
		return err
	},
}

func init() {
	compactCmd.Flags().BoolVar(&compactNoModel, "no-model", false, "summarize with keywords instead of the model")
	rootCmd.AddCommand(insightsCmd, compactCmd)
}
