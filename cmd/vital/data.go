package main

import (
	"github.com/sandevgo/vitalbot/internal/service/knowledge"
	"github.com/sandevgo/vitalbot/internal/service/seed"
	"github.com/sandevgo/vitalbot/pkg/log"
	"github.com/spf13/cobra"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the health knowledge base",
}

var knowledgeSource string

var knowledgeImportCmd = &cobra.Command{
	Use:          "import <file>...",
	Short:        "Import knowledge from yaml, html or text files",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		imp := knowledge.NewImporter(a.knowledge)
		for _, path := range args {
			n, err := imp.ImportFile(ctx, path, knowledgeSource)
			if err != nil {
				return err
			}
			log.FromCtx(ctx).Info().Str("file", path).Int("entries", n).Msg("knowledge imported")
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Load the demo user, metric history and reference knowledge",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()
		logger := log.FromCtx(ctx)

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := seed.NewSeeder(a.users, a.metrics).Run(ctx)
		if err != nil {
			return err
		}

		n, err := knowledge.NewImporter(a.knowledge).ImportSeeds(ctx)
		if err != nil {
			return err
		}

		stats, err := a.generator().RunOnce(ctx)
		if err != nil {
			return err
		}

		logger.Info().
			Strs("users", ids).
			Int("knowledge", n).
			Int("insights", stats.Insights).
			Msg("demo data ready")
		return nil
	},
}

func init() {
	knowledgeImportCmd.Flags().StringVar(&knowledgeSource, "source", "", "source label stored with imported entries")
	knowledgeCmd.AddCommand(knowledgeImportCmd)
	rootCmd.AddCommand(knowledgeCmd, seedCmd)
}
