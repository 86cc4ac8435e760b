package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/vitalbot/pkg/log"
	"github.com/sandevgo/vitalbot/pkg/srv"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Telegram bot and background jobs",
	Long:  `Runs the Telegram transport (when enabled), the highlight compactor and the insight generator until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting vitalbot")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		services, err := a.services(ctx)
		if err != nil {
			a.Close()
			return err
		}

		if err := srv.Run(ctx, services); err != nil {
			return err
		}
		logger.Info().Msg("vitalbot has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
