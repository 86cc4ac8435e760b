package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/sandevgo/vitalbot/internal/service/turn"
	"github.com/sandevgo/vitalbot/internal/transport/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:          "chat",
	Short:        "Talk to the assistant in the terminal",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		model, err := a.model(ctx)
		if err != nil {
			return err
		}
		ctrl, err := a.controller(ctx, model)
		if err != nil {
			return err
		}

		rl, err := cli.NewReadLine(a.cfg.GetRuntimePath(), a.cfg.AssistantName)
		if err != nil {
			return err
		}
		defer rl.Shutdown(ctx)

		rl.Notice(fmt.Sprintf("Chatting with %s as %s. Type 'exit' to quit.", a.cfg.AssistantName, a.cfg.UserID))

		sess := turn.NewSession(a.cfg.UserID)
		if err := ctrl.Run(ctx, sess, rl, rl); err != nil {
			return err
		}
		rl.Notice("Conversation ended.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
