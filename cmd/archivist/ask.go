package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sandevgo/archivist/internal/service/command"
	"github.com/sandevgo/archivist/internal/transport/cli"
	"github.com/spf13/cobra"
)

var (
	askScope string
	askUser  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from stored history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx)
		defer closeApp(ctx, app)

		answer := app.Agent.Answer(ctx, askUser, askScope, strings.Join(args, " "))
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		ctx, flushLog := setupLogger(ctx)
		defer flushLog()

		app := NewApp(ctx)
		defer closeApp(ctx, app)

		router := command.NewRouter("!", true, app.Commands...)
		rl, err := cli.NewReadLine(app.Pipeline, router, cli.Options{
			RuntimePath: app.Config.GetRuntimePath(),
			Scope:       askScope,
			UserID:      askUser,
		})
		if err != nil {
			return err
		}
		defer rl.Shutdown(ctx)

		if err := rl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// closeApp releases what NewApp opened for one-shot commands.
func closeApp(ctx context.Context, app *App) {
	for i := len(app.Services) - 1; i >= 0; i-- {
		_ = app.Services[i].Shutdown(ctx)
	}
}

func init() {
	for _, c := range []*cobra.Command{askCmd, chatCmd} {
		c.Flags().StringVarP(&askScope, "scope", "s", "", "server or chat id whose history is searched")
		c.Flags().StringVarP(&askUser, "user", "u", "cli-local", "conversation owner")
		rootCmd.AddCommand(c)
	}
}
