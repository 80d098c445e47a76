package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/archivist/pkg/log"
	"github.com/sandevgo/archivist/pkg/srv"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bot and API services",
	Long:  `Starts every enabled transport (Discord, Telegram, HTTP API) on top of the record store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting archivist")

		services := NewServices(ctx, NewApp(ctx))
		if len(services) == 0 {
			logger.Warn().Msg("no services enabled")
		}

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("archivist has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
