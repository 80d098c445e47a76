package main

import (
	"fmt"

	"github.com/sandevgo/archivist/internal/service/command"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the record store",
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts, date range and busiest channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx)
		defer closeApp(ctx, app)

		stats, err := app.Archive.Stats(ctx)
		if err != nil {
			return fmt.Errorf("error fetching database statistics: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), command.FormatStats(stats))
		return nil
	},
}

var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the record store is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx)
		defer closeApp(ctx, app)

		if err := app.Archive.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbStatsCmd, dbPingCmd)
	rootCmd.AddCommand(dbCmd)
}
