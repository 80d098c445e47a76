package main

import (
	"context"
	"os"

	"github.com/sandevgo/archivist/internal/config"
	"github.com/sandevgo/archivist/internal/service/ui"
	"github.com/sandevgo/archivist/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug   bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "archivist",
	Short: "Archivist answers questions from your chat history",
	Long: `Archivist stores Discord and Telegram conversations and answers
questions about them with a language model grounded in that history.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
}

// setupLogger loads the runtime .env first so ARCHIVIST_DEBUG and
// ARCHIVIST_LOG_FILE from it take effect.
func setupLogger(ctx context.Context) (context.Context, func()) {
	envErr := loadEnv(config.GetRuntimePath())

	file := logFile
	if file == "" {
		file = os.Getenv("ARCHIVIST_LOG_FILE")
	}
	ctx, flush := log.NewContextWithOptions(ctx, log.Options{
		Debug: debug || config.IsDebug(),
		File:  file,
	})

	if envErr != nil {
		log.FromCtx(ctx).Warn().Err(envErr).Msg("failed to load .env file")
	}
	return ctx, flush
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{StyleFlag (.LocalFlags.FlagUsages | trimTrailingWhitespaces)}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
