package main

import (
	"path/filepath"

	"github.com/sandevgo/archivist/internal/config"
	"github.com/sandevgo/archivist/internal/service/installer"
	"github.com/sandevgo/archivist/pkg/log"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:          "install",
	Short:        "Configure Archivist interactively",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		logger := log.FromCtx(ctx)
		runtimePath := config.GetRuntimePath()
		envPath := filepath.Join(runtimePath, ".env")

		logger.Info().Str("path", envPath).Msg("starting installation")
		if _, err := installer.RunWizard(envPath); err != nil {
			return err
		}

		logger.Info().Msgf("initialized runtime directory at: %s", runtimePath)
		logger.Info().Msg("Installation complete! You can now run 'archivist start'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
