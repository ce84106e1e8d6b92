package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/phrazzld/scry-vocab/internal/config"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
)

// cliState is shared by all subcommands once the root pre-run has loaded
// configuration.
type cliState struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:           "vocabd",
		Short:         "Vocabulary spaced-repetition scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(state.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}
			state.cfg = cfg
			state.logger = log

			log.Debug("configuration loaded",
				slog.String("database_driver", cfg.Database.Driver),
				slog.Bool("redis_enabled", cfg.Redis.Enabled()),
				slog.String("timezone", cfg.Study.Timezone))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&state.configPath, "config", "c", "",
		"path to a YAML config file (default: ./config.yaml when present)")

	root.AddCommand(
		newServeCmd(state),
		newMigrateCmd(state),
		newImportCmd(state),
		newResetCmd(state),
	)
	return root
}
