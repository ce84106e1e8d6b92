package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phrazzld/scry-vocab/internal/platform/postgres"
)

func newMigrateCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [" + strings.Join(postgres.MigrationCommands, "|") + "]",
		Short:     "Apply or inspect postgres schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			if state.cfg.Database.Driver != "postgres" {
				fmt.Fprintf(cmd.OutOrStdout(),
					"database driver %q creates its schema on open; nothing to migrate\n",
					state.cfg.Database.Driver)
				return nil
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, state.cfg.Database.URL, state.logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := postgres.Migrate(ctx, db, command, state.logger); err != nil {
				return fmt.Errorf("migrate %s: %w", command, err)
			}
			return nil
		},
	}
}
