package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(state *cliState) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset every item to its unstudied state and clear the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset discards all review history; pass --yes to confirm")
			}

			ctx := cmd.Context()
			app, err := newApplication(ctx, state.cfg, state.logger)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if err := app.items.ResetAll(ctx); err != nil {
				return fmt.Errorf("failed to reset items: %w", err)
			}
			if err := app.snapshots.Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear session snapshot: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "all items reset")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}
