package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/scry-vocab/internal/importer"
)

func newImportCmd(state *cliState) *cobra.Command {
	opts := importer.DefaultOptions()
	var noHeader bool

	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import vocabulary items from a workbook or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApplication(ctx, state.cfg, state.logger)
			if err != nil {
				return err
			}
			defer app.cleanup()

			opts.SkipHeader = !noHeader
			result, err := app.importer.ImportFile(ctx, args[0], opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows: %d, imported: %d, skipped: %d\n", result.Rows, result.Imported, result.Skipped)
			for _, msg := range result.Errors {
				fmt.Fprintf(out, "  %s\n", msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "workbook sheet to read (default: first sheet)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "treat the first row as data")
	return cmd
}
