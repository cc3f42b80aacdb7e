package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/eunmann/superforge/pkg/inventory"
	"github.com/spf13/cobra"
)

func (a *app) inventoryCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "inventory <rom-dir>",
		Short: "Export every region's partitions and image states as Parquet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			return exportInventory(cmd.Context(), cmd.OutOrStdout(), args[0], out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "destination .parquet file")
	return cmd
}

func exportInventory(ctx context.Context, w io.Writer, romRoot, out string) error {
	regions, err := discover(romRoot)
	if err != nil {
		return err
	}
	rows, err := inventory.Collect(ctx, romRoot, regions)
	if err != nil {
		return err
	}
	if err := inventory.Write(out, rows); err != nil {
		return err
	}
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("wrote %d rows for %d region(s) to %s", len(rows), len(regions), out)))
	return nil
}
