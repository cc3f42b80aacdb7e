package cli

import (
	"fmt"

	"github.com/eunmann/superforge/internal/config"
	"github.com/spf13/cobra"
)

func (a *app) configCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect superforge settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			source := a.cfgPath
			if source == "" {
				source = "(defaults and environment)"
			}
			fmt.Fprintf(w, "# source: %s\n", source)

			out, err := config.Show(*a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(w, out)
			return nil
		},
	})
	return cfgCmd
}
