package cli

import (
	"fmt"
	"io"

	"github.com/eunmann/superforge/pkg/humanfmt"
	"github.com/eunmann/superforge/pkg/sparse"
	"github.com/eunmann/superforge/pkg/superdef"
	"github.com/spf13/cobra"
)

func (a *app) partitionsCommand() *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "partitions <rom-dir>",
		Short: "Show a region's partitions and the state of their images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRegion(args[0], region)
			if err != nil {
				return err
			}
			listPartitions(cmd.OutOrStdout(), args[0], cfg)
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "NV id of the region (default: first found)")
	return cmd
}

func listPartitions(w io.Writer, romRoot string, cfg *superdef.SuperBuildConfig) {
	rows := make([][]string, 0, len(cfg.Partitions))
	ready := 0
	for _, p := range cfg.Partitions {
		status := imageStatus(romRoot, p)
		if status == statusSparse || status == statusReady {
			ready++
		}
		rows = append(rows, []string{
			p.Name,
			p.GroupName,
			humanfmt.MB(p.SizeBytes),
			p.SourcePath,
			styleStatus(status),
		})
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (NV ID: %s)", cfg.RegionLabel, cfg.RegionID)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("device %s, %d group(s), %d/%d images present",
		humanfmt.GB(cfg.DeviceSizeBytes), len(cfg.Groups), ready, len(cfg.DataPartitions()))))
	fmt.Fprint(w, renderTable([]string{"NAME", "GROUP", "SIZE", "PATH", "STATUS"}, rows))
}

const (
	statusPlaceholder = "Placeholder"
	statusMissing     = "Missing"
	statusSparse      = "Sparse"
	statusReady       = "Ready"
)

func imageStatus(romRoot string, p superdef.PartitionSpec) string {
	if !p.HasImage() {
		return statusPlaceholder
	}
	switch sparse.Classify(p.ImagePath(romRoot)) {
	case sparse.Sparse:
		return statusSparse
	case sparse.Raw:
		return statusReady
	default:
		return statusMissing
	}
}

func styleStatus(s string) string {
	switch s {
	case statusMissing:
		return errorStyle.Render(s)
	case statusSparse:
		return warningStyle.Render(s)
	case statusReady:
		return successStyle.Render(s)
	default:
		return mutedStyle.Render(s)
	}
}
