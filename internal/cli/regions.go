package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eunmann/superforge/pkg/humanfmt"
	"github.com/eunmann/superforge/pkg/logging"
	"github.com/eunmann/superforge/pkg/superdef"
	"github.com/spf13/cobra"
)

// errNoRegions is returned when a ROM has no usable super_def layout.
var errNoRegions = errors.New("no super_def.*.json found in META")

func (a *app) regionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regions <rom-dir>",
		Short: "List the region layouts found in a ROM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRegions(cmd.OutOrStdout(), args[0])
		},
	}
}

func listRegions(w io.Writer, romRoot string) error {
	regions, err := discover(romRoot)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(regions))
	for _, r := range regions {
		rows = append(rows, []string{
			r.RegionID,
			r.RegionLabel,
			humanfmt.GB(r.AggregateUsedSizeBytes),
			strconv.Itoa(r.PartitionCount),
		})
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Found %d region config(s)", len(regions))))
	fmt.Fprint(w, renderTable([]string{"NV ID", "REGION", "USED", "PARTITIONS"}, rows))
	return nil
}

// discover lists a ROM's regions, logging the layouts that could not be read.
// It fails only when nothing usable is left.
func discover(romRoot string) ([]superdef.RegionDescriptor, error) {
	regions, skipped := superdef.Discover(romRoot)
	for _, s := range skipped {
		logging.L().Warn().Str("config", s.Path).Err(s.Err).Msg("skipping unreadable layout")
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%s: %w", romRoot, errNoRegions)
	}
	return regions, nil
}

// selectRegion picks the region with the given NV id, or the first region in
// discovery order when id is empty.
func selectRegion(romRoot, id string) (superdef.RegionDescriptor, error) {
	regions, err := discover(romRoot)
	if err != nil {
		return superdef.RegionDescriptor{}, err
	}
	if id == "" {
		return regions[0], nil
	}

	ids := make([]string, 0, len(regions))
	for _, r := range regions {
		if r.RegionID == id {
			return r, nil
		}
		ids = append(ids, r.RegionID)
	}
	return superdef.RegionDescriptor{}, fmt.Errorf("region %q not found (available: %s)", id, strings.Join(ids, ", "))
}

// loadRegion selects a region and parses its full layout.
func loadRegion(romRoot, id string) (*superdef.SuperBuildConfig, error) {
	desc, err := selectRegion(romRoot, id)
	if err != nil {
		return nil, err
	}
	return superdef.Parse(desc.ConfigPath)
}
