package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/eunmann/superforge/pkg/humanfmt"
	"github.com/eunmann/superforge/pkg/rawprogram"
	"github.com/spf13/cobra"
)

func (a *app) rawprogramCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rawprogram <rom-dir>",
		Short: "List the images written by the ROM's rawprogram*.xml descriptors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRawprogram(cmd.OutOrStdout(), args[0])
		},
	}
}

func listRawprogram(w io.Writer, romRoot string) error {
	files, err := rawprogram.Find(romRoot)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no rawprogram*.xml found"))
		return nil
	}

	for _, f := range files {
		entries, err := rawprogram.Parse(f)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			sparseMark := ""
			if e.Sparse {
				sparseMark = "yes"
			}
			rows = append(rows, []string{
				e.Label,
				e.Filename,
				strconv.Itoa(e.LUN),
				strconv.FormatUint(e.StartSector, 10),
				humanfmt.BytesUint64(e.Bytes()),
				sparseMark,
			})
		}

		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%d entries)", filepath.Base(f), len(entries))))
		fmt.Fprint(w, renderTable([]string{"LABEL", "FILE", "LUN", "START", "SIZE", "SPARSE"}, rows))
		fmt.Fprintln(w)
	}
	return nil
}
