package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/eunmann/superforge/pkg/fileutil"
	"github.com/eunmann/superforge/pkg/humanfmt"
	"github.com/eunmann/superforge/pkg/sparse"
	"github.com/spf13/cobra"
)

func (a *app) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image>...",
		Short: "Report whether images are sparse and their expanded size",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectImages(cmd.OutOrStdout(), args)
		},
	}
}

func inspectImages(w io.Writer, paths []string) error {
	var errs []error
	for _, path := range paths {
		fmt.Fprintln(w, titleStyle.Render(path))

		switch sparse.Classify(path) {
		case sparse.Missing:
			fmt.Fprintln(w, "  "+errorStyle.Render("missing"))
			errs = append(errs, fmt.Errorf("%s: not found", path))
		case sparse.Raw:
			size, err := fileutil.Size(path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(w, "  format:   raw\n  size:     %s\n", humanfmt.Bytes(size))
		case sparse.Sparse:
			h, err := sparse.ReadHeader(path)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			size, _ := fileutil.Size(path)
			fmt.Fprintf(w, "  format:   sparse v%s\n", h.Version())
			fmt.Fprintf(w, "  size:     %s\n", humanfmt.Bytes(size))
			fmt.Fprintf(w, "  blocks:   %d x %d bytes in %d chunks\n", h.TotalBlocks, h.BlockSize, h.TotalChunks)
			fmt.Fprintf(w, "  raw size: %s\n", humanfmt.BytesUint64(h.RawSize()))
		}
	}
	return errors.Join(errs...)
}
