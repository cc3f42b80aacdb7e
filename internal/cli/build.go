package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/eunmann/superforge/internal/config"
	"github.com/eunmann/superforge/internal/logctx"
	"github.com/eunmann/superforge/pkg/assemble"
	"github.com/eunmann/superforge/pkg/fileutil"
	"github.com/eunmann/superforge/pkg/humanfmt"
	"github.com/eunmann/superforge/pkg/imagepath"
	"github.com/eunmann/superforge/pkg/logging"
	"github.com/eunmann/superforge/pkg/toolloc"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type buildFlags struct {
	region         string
	suffix         bool
	force          bool
	output         string
	skipSpaceCheck bool
}

func (a *app) buildCommand() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build <rom-dir>",
		Short: "Assemble the super image for one region",
		Long: `Expand sparse partition images to raw with simg2img, then pack them
with lpmake into IMAGES/super.img (or IMAGES/super.<nvid>.img with --suffix).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBuild(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.region, "region", "", "NV id of the region to build (default: first found)")
	flags.BoolVar(&f.suffix, "suffix", false, "name the output super.<nvid>.img")
	flags.BoolVar(&f.force, "force", false, "overwrite an existing output image")
	flags.StringVar(&f.output, "output", "", "explicit output path (overrides --suffix)")
	flags.BoolVar(&f.skipSpaceCheck, "skip-space-check", false, "skip the free disk space warning")
	return cmd
}

func (a *app) runBuild(ctx context.Context, w io.Writer, romRoot string, f buildFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadRegion(romRoot, f.region)
	if err != nil {
		return err
	}

	output := f.output
	if output == "" {
		output = imagepath.For(romRoot, cfg.RegionID, f.suffix)
	}
	if imagepath.Exists(output) && !f.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", output)
	}

	tools, err := toolloc.Resolve(locator(a.cfg))
	if err != nil {
		return err
	}

	buildID := uuid.NewString()
	ctx = logctx.WithBuild(ctx, buildID, cfg.RegionID)
	log := logctx.FromContext(ctx)
	log.Info().
		Str("rom", romRoot).
		Str("output", output).
		Str("converter", tools[toolloc.Converter]).
		Str("packer", tools[toolloc.Packer]).
		Msg("build started")

	b := assemble.NewBuilder(a.exec, tools, assemble.Options{
		ConvertTimeout: a.cfg.Timeouts.Convert,
		PackTimeout:    a.cfg.Timeouts.Pack,
		SkipSpaceCheck: f.skipSpaceCheck,
	})

	// The build reports through a channel; one goroutine owns the log output.
	events := assemble.NewChannelObserver(64)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		assemble.Drain(events.Events(), logging.NewObserver(log))
	}()

	res, buildErr := b.Build(ctx, cfg, romRoot, output, events)
	events.Close()
	<-drained

	printSummary(w, res)
	if buildErr != nil {
		return buildErr
	}

	logging.FileCreated(log, "pack", res.Elapsed).
		Str("output", res.OutputPath).
		Bytes("size", res.OutputSize).
		Int("partitions", len(res.Produced())).
		Log("super image created")
	return nil
}

// locator builds the tool search from settings. An empty tools.dir means the
// "tools" directory next to the executable.
func locator(cfg *config.Config) toolloc.Dir {
	d := toolloc.Dir{Root: cfg.Tools.Dir, Overrides: map[toolloc.Tool]string{}}
	if d.Root == "" {
		if exe, err := os.Executable(); err == nil {
			d.Root = filepath.Join(filepath.Dir(exe), "tools")
		}
	}
	if cfg.Tools.Converter != "" {
		d.Overrides[toolloc.Converter] = cfg.Tools.Converter
	}
	if cfg.Tools.Packer != "" {
		d.Overrides[toolloc.Packer] = cfg.Tools.Packer
	}
	return d
}

func printSummary(w io.Writer, res *assemble.Result) {
	// Nothing ran when preflight rejected the build; the error says why.
	if res == nil || res.State == assemble.StateIdle {
		return
	}

	rows := make([][]string, 0, len(res.Partitions))
	for _, p := range res.Partitions {
		status := p.Status.String()
		switch p.Status {
		case assemble.Produced:
			if p.Converted {
				status += " (converted)"
			}
			status = successStyle.Render(status)
		case assemble.Skipped:
			status = warningStyle.Render(status)
		case assemble.Failed:
			status = errorStyle.Render(status)
		}
		size := ""
		if p.SizeBytes > 0 {
			size = humanfmt.MB(p.SizeBytes)
		}
		rows = append(rows, []string{p.Name, p.Group, size, status})
	}

	fmt.Fprintln(w)
	if len(rows) > 0 {
		fmt.Fprint(w, renderTable([]string{"PARTITION", "GROUP", "RAW SIZE", "STATUS"}, rows))
		fmt.Fprintln(w)
	}

	switch res.State {
	case assemble.StateSucceeded:
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✓ %s (%s) in %s",
			res.OutputPath, humanfmt.GB(uint64(res.OutputSize)), humanfmt.Duration(res.Elapsed))))
	default:
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ build %s after %s", res.State, humanfmt.Duration(res.Elapsed))))
		if fileutil.IsDir(res.TempDir) {
			fmt.Fprintln(w, mutedStyle.Render("raw images kept in "+res.TempDir))
		}
	}
}
