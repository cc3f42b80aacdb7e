// Package assemble builds a super image from a parsed region layout.
//
// A build runs in two stages. Stage 1 walks the data partitions in declared
// order and makes each one available as a raw image, expanding sparse images
// with the converter into a temporary directory next to the output. Stage 2
// hands the raw images, the groups they reference and the device size to the
// packer. Per-partition problems in Stage 1 are logged and absorbed; anything
// that stops the build is returned as an error alongside the Result.
//
// The pipeline is strictly sequential and runs one external process at a
// time. Callers run Build on their own goroutine and must not run two builds
// for the same output path concurrently.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eunmann/superforge/internal/logctx"
	"github.com/eunmann/superforge/pkg/diskspace"
	"github.com/eunmann/superforge/pkg/fileutil"
	"github.com/eunmann/superforge/pkg/humanfmt"
	"github.com/eunmann/superforge/pkg/procexec"
	"github.com/eunmann/superforge/pkg/sparse"
	"github.com/eunmann/superforge/pkg/superdef"
	"github.com/eunmann/superforge/pkg/toolloc"
)

// Default tool timeouts.
const (
	DefaultConvertTimeout = 10 * time.Minute
	DefaultPackTimeout    = 30 * time.Minute
	DefaultStderrLimit    = 500
)

// Options tunes a Builder. Zero fields take defaults in Validate.
type Options struct {
	// ConvertTimeout bounds each converter run.
	ConvertTimeout time.Duration
	// PackTimeout bounds the packer run.
	PackTimeout time.Duration
	// StderrLimit caps tool output quoted in logs and errors.
	StderrLimit int
	// SkipSpaceCheck disables the free-space preflight warning.
	SkipSpaceCheck bool
}

// Validate fills unset fields with defaults.
func (o *Options) Validate() {
	if o.ConvertTimeout <= 0 {
		o.ConvertTimeout = DefaultConvertTimeout
	}
	if o.PackTimeout <= 0 {
		o.PackTimeout = DefaultPackTimeout
	}
	if o.StderrLimit <= 0 {
		o.StderrLimit = DefaultStderrLimit
	}
}

// Builder assembles super images. It is safe to reuse across builds.
type Builder struct {
	exec  procexec.Executor
	tools toolloc.Locator
	opts  Options
}

// NewBuilder returns a Builder running tools found by tools through exec.
func NewBuilder(exec procexec.Executor, tools toolloc.Locator, opts Options) *Builder {
	opts.Validate()
	return &Builder{exec: exec, tools: tools, opts: opts}
}

// TempDir returns the directory holding converted raw images for a build
// writing outputPath: "_temp_raw.<output stem>" next to the output.
func TempDir(outputPath string) string {
	base := filepath.Base(outputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(outputPath), "_temp_raw."+stem)
}

// Build assembles cfg into outputPath, resolving partition source paths
// against romRoot and reporting to obs (nil means Discard).
//
// The returned Result is never nil. On success the temporary directory is
// removed; on failure it is kept for inspection.
func (b *Builder) Build(ctx context.Context, cfg *superdef.SuperBuildConfig, romRoot, outputPath string, obs Observer) (*Result, error) {
	if obs == nil {
		obs = Discard
	}
	start := time.Now()
	res := &Result{
		State:      StateIdle,
		OutputPath: outputPath,
		TempDir:    TempDir(outputPath),
	}
	defer func() { res.Elapsed = time.Since(start) }()

	log := logctx.FromContext(ctx).With().Str("phase", "assemble").Logger()

	converter, packer, err := b.preflight(cfg, romRoot, outputPath, obs)
	if err != nil {
		obs.OnLog(Error, err.Error())
		return res, err
	}

	// Stage 1: make every data partition available as a raw image.
	data := cfg.DataPartitions()
	total := 2 * len(data)
	res.State = StateConverting

	obs.OnLog(Info, fmt.Sprintf("Stage 1: Converting %d images to raw...", len(data)))
	obs.OnLog(Info, fmt.Sprintf("Region: %s (NV ID: %s)", cfg.RegionLabel, cfg.RegionID))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return b.fail(res, obs, StateFailed, fmt.Errorf("%w: create output dir: %w", ErrIO, err))
	}
	stale, err := fileutil.ResetDir(res.TempDir)
	if err != nil {
		return b.fail(res, obs, StateFailed, fmt.Errorf("%w: prepare temp dir: %w", ErrIO, err))
	}
	if stale > 0 {
		log.Debug().Str("dir", res.TempDir).Int("stale_entries", stale).Msg("cleared leftovers from a previous run")
	}

	for i, p := range data {
		obs.OnProgress(i, total)
		pctx := logctx.WithStr(ctx, "partition", p.Name)
		outcome := b.stage(pctx, p, romRoot, res.TempDir, converter, obs)
		logctx.FromContext(pctx).Debug().
			Str("phase", "assemble").
			Stringer("status", outcome.Status).
			Uint64("size", outcome.SizeBytes).
			AnErr("reason", outcome.Err).
			Msg("partition staged")
		res.Partitions = append(res.Partitions, outcome)
	}

	produced := res.Produced()
	if len(produced) == 0 {
		// Nothing was converted, so an empty temp dir carries no diagnostics.
		_ = os.Remove(res.TempDir)
		return b.fail(res, obs, StateAborted, ErrNoPartitionsAvailable)
	}

	// Stage 2: pack the produced images.
	res.State = StatePacking
	obs.OnLog(Info, fmt.Sprintf("Stage 2: Creating %s with %d partitions...", filepath.Base(outputPath), len(produced)))

	plan := PackerPlan{
		DeviceSize:    cfg.DeviceSizeBytes,
		MetadataSize:  MetadataSize,
		MetadataSlots: MetadataSlots,
		OutputPath:    outputPath,
		Partitions:    make([]PackedPartition, 0, len(produced)),
	}
	for _, p := range produced {
		plan.Partitions = append(plan.Partitions, PackedPartition{
			Name:      p.Name,
			Group:     p.Group,
			ImagePath: p.RawPath,
			SizeBytes: p.SizeBytes,
		})
	}
	plan.Groups = ActiveGroups(cfg.Groups, plan.Partitions)

	for _, g := range plan.Groups {
		res.Groups = append(res.Groups, g.Name)
		obs.OnLog(Info, fmt.Sprintf("Added group: %s (max: %s)", g.Name, humanfmt.GB(g.MaximumSizeBytes)))
	}
	b.warnUndeclaredGroups(plan, obs)

	cmd := procexec.Command{Path: packer, Args: plan.Args(), Timeout: b.opts.PackTimeout}
	log.Debug().Str("cmd", cmd.String()).Msg("running packer")
	obs.OnLog(Info, fmt.Sprintf("Running %s with %d partitions...", filepath.Base(packer), len(produced)))
	obs.OnProgress(len(data), total)

	run, err := b.exec.Run(ctx, cmd)
	if err != nil || !run.Success() {
		toolErr := &ToolError{
			Stage:    StagePack,
			ExitCode: run.ExitCode,
			TimedOut: errors.Is(err, procexec.ErrTimedOut),
			Stderr:   procexec.Truncate(run.Stderr, b.opts.StderrLimit),
			Err:      err,
		}
		if toolErr.TimedOut {
			obs.OnLog(Error, fmt.Sprintf("ERROR: %s timeout (>%s)", filepath.Base(packer), humanfmt.Duration(b.opts.PackTimeout)))
		} else {
			obs.OnLog(Error, fmt.Sprintf("ERROR: %s failed", filepath.Base(packer)))
		}
		if toolErr.Stderr != "" {
			obs.OnLog(Error, toolErr.Stderr)
		} else if err != nil {
			obs.OnLog(Error, err.Error())
		}
		res.State = StateFailed
		return res, toolErr
	}

	size, err := fileutil.Size(outputPath)
	if err != nil {
		return b.fail(res, obs, StateFailed, fmt.Errorf("%w: packer reported success but output is unreadable: %w", ErrIO, err))
	}
	res.OutputSize = size

	obs.OnLog(Success, fmt.Sprintf("Super image created! Size: %s", humanfmt.GB(uint64(size))))
	obs.OnLog(Info, fmt.Sprintf("Output: %s", outputPath))

	obs.OnLog(Info, "Cleaning up temporary files...")
	if err := fileutil.RemoveDir(res.TempDir); err != nil {
		obs.OnLog(Warning, fmt.Sprintf("WARNING: could not remove %s: %v", res.TempDir, err))
	}

	obs.OnProgress(total, total)
	res.State = StateSucceeded
	return res, nil
}

// preflight resolves both tools and checks the layout before anything is
// written.
func (b *Builder) preflight(cfg *superdef.SuperBuildConfig, romRoot, outputPath string, obs Observer) (converter, packer string, err error) {
	if cfg == nil {
		return "", "", fmt.Errorf("%w: no config", ErrInvalidConfig)
	}
	if outputPath == "" {
		return "", "", fmt.Errorf("%w: output path required", ErrInvalidConfig)
	}

	var errs []error
	converter, cerr := b.tools.Locate(toolloc.Converter)
	if cerr != nil {
		errs = append(errs, cerr)
	}
	packer, perr := b.tools.Locate(toolloc.Packer)
	if perr != nil {
		errs = append(errs, perr)
	}
	if len(errs) > 0 {
		return "", "", errors.Join(errs...)
	}

	if cfg.DeviceSizeBytes == 0 {
		return "", "", fmt.Errorf("%w: device size is zero in %s", ErrInvalidConfig, cfg.SourceConfigPath)
	}

	if !b.opts.SkipSpaceCheck {
		b.checkSpace(cfg, romRoot, outputPath, obs)
	}
	return converter, packer, nil
}

// checkSpace warns when the output volume looks too small for the raw images
// and the super image. It never fails the build.
func (b *Builder) checkSpace(cfg *superdef.SuperBuildConfig, romRoot, outputPath string, obs Observer) {
	var need uint64
	for _, p := range cfg.DataPartitions() {
		src := p.ImagePath(romRoot)
		if h, err := sparse.ReadHeader(src); err == nil {
			need += 2 * h.RawSize() // temp raw file plus its copy inside the super image
			continue
		}
		if size, err := fileutil.Size(src); err == nil {
			need += uint64(size)
		}
	}

	probeDir := filepath.Dir(outputPath)
	for !fileutil.IsDir(probeDir) && filepath.Dir(probeDir) != probeDir {
		probeDir = filepath.Dir(probeDir)
	}
	if r, ok := diskspace.Sufficient(probeDir, need); !ok {
		obs.OnLog(Warning, fmt.Sprintf("WARNING: about %s needed in %s but only %s free",
			humanfmt.GB(need), probeDir, humanfmt.GB(r.AvailableBytes)))
	}
}

// stage makes one data partition available as a raw image.
func (b *Builder) stage(ctx context.Context, p superdef.PartitionSpec, romRoot, tempDir, converter string, obs Observer) PartitionOutcome {
	src := p.ImagePath(romRoot)
	out := PartitionOutcome{Name: p.Name, Group: p.GroupName, SourcePath: src}

	if !fileutil.Exists(src) {
		obs.OnLog(Warning, fmt.Sprintf("WARNING: %s not found, skipping", p.SourcePath))
		out.Status = Skipped
		out.Err = fmt.Errorf("%s: %w", p.SourcePath, ErrSourceMissing)
		return out
	}

	if !sparse.IsSparse(src) {
		size, err := fileutil.Size(src)
		if err != nil {
			obs.OnLog(Error, fmt.Sprintf("ERROR: %v", err))
			out.Status = Failed
			out.Err = err
			return out
		}
		obs.OnLog(Info, fmt.Sprintf("Using raw: %s", filepath.Base(src)))
		out.Status = Produced
		out.RawPath = src
		out.SizeBytes = uint64(size)
		return out
	}

	rawPath := filepath.Join(tempDir, p.Name+".raw")
	obs.OnLog(Info, fmt.Sprintf("Converting %s...", filepath.Base(src)))

	run, err := b.exec.Run(ctx, procexec.Command{
		Path:    converter,
		Args:    []string{src, rawPath},
		Timeout: b.opts.ConvertTimeout,
	})
	if err != nil || !run.Success() {
		toolErr := &ToolError{
			Stage:     StageConvert,
			Partition: p.Name,
			ExitCode:  run.ExitCode,
			TimedOut:  errors.Is(err, procexec.ErrTimedOut),
			Stderr:    procexec.Truncate(run.Stderr, b.opts.StderrLimit),
			Err:       err,
		}
		if toolErr.TimedOut {
			obs.OnLog(Error, fmt.Sprintf("ERROR: Conversion timeout for %s", filepath.Base(src)))
		} else {
			obs.OnLog(Error, fmt.Sprintf("ERROR: %v", toolErr))
		}
		out.Status = Failed
		out.Err = toolErr
		return out
	}

	size, err := fileutil.Size(rawPath)
	if err != nil {
		obs.OnLog(Error, fmt.Sprintf("ERROR: converter produced no output for %s", p.Name))
		out.Status = Failed
		out.Err = &ToolError{Stage: StageConvert, Partition: p.Name, Err: err}
		return out
	}

	obs.OnLog(Info, fmt.Sprintf("Converted: %s -> %s", filepath.Base(src), filepath.Base(rawPath)))
	out.Status = Produced
	out.Converted = true
	out.RawPath = rawPath
	out.SizeBytes = uint64(size)
	return out
}

// warnUndeclaredGroups flags partitions whose group is not declared in the
// layout. The packer decides whether that is fatal.
func (b *Builder) warnUndeclaredGroups(plan PackerPlan, obs Observer) {
	declared := make(map[string]bool, len(plan.Groups))
	for _, g := range plan.Groups {
		declared[g.Name] = true
	}
	for _, p := range plan.Partitions {
		if !declared[p.Group] {
			obs.OnLog(Warning, fmt.Sprintf("WARNING: partition %s uses undeclared group %s", p.Name, p.Group))
		}
	}
}

func (b *Builder) fail(res *Result, obs Observer, state State, err error) (*Result, error) {
	res.State = state
	obs.OnLog(Error, "ERROR: "+err.Error())
	return res, err
}
