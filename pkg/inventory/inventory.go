// Package inventory flattens the region layouts of a ROM into one row per
// region and partition, with the on-disk state of each image, and stores
// them as Parquet for offline analysis.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/eunmann/superforge/pkg/fileutil"
	"github.com/eunmann/superforge/pkg/sparse"
	"github.com/eunmann/superforge/pkg/superdef"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"golang.org/x/sync/errgroup"
)

// collectConcurrency bounds how many regions are inspected at once.
const collectConcurrency = 4

// Row is one partition of one region.
type Row struct {
	RegionID    string `parquet:"region_id,dict"`
	RegionLabel string `parquet:"region_label,dict"`
	Partition   string `parquet:"partition"`
	Group       string `parquet:"group_name,dict"`
	SourcePath  string `parquet:"source_path,optional"`
	SizeBytes   uint64 `parquet:"size_bytes"`
	// ImageState is "missing", "raw", "sparse", or "placeholder" for
	// partitions declared without image data.
	ImageState string `parquet:"image_state,dict"`
	// ImageBytes is the on-disk size; RawBytes the expanded size of a
	// sparse image (equal to ImageBytes for raw images).
	ImageBytes int64  `parquet:"image_bytes"`
	RawBytes   uint64 `parquet:"raw_bytes"`
}

// Placeholder marks a partition with no source image.
const Placeholder = "placeholder"

// Collect parses every region's layout and inspects the referenced images
// under romRoot. Rows keep region order, then partition order. A region that
// fails to parse aborts the collection.
func Collect(ctx context.Context, romRoot string, regions []superdef.RegionDescriptor) ([]Row, error) {
	perRegion := make([][]Row, len(regions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(collectConcurrency)
	for i, r := range regions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg, err := superdef.Parse(r.ConfigPath)
			if err != nil {
				return fmt.Errorf("region %s: %w", r.RegionID, err)
			}
			rows := make([]Row, 0, len(cfg.Partitions))
			for _, p := range cfg.Partitions {
				rows = append(rows, describe(romRoot, cfg, p))
			}
			perRegion[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(perRegion...), nil
}

func describe(romRoot string, cfg *superdef.SuperBuildConfig, p superdef.PartitionSpec) Row {
	row := Row{
		RegionID:    cfg.RegionID,
		RegionLabel: cfg.RegionLabel,
		Partition:   p.Name,
		Group:       p.GroupName,
		SourcePath:  p.SourcePath,
		SizeBytes:   p.SizeBytes,
		ImageState:  Placeholder,
	}
	if !p.HasImage() {
		return row
	}

	path := p.ImagePath(romRoot)
	kind := sparse.Classify(path)
	row.ImageState = kind.String()
	if kind == sparse.Missing {
		return row
	}
	if size, err := fileutil.Size(path); err == nil {
		row.ImageBytes = size
		row.RawBytes = uint64(size)
	}
	if kind == sparse.Sparse {
		if h, err := sparse.ReadHeader(path); err == nil {
			row.RawBytes = h.RawSize()
		}
	}
	return row
}

// Write stores rows as a Parquet file at path.
func Write(path string, rows []Row) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := Encode(f, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Encode writes rows as zstd-compressed Parquet to w.
func Encode(w io.Writer, rows []Row) error {
	pw := parquet.NewGenericWriter[Row](w, parquet.Compression(&zstd.Codec{}))
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("finish parquet: %w", err)
	}
	return nil
}

// Read loads every row from a Parquet file written by Write.
func Read(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pr := parquet.NewGenericReader[Row](f)
	defer pr.Close()

	rows := make([]Row, 0, pr.NumRows())
	buf := make([]Row, 256)
	for {
		n, err := pr.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
}
