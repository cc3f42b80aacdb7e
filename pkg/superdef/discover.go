package superdef

import (
	"os"
	"path/filepath"

	"github.com/eunmann/superforge/pkg/fileutil"
)

// Discovery location of region layout files below a ROM root.
const (
	MetaDir       = "META"
	ConfigPattern = "super_def.*.json"
)

// summarySchema is the subset of fileSchema needed to describe a region.
type summarySchema struct {
	NVID        *Label             `json:"nv_id"`
	NVText      *Label             `json:"nv_text"`
	SuperDevice *superDeviceSchema `json:"super_device"`
	Partitions  []struct {
		Path *string `json:"path"`
		Size Size    `json:"size"`
	} `json:"partitions"`
}

// Discover lists the region layouts under romRoot/META in lexicographic
// filename order. A missing META directory yields no regions and no error.
// Files that cannot be read or decoded are skipped and returned separately
// so the caller can report them.
func Discover(romRoot string) ([]RegionDescriptor, []DiscoveryError) {
	paths := configPaths(romRoot)

	regions := make([]RegionDescriptor, 0, len(paths))
	var skipped []DiscoveryError
	for _, path := range paths {
		region, err := describe(path)
		if err != nil {
			skipped = append(skipped, DiscoveryError{Path: path, Err: err})
			continue
		}
		regions = append(regions, region)
	}
	return regions, skipped
}

// FindFirst returns the first region layout under romRoot/META, if any.
func FindFirst(romRoot string) (string, bool) {
	paths := configPaths(romRoot)
	if len(paths) == 0 {
		return "", false
	}
	return paths[0], true
}

func configPaths(romRoot string) []string {
	paths, err := fileutil.Match(filepath.Join(romRoot, MetaDir), ConfigPattern)
	if err != nil {
		return nil
	}
	return paths
}

func describe(path string) (RegionDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RegionDescriptor{}, err
	}

	var doc summarySchema
	if err := decodeObject(data, &doc); err != nil {
		return RegionDescriptor{}, err
	}

	var summed uint64
	count := 0
	for _, p := range doc.Partitions {
		if p.Path == nil || *p.Path == "" {
			continue
		}
		summed += uint64(p.Size)
		count++
	}

	used := summed
	if doc.SuperDevice != nil && doc.SuperDevice.UsedSize > 0 {
		used = uint64(doc.SuperDevice.UsedSize)
	}

	return RegionDescriptor{
		RegionID:               labelOr(doc.NVID, regionIDFromFilename(path)),
		RegionLabel:            labelOr(doc.NVText, UnknownLabel),
		ConfigPath:             path,
		AggregateUsedSizeBytes: used,
		PartitionCount:         count,
	}, nil
}
