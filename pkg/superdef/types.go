// Package superdef reads the per-region super partition layouts shipped in a
// ROM's META directory (super_def.<nvid>.json).
//
// Discover produces lightweight RegionDescriptor summaries for selection;
// Parse loads one layout into a fully defaulted SuperBuildConfig.
package superdef

import (
	"fmt"
	"path/filepath"

	"github.com/eunmann/superforge/pkg/humanfmt"
)

// Layout defaults applied when the source config omits them.
const (
	DefaultBlockSize = 4096
	DefaultAlignment = 1024 * 1024
	DefaultGroupName = "default"
	UnknownLabel     = "Unknown"
)

// PartitionSpec is one logical partition of the super layout.
// An empty SourcePath marks a placeholder: declared, but without image data.
type PartitionSpec struct {
	Name       string
	SourcePath string
	SizeBytes  uint64
	GroupName  string
	IsDynamic  bool
}

// HasImage reports whether the partition carries image data.
func (p PartitionSpec) HasImage() bool {
	return p.SourcePath != ""
}

// ImagePath resolves SourcePath, which is relative to the ROM root and uses
// forward slashes, against romRoot.
func (p PartitionSpec) ImagePath(romRoot string) string {
	return filepath.Join(romRoot, filepath.FromSlash(p.SourcePath))
}

// GroupSpec is a named size quota shared by the partitions assigned to it.
type GroupSpec struct {
	Name             string
	MaximumSizeBytes uint64
}

// SuperBuildConfig is a fully parsed and defaulted super layout for one region.
type SuperBuildConfig struct {
	BlockSize        uint64
	Alignment        uint64
	DeviceSizeBytes  uint64
	Groups           []GroupSpec
	Partitions       []PartitionSpec
	RegionID         string
	RegionLabel      string
	SourceConfigPath string
}

// DataPartitions returns the partitions that carry a source path, in
// declared order. Placeholders never take part in a build.
func (c *SuperBuildConfig) DataPartitions() []PartitionSpec {
	out := make([]PartitionSpec, 0, len(c.Partitions))
	for _, p := range c.Partitions {
		if p.HasImage() {
			out = append(out, p)
		}
	}
	return out
}

// Group returns the first group declared under name.
func (c *SuperBuildConfig) Group(name string) (GroupSpec, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return GroupSpec{}, false
}

// RegionDescriptor summarizes one region config without a full parse.
type RegionDescriptor struct {
	RegionID               string
	RegionLabel            string
	ConfigPath             string
	AggregateUsedSizeBytes uint64
	PartitionCount         int
}

// DisplayName renders the region for selection lists, e.g.
// "Europe (10010111) - 8.50 GB, 12 partitions".
func (r RegionDescriptor) DisplayName() string {
	return fmt.Sprintf("%s (%s) - %s, %d partitions",
		r.RegionLabel, r.RegionID, humanfmt.GB(r.AggregateUsedSizeBytes), r.PartitionCount)
}
