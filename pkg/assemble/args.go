package assemble

import (
	"strconv"

	"github.com/eunmann/superforge/pkg/superdef"
)

// Fixed packer metadata parameters.
const (
	MetadataSize  = 65536
	MetadataSlots = 3
)

// PackedPartition is a produced partition as the packer sees it.
type PackedPartition struct {
	Name      string
	Group     string
	ImagePath string
	SizeBytes uint64
}

// PackerPlan holds everything that goes on the packer command line.
type PackerPlan struct {
	DeviceSize    uint64
	MetadataSize  int
	MetadataSlots int
	OutputPath    string
	Groups        []superdef.GroupSpec
	Partitions    []PackedPartition
}

// Args renders the plan as packer arguments:
//
//	--device-size N --metadata-size M --metadata-slots S --output PATH
//	--group NAME:MAX ...
//	--partition NAME:readonly:SIZE:GROUP --image NAME=PATH ...
func (p PackerPlan) Args() []string {
	args := make([]string, 0, 8+2*len(p.Groups)+4*len(p.Partitions))
	args = append(args,
		"--device-size", strconv.FormatUint(p.DeviceSize, 10),
		"--metadata-size", strconv.Itoa(p.MetadataSize),
		"--metadata-slots", strconv.Itoa(p.MetadataSlots),
		"--output", p.OutputPath,
	)
	for _, g := range p.Groups {
		args = append(args, "--group", g.Name+":"+strconv.FormatUint(g.MaximumSizeBytes, 10))
	}
	for _, part := range p.Partitions {
		args = append(args,
			"--partition", part.Name+":readonly:"+strconv.FormatUint(part.SizeBytes, 10)+":"+part.Group,
			"--image", part.Name+"="+part.ImagePath,
		)
	}
	return args
}

// ActiveGroups returns the declared groups referenced by at least one
// partition, in declaration order. A name declared twice is kept once, with
// its first declaration. Groups nobody references, typically an empty
// "default", are left out so they do not take metadata slots.
func ActiveGroups(declared []superdef.GroupSpec, partitions []PackedPartition) []superdef.GroupSpec {
	used := make(map[string]bool, len(partitions))
	for _, p := range partitions {
		used[p.Group] = true
	}

	added := make(map[string]bool, len(declared))
	var out []superdef.GroupSpec
	for _, g := range declared {
		if added[g.Name] || !used[g.Name] {
			continue
		}
		added[g.Name] = true
		out = append(out, g)
	}
	return out
}
