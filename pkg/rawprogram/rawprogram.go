// Package rawprogram reads the Qualcomm flashing descriptors
// (rawprogram*.xml) that ship alongside a ROM's images. They list which
// image file is written to which LUN and sector range.
package rawprogram

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/eunmann/superforge/pkg/fileutil"
	"github.com/eunmann/superforge/pkg/imagepath"
)

// DefaultSectorSize applies when an entry omits SECTOR_SIZE_IN_BYTES.
const DefaultSectorSize = 4096

// Descriptor variants that only erase or lay out the partition table.
var skipMarkers = []string{"BLANK_GPT", "WIPE_PARTITIONS"}

// Entry is one <program> element that writes a file.
type Entry struct {
	Label       string
	Filename    string
	StartSector uint64
	NumSectors  uint64
	LUN         int
	SectorSize  int
	Sparse      bool
}

// Bytes returns the size of the target range.
func (e Entry) Bytes() uint64 {
	return e.NumSectors * uint64(e.SectorSize)
}

type document struct {
	Programs []program `xml:"program"`
}

type program struct {
	Label       string `xml:"label,attr"`
	Filename    string `xml:"filename,attr"`
	StartSector string `xml:"start_sector,attr"`
	NumSectors  string `xml:"num_partition_sectors,attr"`
	LUN         string `xml:"physical_partition_number,attr"`
	SectorSize  string `xml:"SECTOR_SIZE_IN_BYTES,attr"`
	Sparse      string `xml:"sparse,attr"`
}

// Find lists the descriptors under romRoot/IMAGES, or under romRoot itself
// when there is no IMAGES directory. Erase-only variants are excluded and the
// result is sorted.
func Find(romRoot string) ([]string, error) {
	dir := filepath.Join(romRoot, imagepath.ImagesDir)
	if !fileutil.IsDir(dir) {
		dir = romRoot
	}

	matches, err := fileutil.Match(dir, "rawprogram*.xml")
	if err != nil {
		return nil, fmt.Errorf("list rawprogram: %w", err)
	}

	var out []string
	for _, m := range matches {
		if skipped(filepath.Base(m)) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func skipped(name string) bool {
	for _, marker := range skipMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// Parse reads the <program> elements of a descriptor. Elements without a
// filename (pure erase ranges) are dropped.
func Parse(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var doc document
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var entries []Entry
	for i, p := range doc.Programs {
		if p.Filename == "" {
			continue
		}
		e, err := p.entry()
		if err != nil {
			return nil, fmt.Errorf("%s: program %d (%s): %w", path, i, p.Label, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (p program) entry() (Entry, error) {
	e := Entry{
		Label:      p.Label,
		Filename:   p.Filename,
		SectorSize: DefaultSectorSize,
		Sparse:     strings.EqualFold(strings.TrimSpace(p.Sparse), "true"),
	}

	var err error
	if e.StartSector, err = parseUint("start_sector", p.StartSector); err != nil {
		return Entry{}, err
	}
	if e.NumSectors, err = parseUint("num_partition_sectors", p.NumSectors); err != nil {
		return Entry{}, err
	}
	lun, err := parseUint("physical_partition_number", p.LUN)
	if err != nil {
		return Entry{}, err
	}
	e.LUN = int(lun)
	if strings.TrimSpace(p.SectorSize) != "" {
		size, err := parseUint("SECTOR_SIZE_IN_BYTES", p.SectorSize)
		if err != nil {
			return Entry{}, err
		}
		e.SectorSize = int(size)
	}
	return e, nil
}

// parseUint treats an absent attribute as zero. Some descriptors use
// expressions such as "NUM_DISK_SECTORS-5." for start_sector; those are not
// resolvable without the disk geometry and also read as zero.
func parseUint(attr, v string) (uint64, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.Contains(v, "NUM_DISK_SECTORS") {
		return 0, nil
	}
	n, err := strconv.ParseUint(strings.TrimSuffix(v, "."), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", attr, err)
	}
	return n, nil
}
