package superdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// fileSchema mirrors super_def.<nvid>.json. Pointer fields distinguish an
// absent key from an explicit zero so defaults are applied only once, in Parse.
type fileSchema struct {
	NVID         *Label              `json:"nv_id"`
	NVText       *Label              `json:"nv_text"`
	BlockDevices []blockDeviceSchema `json:"block_devices"`
	Groups       []groupSchema       `json:"groups"`
	Partitions   []partitionSchema   `json:"partitions"`
	SuperDevice  *superDeviceSchema  `json:"super_device"`
}

type blockDeviceSchema struct {
	Name      string `json:"name"`
	BlockSize *Size  `json:"block_size"`
	Alignment *Size  `json:"alignment"`
	Size      Size   `json:"size"`
}

type groupSchema struct {
	Name        string `json:"name"`
	MaximumSize Size   `json:"maximum_size"`
}

type partitionSchema struct {
	Name      string  `json:"name"`
	Path      *string `json:"path"`
	Size      Size    `json:"size"`
	GroupName *string `json:"group_name"`
	IsDynamic *bool   `json:"is_dynamic"`
}

type superDeviceSchema struct {
	UsedSize Size `json:"used_size"`
}

// Parse loads the layout file at path into a SuperBuildConfig.
//
// Absent block size and alignment default to 4096 and 1 MiB, an absent group
// to "default", absent lists to empty. Only the first block device is read.
// Every failure matches ErrConfigParse.
func Parse(path string) (*SuperBuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var doc fileSchema
	if err := decodeObject(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	cfg := &SuperBuildConfig{
		BlockSize:        DefaultBlockSize,
		Alignment:        DefaultAlignment,
		Groups:           make([]GroupSpec, 0, len(doc.Groups)),
		Partitions:       make([]PartitionSpec, 0, len(doc.Partitions)),
		RegionID:         labelOr(doc.NVID, regionIDFromFilename(path)),
		RegionLabel:      labelOr(doc.NVText, UnknownLabel),
		SourceConfigPath: path,
	}

	if len(doc.BlockDevices) > 0 {
		dev := doc.BlockDevices[0]
		if dev.BlockSize != nil {
			cfg.BlockSize = uint64(*dev.BlockSize)
		}
		if dev.Alignment != nil {
			cfg.Alignment = uint64(*dev.Alignment)
		}
		cfg.DeviceSizeBytes = uint64(dev.Size)
	}

	for _, g := range doc.Groups {
		cfg.Groups = append(cfg.Groups, GroupSpec{
			Name:             g.Name,
			MaximumSizeBytes: uint64(g.MaximumSize),
		})
	}

	for _, p := range doc.Partitions {
		spec := PartitionSpec{
			Name:       p.Name,
			SourcePath: stringOr(p.Path, ""),
			SizeBytes:  uint64(p.Size),
			GroupName:  stringOr(p.GroupName, DefaultGroupName),
			IsDynamic:  true,
		}
		if p.IsDynamic != nil {
			spec.IsDynamic = *p.IsDynamic
		}
		cfg.Partitions = append(cfg.Partitions, spec)
	}

	return cfg, nil
}

// decodeObject unmarshals data into v, rejecting anything whose top level is
// not a JSON object (including a bare null).
func decodeObject(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty document")
	}
	if trimmed[0] != '{' {
		return errors.New("top level is not a JSON object")
	}
	return json.Unmarshal(trimmed, v)
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func labelOr(l *Label, fallback string) string {
	if l == nil {
		return fallback
	}
	return string(*l)
}

// regionIDFromFilename returns the last dotted component of the file stem:
// "super_def.10010111.json" yields "10010111".
func regionIDFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.LastIndexByte(stem, '.'); i >= 0 {
		return stem[i+1:]
	}
	return stem
}
