// Package imagepath computes where the assembled super image is written.
package imagepath

import (
	"path/filepath"

	"github.com/eunmann/superforge/pkg/fileutil"
)

// ImagesDir is the ROM subdirectory holding partition images and the output.
const ImagesDir = "IMAGES"

// Default returns romRoot/IMAGES/super.img.
func Default(romRoot string) string {
	return filepath.Join(romRoot, ImagesDir, "super.img")
}

// Suffixed returns romRoot/IMAGES/super.<regionID>.img.
func Suffixed(romRoot, regionID string) string {
	return filepath.Join(romRoot, ImagesDir, "super."+regionID+".img")
}

// For picks Suffixed when suffix is requested and a region id is known,
// Default otherwise.
func For(romRoot, regionID string, suffix bool) string {
	if suffix && regionID != "" {
		return Suffixed(romRoot, regionID)
	}
	return Default(romRoot)
}

// OutputExists checks the default output path only. Callers check suffixed
// variants with Exists on their own computed path.
func OutputExists(romRoot string) bool {
	return Exists(Default(romRoot))
}

// Exists is the existence predicate shared by all output paths.
func Exists(path string) bool {
	return fileutil.Exists(path)
}
