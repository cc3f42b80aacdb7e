// Package fileutil provides the small filesystem helpers shared by the
// discovery, path and build packages.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Exists returns true if the path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsNonEmpty returns true if the file exists and has non-zero size.
func IsNonEmpty(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() > 0
}

// IsDir returns true if the path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Size returns the size in bytes of the file at path.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}

// ResetDir removes dir and everything below it, then recreates it empty.
// It reports how many entries a previous run left behind.
func ResetDir(dir string) (stale int, err error) {
	if entries, err := os.ReadDir(dir); err == nil {
		stale = len(entries)
	}

	if err := os.RemoveAll(dir); err != nil {
		return stale, fmt.Errorf("remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return stale, fmt.Errorf("create %s: %w", dir, err)
	}
	return stale, nil
}

// RemoveDir removes dir recursively. A missing directory is not an error.
func RemoveDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}

// Match returns the regular files directly inside dir whose names match
// pattern, sorted by name. Only the name is matched, so dir may contain glob
// metacharacters. A missing dir yields no matches and no error.
func Match(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return filepath.Base(out[i]) < filepath.Base(out[j])
	})
	return out, nil
}
