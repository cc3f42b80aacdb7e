// Package toolloc resolves the external converter and packer binaries.
//
// Resolution happens once, at startup, and the result is injected into the
// assembler; nothing below the CLI looks tools up on its own.
package toolloc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrToolNotFound indicates a required tool could not be located.
var ErrToolNotFound = errors.New("tool not found")

// Tool names one of the external binaries.
type Tool string

const (
	// Converter expands sparse images to raw ones.
	Converter Tool = "simg2img"
	// Packer builds the super image from raw partition images.
	Packer Tool = "lpmake"
)

// Locator returns the executable path of a tool.
type Locator interface {
	Locate(tool Tool) (string, error)
}

// Static is a Locator over fixed paths. Paths are returned as-is without
// checking the filesystem.
type Static map[Tool]string

// Locate implements Locator.
func (s Static) Locate(tool Tool) (string, error) {
	if p, ok := s[tool]; ok && p != "" {
		return p, nil
	}
	return "", fmt.Errorf("%s: %w", tool, ErrToolNotFound)
}

// Dir locates tools in a bundled tools directory and then on $PATH.
// Overrides, when set for a tool, are used exclusively.
type Dir struct {
	// Root is the bundled tools directory. May be empty.
	Root string
	// Overrides maps a tool to an explicit executable path.
	Overrides map[Tool]string
	// SkipPath disables the $PATH fallback.
	SkipPath bool
}

// Locate implements Locator.
func (d Dir) Locate(tool Tool) (string, error) {
	if p := d.Overrides[tool]; p != "" {
		if isExecutableFile(p) {
			return p, nil
		}
		return "", fmt.Errorf("%s at %s: %w", tool, p, ErrToolNotFound)
	}

	name := executableName(string(tool))
	if d.Root != "" {
		p := filepath.Join(d.Root, name)
		if isExecutableFile(p) {
			return p, nil
		}
	}

	if !d.SkipPath {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}

	if d.Root != "" {
		return "", fmt.Errorf("%s not in %s or $PATH: %w", name, d.Root, ErrToolNotFound)
	}
	return "", fmt.Errorf("%s not in $PATH: %w", name, ErrToolNotFound)
}

// Resolve locates every tool and returns them as a Static locator, so a
// missing tool is reported before any work starts.
func Resolve(l Locator, tools ...Tool) (Static, error) {
	if len(tools) == 0 {
		tools = []Tool{Converter, Packer}
	}
	out := make(Static, len(tools))
	var errs []error
	for _, t := range tools {
		p, err := l.Locate(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[t] = p
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
