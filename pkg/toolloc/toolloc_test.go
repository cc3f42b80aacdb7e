package toolloc

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeTool(t *testing.T, dir string, tool Tool, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, executableName(string(tool)))
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStatic(t *testing.T) {
	s := Static{Converter: "/opt/tools/simg2img"}

	p, err := s.Locate(Converter)
	if err != nil || p != "/opt/tools/simg2img" {
		t.Errorf("Locate(Converter) = %q, %v", p, err)
	}
	if _, err := s.Locate(Packer); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Locate(Packer) err = %v, want ErrToolNotFound", err)
	}
}

func TestDir_BundledRoot(t *testing.T) {
	root := t.TempDir()
	want := writeTool(t, root, Converter, 0755)

	got, err := Dir{Root: root, SkipPath: true}.Locate(Converter)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got != want {
		t.Errorf("Locate = %q, want %q", got, want)
	}

	if _, err := (Dir{Root: root, SkipPath: true}).Locate(Packer); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("missing packer err = %v, want ErrToolNotFound", err)
	}
}

func TestDir_NotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	root := t.TempDir()
	writeTool(t, root, Packer, 0644)

	if _, err := (Dir{Root: root, SkipPath: true}).Locate(Packer); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("err = %v, want ErrToolNotFound for non-executable file", err)
	}
}

func TestDir_Override(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writeTool(t, root, Packer, 0755)
	override := writeTool(t, other, Packer, 0755)

	got, err := Dir{Root: root, Overrides: map[Tool]string{Packer: override}}.Locate(Packer)
	if err != nil || got != override {
		t.Errorf("Locate = %q, %v; want override %q", got, err, override)
	}

	_, err = Dir{Root: root, Overrides: map[Tool]string{Packer: filepath.Join(other, "nope")}}.Locate(Packer)
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("bad override err = %v, want ErrToolNotFound", err)
	}
}

func TestDir_PathFallback(t *testing.T) {
	pathDir := t.TempDir()
	want := writeTool(t, pathDir, Converter, 0755)
	t.Setenv("PATH", pathDir)

	got, err := Dir{Root: t.TempDir()}.Locate(Converter)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got != want {
		t.Errorf("Locate = %q, want %q", got, want)
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	conv := writeTool(t, root, Converter, 0755)
	pack := writeTool(t, root, Packer, 0755)

	tools, err := Resolve(Dir{Root: root, SkipPath: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tools[Converter] != conv || tools[Packer] != pack {
		t.Errorf("Resolve = %v", tools)
	}

	_, err = Resolve(Dir{Root: t.TempDir(), SkipPath: true})
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("empty root err = %v, want ErrToolNotFound", err)
	}
}
