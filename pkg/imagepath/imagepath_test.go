package imagepath

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	root := filepath.Join("roms", "PJD110_11_A.15")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"default", Default(root), filepath.Join(root, "IMAGES", "super.img")},
		{"suffixed", Suffixed(root, "10000010"), filepath.Join(root, "IMAGES", "super.10000010.img")},
		{"for with suffix", For(root, "10000010", true), filepath.Join(root, "IMAGES", "super.10000010.img")},
		{"for without suffix", For(root, "10000010", false), filepath.Join(root, "IMAGES", "super.img")},
		{"for empty region", For(root, "", true), filepath.Join(root, "IMAGES", "super.img")},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestOutputExists(t *testing.T) {
	root := t.TempDir()
	if OutputExists(root) {
		t.Fatal("OutputExists true before any output")
	}

	if err := os.MkdirAll(filepath.Join(root, "IMAGES"), 0755); err != nil {
		t.Fatal(err)
	}

	// A suffixed image does not count as the default output.
	if err := os.WriteFile(Suffixed(root, "10000010"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if OutputExists(root) {
		t.Error("OutputExists should ignore suffixed images")
	}
	if !Exists(Suffixed(root, "10000010")) {
		t.Error("Exists should see the suffixed image")
	}

	if err := os.WriteFile(Default(root), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !OutputExists(root) {
		t.Error("OutputExists false after writing super.img")
	}
}
