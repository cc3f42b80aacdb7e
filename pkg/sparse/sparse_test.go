package sparse

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIsSparse(t *testing.T) {
	dir := t.TempDir()

	magicOnly := make([]byte, 4)
	binary.LittleEndian.PutUint32(magicOnly, Magic)

	bigEndian := make([]byte, 4)
	binary.BigEndian.PutUint32(bigEndian, Magic)

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"full header", EncodeHeader(Header{MajorVersion: 1, BlockSize: 4096, TotalBlocks: 10}), true},
		{"magic only", magicOnly, true},
		{"magic then payload", append(append([]byte{}, magicOnly...), make([]byte, 1024)...), true},
		{"empty", nil, false},
		{"truncated magic", magicOnly[:3], false},
		{"byte swapped magic", bigEndian, false},
		{"zeros", make([]byte, 4096), false},
		{"ext4-ish raw", append(make([]byte, 1080), 0x53, 0xEF), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".img", tt.data)
			if got := IsSparse(path); got != tt.want {
				t.Errorf("IsSparse = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSparse_Unreadable(t *testing.T) {
	dir := t.TempDir()
	if IsSparse(filepath.Join(dir, "missing.img")) {
		t.Error("missing file reported as sparse")
	}
	if IsSparse(dir) {
		t.Error("directory reported as sparse")
	}
}

func TestReadHeader(t *testing.T) {
	dir := t.TempDir()
	want := Header{
		MajorVersion:    1,
		MinorVersion:    0,
		FileHeaderSize:  28,
		ChunkHeaderSize: 12,
		BlockSize:       4096,
		TotalBlocks:     262144,
		TotalChunks:     17,
	}
	data := append(EncodeHeader(want), make([]byte, 512)...)
	path := writeFile(t, dir, "system.img", data)

	got, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if got != want {
		t.Errorf("ReadHeader = %+v, want %+v", got, want)
	}
	if got.Version() != "1.0" {
		t.Errorf("Version = %q, want 1.0", got.Version())
	}
	if got.RawSize() != 4096*262144 {
		t.Errorf("RawSize = %d, want %d", got.RawSize(), 4096*262144)
	}
}

func TestReadHeader_NotSparse(t *testing.T) {
	dir := t.TempDir()

	raw := writeFile(t, dir, "raw.img", make([]byte, 4096))
	if _, err := ReadHeader(raw); !errors.Is(err, ErrNotSparse) {
		t.Errorf("raw file: err = %v, want ErrNotSparse", err)
	}

	truncated := writeFile(t, dir, "short.img", EncodeHeader(Header{BlockSize: 4096})[:20])
	_, err := ReadHeader(truncated)
	if !errors.Is(err, ErrShortHeader) {
		t.Errorf("truncated file: err = %v, want ErrShortHeader", err)
	}
	if !errors.Is(err, ErrNotSparse) {
		t.Errorf("truncated file: err = %v, should also match ErrNotSparse", err)
	}

	empty := writeFile(t, dir, "empty.img", nil)
	if _, err := ReadHeader(empty); !errors.Is(err, ErrNotSparse) {
		t.Errorf("empty file: err = %v, want ErrNotSparse", err)
	}

	_, err = ReadHeader(filepath.Join(dir, "missing.img"))
	if !errors.Is(err, ErrNotSparse) {
		t.Errorf("missing file: err = %v, want ErrNotSparse", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, should wrap ErrNotExist", err)
	}
}

func TestRawSize(t *testing.T) {
	tests := []struct {
		blockSize   uint32
		totalBlocks uint32
		want        uint64
	}{
		{4096, 0, 0},
		{4096, 1, 4096},
		{4096, 0xFFFFFFFF, 4096 * uint64(0xFFFFFFFF)},
		{0xFFFFFFFF, 0xFFFFFFFF, uint64(0xFFFFFFFF) * uint64(0xFFFFFFFF)},
	}

	for _, tt := range tests {
		h, err := DecodeHeader(EncodeHeader(Header{BlockSize: tt.blockSize, TotalBlocks: tt.totalBlocks}))
		if err != nil {
			t.Fatalf("DecodeHeader: %v", err)
		}
		if got := h.RawSize(); got != tt.want {
			t.Errorf("RawSize(%d x %d) = %d, want %d", tt.blockSize, tt.totalBlocks, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	sparsePath := writeFile(t, dir, "vendor.img", EncodeHeader(Header{BlockSize: 4096}))
	rawPath := writeFile(t, dir, "odm.img", make([]byte, 64))

	tests := []struct {
		path string
		want Kind
	}{
		{sparsePath, Sparse},
		{rawPath, Raw},
		{filepath.Join(dir, "product.img"), Missing},
		{dir, Missing},
	}
	for _, tt := range tests {
		if got := Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%s) = %v, want %v", filepath.Base(tt.path), got, tt.want)
		}
	}
}
