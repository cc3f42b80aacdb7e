package sparse

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Kind classifies an image file on disk.
type Kind int

const (
	// Missing means the file could not be found.
	Missing Kind = iota
	// Raw means the file exists and is not sparse.
	Raw
	// Sparse means the file carries the sparse magic.
	Sparse
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Raw:
		return "raw"
	case Sparse:
		return "sparse"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsSparse reports whether the file at path starts with the sparse magic.
// Any I/O error yields false.
func IsSparse(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var buf [4]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return false
	}
	return binary.LittleEndian.Uint32(buf[:]) == Magic
}

// ReadHeader reads and decodes the sparse header of the file at path.
// It returns an error matching ErrNotSparse when the file cannot be opened,
// the magic does not match or the file is shorter than the header. An open
// failure also wraps the underlying error.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("%w: open %s: %w", ErrNotSparse, path, err)
	}
	defer f.Close()

	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Header{}, fmt.Errorf("read %s: %w", path, err)
	}
	if n < 4 {
		return Header{}, ErrShortHeader
	}
	return DecodeHeader(buf[:n])
}

// Classify reports whether path is missing, raw or sparse.
func Classify(path string) Kind {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Missing
	}
	if IsSparse(path) {
		return Sparse
	}
	return Raw
}
