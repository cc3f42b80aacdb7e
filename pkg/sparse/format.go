// Package sparse recognizes Android sparse images and decodes their file header.
//
// A sparse image starts with a 28-byte little-endian header:
//
//	offset  size  field
//	0       4     magic (0xED26FF3A)
//	4       2     major version
//	6       2     minor version
//	8       2     file header size
//	10      2     chunk header size
//	12      4     block size
//	16      4     total blocks (of the expanded image)
//	20      4     total chunks
//	24      4     image checksum (not read)
//
// Detection is advisory. Anything that cannot be read or does not carry the
// magic is treated as a raw image.
package sparse

import (
	"encoding/binary"
	"fmt"
)

// Magic identifies sparse images.
const Magic uint32 = 0xED26FF3A

// HeaderSize is the number of bytes DecodeHeader needs: the magic plus the
// 24-byte field prefix.
const HeaderSize = 4 + 24

// Header is the decoded sparse file header.
type Header struct {
	MajorVersion    uint16
	MinorVersion    uint16
	FileHeaderSize  uint16
	ChunkHeaderSize uint16
	BlockSize       uint32
	TotalBlocks     uint32
	TotalChunks     uint32
}

// Version returns the format version as "major.minor".
func (h Header) Version() string {
	return fmt.Sprintf("%d.%d", h.MajorVersion, h.MinorVersion)
}

// RawSize returns the size of the expanded image: block size times total blocks.
func (h Header) RawSize() uint64 {
	return uint64(h.BlockSize) * uint64(h.TotalBlocks)
}

// EncodeHeader writes the magic and header fields to a HeaderSize byte slice.
// The trailing checksum word is left zero.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.MajorVersion)
	binary.LittleEndian.PutUint16(buf[6:8], h.MinorVersion)
	binary.LittleEndian.PutUint16(buf[8:10], h.FileHeaderSize)
	binary.LittleEndian.PutUint16(buf[10:12], h.ChunkHeaderSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.BlockSize)
	binary.LittleEndian.PutUint32(buf[16:20], h.TotalBlocks)
	binary.LittleEndian.PutUint32(buf[20:24], h.TotalChunks)
	return buf
}

// DecodeHeader parses a header from the start of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) >= 4 && binary.LittleEndian.Uint32(buf[0:4]) != Magic {
		return Header{}, ErrNotSparse
	}
	if len(buf) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	return Header{
		MajorVersion:    binary.LittleEndian.Uint16(buf[4:6]),
		MinorVersion:    binary.LittleEndian.Uint16(buf[6:8]),
		FileHeaderSize:  binary.LittleEndian.Uint16(buf[8:10]),
		ChunkHeaderSize: binary.LittleEndian.Uint16(buf[10:12]),
		BlockSize:       binary.LittleEndian.Uint32(buf[12:16]),
		TotalBlocks:     binary.LittleEndian.Uint32(buf[16:20]),
		TotalChunks:     binary.LittleEndian.Uint32(buf[20:24]),
	}, nil
}
