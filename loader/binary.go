// Package loader reads shader binaries for the disassembler.
//
// A binary is either raw clause code or an MBS2 container, the FOURCC
// chunked format produced by the vendor compiler, whose OBJC chunk holds
// the code.
package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// FOURCC tags of the container format.
var (
	MagicContainer = [4]byte{'M', 'B', 'S', '2'}
	MagicObject    = [4]byte{'O', 'B', 'J', 'C'}
)

// chunkHeaderSize is the size of a FOURCC tag plus its length word.
const chunkHeaderSize = 8

// Binary is a loaded shader binary.
type Binary struct {
	// Code is the clause code.
	Code []byte

	// Wrapped is set when the code came out of a container.
	Wrapped bool
}

// Load reads a binary from a file.
func Load(path string) (*Binary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read binary: %w", err)
	}

	return Parse(data)
}

// Parse unwraps a container, or returns raw code as is.
func Parse(data []byte) (*Binary, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], MagicContainer[:]) {
		return &Binary{Code: data}, nil
	}

	if len(data) < chunkHeaderSize {
		return nil, fmt.Errorf("truncated %s header", MagicContainer[:])
	}

	code, err := findChunk(data[chunkHeaderSize:], MagicObject)
	if err != nil {
		return nil, err
	}

	return &Binary{Code: code, Wrapped: true}, nil
}

// findChunk walks a chunk list and returns the payload of the first chunk
// tagged tag.
func findChunk(data []byte, tag [4]byte) ([]byte, error) {
	for off := 0; off < len(data); {
		if off+chunkHeaderSize > len(data) {
			return nil, fmt.Errorf("truncated chunk header at byte %d", off)
		}

		size := int(binary.LittleEndian.Uint32(data[off+4:]))
		start := off + chunkHeaderSize
		if size > len(data)-start {
			return nil, fmt.Errorf("chunk %q at byte %d overruns the file (%d bytes)",
				data[off:off+4], off, size)
		}

		if bytes.Equal(data[off:off+4], tag[:]) {
			return data[start : start+size], nil
		}

		off = start + size
	}

	return nil, fmt.Errorf("no %s chunk found", tag[:])
}

// Wrap builds a container holding code in an OBJC chunk.
func Wrap(code []byte) []byte {
	out := make([]byte, 0, 2*chunkHeaderSize+len(code))
	out = append(out, MagicContainer[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(chunkHeaderSize+len(code)))
	out = append(out, MagicObject[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(code)))
	return append(out, code...)
}
