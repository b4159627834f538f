package fetch

// Image is a shader binary seen as memory starting at address zero.
type Image struct {
	code []byte
}

// NewImage wraps a binary.
func NewImage(code []byte) *Image {
	return &Image{code: code}
}

// Size returns the size of the binary in bytes.
func (m *Image) Size() uint64 {
	return uint64(len(m.code))
}

// InBounds reports whether [addr, addr+size) lies within the binary.
func (m *Image) InBounds(addr uint64, size int) bool {
	return addr+uint64(size) <= m.Size()
}

// Read returns size bytes at addr; bytes past the end read as zero.
func (m *Image) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	if addr < m.Size() {
		copy(data, m.code[addr:])
	}
	return data
}
