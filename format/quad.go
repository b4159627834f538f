package format

import (
	"encoding/binary"
	"fmt"
)

// Constant quad tags, stored in bits 4-7 of the tag byte above the
// position.
const (
	TagConstants uint8 = 0b0011
	TagFinal     uint8 = 0b0111
)

// Quad is one 128-bit clause quadword.
type Quad struct {
	Lo, Hi uint64
}

// Bytes returns the little-endian encoding of the quad.
func (q Quad) Bytes() []byte {
	b := make([]byte, QuadBytes)
	binary.LittleEndian.PutUint64(b[0:], q.Lo)
	binary.LittleEndian.PutUint64(b[8:], q.Hi)
	return b
}

// ReadQuad reads quadword i of code.
func ReadQuad(code []byte, i int) (Quad, error) {
	off := i * QuadBytes
	if i < 0 || off+QuadBytes > len(code) {
		return Quad{}, fmt.Errorf("quadword %d is outside the %d byte buffer", i, len(code))
	}
	return Quad{
		Lo: binary.LittleEndian.Uint64(code[off:]),
		Hi: binary.LittleEndian.Uint64(code[off+8:]),
	}, nil
}

// Subwords is a quad split into its fields.
type Subwords struct {
	Tag  uint8
	S0S3 uint64
	S4   uint64
	S5S6 uint64
	S7   uint64
}

func mask(bits uint) uint64 {
	return 1<<bits - 1
}

// Join assembles a quad from its fields.
func (s Subwords) Join() Quad {
	return Quad{
		Lo: uint64(s.Tag) | (s.S0S3&mask(56))<<8,
		Hi: (s.S0S3>>56)&mask(4) |
			(s.S4&mask(S4Bits))<<4 |
			(s.S5S6&mask(S5S6Bits))<<19 |
			(s.S7&mask(S7Bits))<<49,
	}
}

// Split breaks a quad into its fields.
func (q Quad) Split() Subwords {
	return Subwords{
		Tag:  uint8(q.Lo),
		S0S3: q.Lo>>8 | (q.Hi&mask(4))<<56,
		S4:   (q.Hi >> 4) & mask(S4Bits),
		S5S6: (q.Hi >> 19) & mask(S5S6Bits),
		S7:   q.Hi >> 49,
	}
}

// ConstantQuad builds a constant quad from two embedded constants. The low
// nibble of each constant is dropped; FAU indices supply it.
func ConstantQuad(pos uint8, final bool, c1, c2 uint64) Quad {
	tag := TagConstants
	if final {
		tag = TagFinal
	}

	imm1 := c1 >> 4
	imm2 := c2 >> 4
	return Quad{
		Lo: uint64(pos&0xF) | uint64(tag)<<4 | imm1<<8,
		Hi: imm1>>56 | imm2<<4,
	}
}

// ConstantQuadFields reads a constant quad. The constants come back with a
// zero low nibble.
func ConstantQuadFields(q Quad) (pos uint8, final bool, c1, c2 uint64) {
	tag := uint8(q.Lo)
	imm1 := q.Lo>>8 | (q.Hi&mask(4))<<56
	imm2 := q.Hi >> 4
	return tag & 0xF, tag>>4 == TagFinal, imm1 << 4, imm2 << 4
}

// TagKind classifies a tag byte.
type TagKind uint8

// Tag classes.
const (
	TagInvalid TagKind = iota
	TagFormat
	TagConstant
)

// DecodeTag classifies the tag byte of a quad. For instruction quads it
// returns the format index and whether the stop bit is set; for constant
// quads, whether the quad is final.
func DecodeTag(tag uint8) (kind TagKind, idx int, stop bool) {
	bit6 := tag&0x40 != 0

	if tag&0x80 != 0 {
		if bit6 {
			return TagFormat, 12, false
		}
		return TagFormat, 7, false
	}

	switch (tag >> 3) & 0x7 {
	case 0:
		switch tag & 0x7 {
		case 3:
			idx = 2
		case 4:
			idx = 4
		case 1:
			idx = 5
		case 5:
			idx = 6
		case 6:
			idx = 10
		case 7:
			idx = 11
		default:
			return TagInvalid, 0, false
		}
	case 1:
		idx = 1
	case 2:
		idx = 8
	case 3:
		idx = 13
	case 4:
		if bit6 {
			return TagFormat, 9, false
		}
		idx = 3
	case 5:
		idx = 0
	case 6, 7:
		return TagConstant, 0, bit6
	}

	if Formats[idx].HasZ() {
		return TagFormat, idx, bit6
	}
	if bit6 {
		return TagInvalid, 0, false
	}
	return TagFormat, idx, false
}
