package insts

import "fmt"

// Special FAU indices below 0x20.
const (
	FAUZero            uint8 = 0
	FAULaneID          uint8 = 1
	FAUWarpID          uint8 = 2
	FAUCoreID          uint8 = 3
	FAUFramebufferSize uint8 = 4
	FAUATestDatum      uint8 = 5
	FAUSample          uint8 = 6
	FAUBlendDescriptor uint8 = 8 // 8 descriptors, 8 through 15
)

// fauConstantField maps an embedded constant to the upper nibble of the
// FAU index that reads it.
var fauConstantField = [6]uint8{4, 5, 6, 7, 2, 3}

// constFAUToIdx is the inverse of fauConstantField, indexed by idx >> 4.
var constFAUToIdx = [8]int{-1, -1, 4, 5, 0, 1, 2, 3}

// MaxEmbeddedConstants is the number of constants a clause can address.
// Clauses with few tuples hold fewer; see format.MaxConstants.
const MaxEmbeddedConstants = len(fauConstantField)

// FAUConstant returns the FAU index reading embedded constant k. The low
// nibble of the constant lives in the index rather than the constant slot.
func FAUConstant(k int, lowNibble uint8) uint8 {
	if k < 0 || k >= MaxEmbeddedConstants {
		panic(fmt.Sprintf("constant %d out of range", k))
	}
	return fauConstantField[k]<<4 | lowNibble&0xF
}

// FAUUniform returns the FAU index reading uniform pair n.
func FAUUniform(n uint8) uint8 {
	return 0x80 | n&0x7F
}

// FAUBlend returns the FAU index of blend descriptor rt.
func FAUBlend(rt uint8) uint8 {
	return FAUBlendDescriptor + rt&7
}

// IsFAUUniform reports whether idx reads a uniform.
func IsFAUUniform(idx uint8) bool {
	return idx&0x80 != 0
}

// ConstantFAUIndex returns which embedded constant idx reads, and the low
// nibble it supplies. ok is false for uniforms and specials.
func ConstantFAUIndex(idx uint8) (k int, lowNibble uint8, ok bool) {
	if idx&0x80 != 0 || idx < 0x20 {
		return 0, 0, false
	}
	k = constFAUToIdx[idx>>4]
	return k, idx & 0xF, k >= 0
}

// FAUSpecialName returns the name of a special FAU index, without the
// .x/.y half suffix.
func FAUSpecialName(idx uint8) string {
	switch {
	case idx == FAUZero:
		return "#0"
	case idx == FAULaneID:
		return "lane_id"
	case idx == FAUWarpID:
		return "warp_id"
	case idx == FAUCoreID:
		return "core_id"
	case idx == FAUFramebufferSize:
		return "framebuffer_size"
	case idx == FAUATestDatum:
		return "atest_datum"
	case idx == FAUSample:
		return "sample"
	case idx >= FAUBlendDescriptor && idx < FAUBlendDescriptor+8:
		return fmt.Sprintf("blend_descriptor_%d", idx-FAUBlendDescriptor)
	default:
		return fmt.Sprintf("reserved_%d", idx)
	}
}
