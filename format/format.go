// Package format describes the Bifrost clause wire format: the fourteen
// quad layouts, the constant quads that follow them, the clause header and
// the 78-bit packed tuple. The packer writes these layouts and the
// disassembler reads them back.
package format

// QuadBytes is the size of one clause quadword.
const QuadBytes = 16

// Subword widths of a quad, in bits.
const (
	TagBits  = 8
	S0S3Bits = 60
	S4Bits   = 15
	S5S6Bits = 30
	S7Bits   = 15
)

// FieldKind selects what a quad subword holds.
type FieldKind uint8

// Field kinds.
const (
	// FieldReserved is always zero.
	FieldReserved FieldKind = iota
	// FieldLiteral is a fixed tag value.
	FieldLiteral
	// FieldZ is the stop bit: set when no constant quads follow.
	FieldZ
	// FieldTuple holds bits of a tuple starting at Offset.
	FieldTuple
	// FieldUpper holds the top 3 bits of a tuple.
	FieldUpper
	// FieldUpperPair holds the top 3 bits of two tuples.
	FieldUpperPair
	// FieldEC holds bits of the first embedded constant starting at Offset.
	FieldEC
	// FieldM holds the modifier code of the first embedded constant.
	FieldM
	// FieldHeader holds bits of the clause header starting at Offset.
	FieldHeader
)

// Field describes one subword of a quad.
type Field struct {
	Kind   FieldKind
	Value  uint8 // literal value
	Tuple  uint8
	Tuple2 uint8
	Offset uint8
}

func lit(v uint8) Field { return Field{Kind: FieldLiteral, Value: v} }
func z() Field { return Field{Kind: FieldZ} }
func up(t uint8) Field { return Field{Kind: FieldUpper, Tuple: t} }
func up2(a, b uint8) Field { return Field{Kind: FieldUpperPair, Tuple: a, Tuple2: b} }
func tup(t, off uint8) Field { return Field{Kind: FieldTuple, Tuple: t, Offset: off} }
func ec(off uint8) Field { return Field{Kind: FieldEC, Offset: off} }
func hdr(off uint8) Field { return Field{Kind: FieldHeader, Offset: off} }
func m() Field { return Field{Kind: FieldM} }
func reserved() Field { return Field{Kind: FieldReserved} }

// Format is one of the fourteen quad layouts.
type Format struct {
	// HW is the hardware format number.
	HW uint8

	// Pos is the quad position within the clause.
	Pos uint8

	// Tag1 sits at bits 6-7 of the tag byte, Tag2 at bits 3-5 and Tag3 at
	// bits 0-2.
	Tag1, Tag2, Tag3 Field

	S0S3, S4, S5S6, S7 Field
}

// HasZ reports whether the format carries the stop bit, which makes it the
// last instruction quad of a clause.
func (f *Format) HasZ() bool {
	return f.Tag1.Kind == FieldZ
}

// Formats is the table of quad layouts.
var Formats = [14]Format{
	{HW: 0, Pos: 0, Tag1: lit(0), Tag2: lit(5), Tag3: up(0), S0S3: tup(0, 0), S4: tup(0, 60), S5S6: hdr(0), S7: hdr(30)},
	{HW: 0, Pos: 0, Tag1: z(), Tag2: lit(1), Tag3: up(0), S0S3: tup(0, 0), S4: tup(0, 60), S5S6: hdr(0), S7: hdr(30)},
	{HW: 1, Pos: 1, Tag1: z(), Tag2: lit(0), Tag3: lit(3), S0S3: tup(1, 0), S4: tup(1, 60), S5S6: reserved(), S7: up(1)},
	{HW: 2, Pos: 1, Tag1: lit(0), Tag2: lit(4), Tag3: up(1), S0S3: tup(1, 0), S4: tup(1, 60), S5S6: tup(2, 0), S7: tup(2, 30)},
	{HW: 3, Pos: 2, Tag1: z(), Tag2: lit(0), Tag3: lit(4), S0S3: ec(0), S4: m(), S5S6: tup(2, 45), S7: up(2)},
	{HW: 4, Pos: 2, Tag1: lit(0), Tag2: lit(0), Tag3: lit(1), S0S3: tup(3, 0), S4: tup(3, 60), S5S6: tup(2, 45), S7: up2(2, 3)},
	{HW: 4, Pos: 2, Tag1: z(), Tag2: lit(0), Tag3: lit(5), S0S3: tup(3, 0), S4: tup(3, 60), S5S6: tup(2, 45), S7: up2(2, 3)},
	{HW: 5, Pos: 2, Tag1: lit(2), Tag2: up(3), Tag3: up(2), S0S3: tup(3, 0), S4: tup(3, 60), S5S6: tup(2, 45), S7: ec(0)},
	{HW: 6, Pos: 3, Tag1: z(), Tag2: lit(2), Tag3: up(4), S0S3: tup(4, 0), S4: tup(4, 60), S5S6: ec(15), S7: ec(45)},
	{HW: 7, Pos: 3, Tag1: lit(1), Tag2: lit(4), Tag3: up(4), S0S3: tup(4, 0), S4: tup(4, 60), S5S6: tup(5, 0), S7: tup(5, 30)},
	{HW: 8, Pos: 4, Tag1: z(), Tag2: lit(0), Tag3: lit(6), S0S3: ec(0), S4: m(), S5S6: tup(5, 45), S7: up(5)},
	{HW: 9, Pos: 4, Tag1: z(), Tag2: lit(0), Tag3: lit(7), S0S3: tup(6, 0), S4: tup(6, 60), S5S6: tup(5, 45), S7: up2(5, 6)},
	{HW: 10, Pos: 4, Tag1: lit(3), Tag2: up(6), Tag3: up(5), S0S3: tup(6, 0), S4: tup(6, 60), S5S6: tup(5, 45), S7: ec(0)},
	{HW: 11, Pos: 5, Tag1: z(), Tag2: lit(3), Tag3: up(7), S0S3: tup(7, 0), S4: tup(7, 60), S5S6: ec(15), S7: ec(45)},
}

// Counts is the number of instruction quads of a clause, by tuple count.
var Counts = [8]int{1, 2, 3, 3, 4, 5, 5, 6}

// Indices lists the formats used by a clause, by tuple count.
var Indices = [8][]int{
	{1},
	{0, 2},
	{0, 3, 4},
	{0, 3, 6},
	{0, 3, 7, 8},
	{0, 3, 5, 9, 10},
	{0, 3, 5, 9, 11},
	{0, 3, 5, 9, 12, 13},
}

// PosLookup is the position field of each constant quad, by tuple count.
// Its length bounds the number of constant quads.
var PosLookup = [8][]uint8{
	{0},
	{1},
	{3},
	{2, 5},
	{4, 8},
	{7, 11, 14},
	{6, 10, 13},
	{9, 12},
}

// ec0Packed marks tuple counts whose instruction quads carry the first
// embedded constant.
var ec0Packed = [8]bool{false, false, true, false, true, true, false, true}

// ec0Split marks tuple counts whose first embedded constant is spread over
// two quads, leaving no room for its modifier.
var ec0Split = [8]bool{false, false, false, false, true, false, false, true}

func validTuples(n int) bool {
	return n >= 1 && n <= 8
}

// EC0Packed returns 1 if a clause of n tuples embeds its first constant in
// the instruction quads, 0 otherwise.
func EC0Packed(n int) int {
	if validTuples(n) && ec0Packed[n-1] {
		return 1
	}
	return 0
}

// EC0Split reports whether the embedded constant of a clause of n tuples
// is split across quads.
func EC0Split(n int) bool {
	return validTuples(n) && ec0Split[n-1]
}

// ConstantQuads returns the number of constant quads of a clause with n
// tuples and c constants.
func ConstantQuads(n, c int) int {
	ec0 := EC0Packed(n)
	return (max(c, ec0) - ec0 + 1) / 2
}

// ClauseQuadwords returns the size of a clause in quadwords.
func ClauseQuadwords(n, c int) int {
	return Counts[n-1] + ConstantQuads(n, c)
}

// ConstantSlots returns the number of constants a decoder sees in a clause
// with n tuples and c constants. Odd constants are padded to a pair and an
// embedded constant field is always present when the format has one.
func ConstantSlots(n, c int) int {
	return EC0Packed(n) + 2*ConstantQuads(n, c)
}

// MaxConstants returns the number of constants a clause of n tuples can
// hold.
func MaxConstants(n int) int {
	if !validTuples(n) {
		return 0
	}
	return EC0Packed(n) + 2*len(PosLookup[n-1])
}

// FinalFormat maps the index of a format carrying the stop bit to the
// tuple count of its clause.
func FinalFormat(idx int) (n int, ok bool) {
	for i, list := range Indices {
		if list[len(list)-1] == idx {
			return i + 1, true
		}
	}
	return 0, false
}
