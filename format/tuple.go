package format

// TupleBits is the width of a packed tuple.
const TupleBits = 78

// Widths of the parts of a packed tuple.
const (
	RegBits = 35
	FMABits = 23
	ADDBits = 20
)

// Tuple is a packed 78-bit tuple: the register word in bits 0-34, the FMA
// word in bits 35-57 and the ADD word in bits 58-77.
type Tuple struct {
	Lo uint64
	Hi uint64 // bits 64-77
}

// NewTuple packs the three words of a tuple.
func NewTuple(reg uint64, fma, add uint32) Tuple {
	reg &= mask(RegBits)
	f := uint64(fma) & mask(FMABits)
	a := uint64(add) & mask(ADDBits)
	return Tuple{
		Lo: reg | f<<RegBits | (a&0x3f)<<58,
		Hi: a >> 6,
	}
}

// Reg returns the register word.
func (t Tuple) Reg() uint64 { return t.Bits(0, RegBits) }

// FMA returns the FMA word.
func (t Tuple) FMA() uint32 { return uint32(t.Bits(RegBits, FMABits)) }

// ADD returns the ADD word.
func (t Tuple) ADD() uint32 { return uint32(t.Bits(RegBits+FMABits, ADDBits)) }

// Upper returns the top 3 bits of the tuple.
func (t Tuple) Upper() uint8 { return uint8(t.Hi>>11) & 0x7 }

// Bits returns n bits of the tuple starting at off.
func (t Tuple) Bits(off, n uint) uint64 {
	var v uint64
	switch {
	case off == 0:
		v = t.Lo
	case off >= 64:
		v = t.Hi >> (off - 64)
	default:
		v = t.Lo>>off | t.Hi<<(64-off)
	}
	return v & mask(n)
}

// SetBits stores n bits of v at off.
func (t *Tuple) SetBits(off, n uint, v uint64) {
	v &= mask(n)
	for i := uint(0); i < n; i++ {
		bit := (v >> i) & 1
		pos := off + i
		if pos < 64 {
			t.Lo = t.Lo&^(1<<pos) | bit<<pos
		} else {
			t.Hi = t.Hi&^(1<<(pos-64)) | bit<<(pos-64)
		}
	}
}

// SetUpper stores the top 3 bits of the tuple.
func (t *Tuple) SetUpper(v uint8) {
	t.SetBits(TupleBits-3, 3, uint64(v))
}
