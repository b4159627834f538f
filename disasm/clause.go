package disasm

import (
	"slices"

	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
)

// Clause is a decoded clause.
type Clause struct {
	// Offset is the quadword offset of the clause in the buffer.
	Offset int

	Header     format.Header
	HeaderBits uint64

	Tuples []format.Tuple
	Regs   []Regs

	// Constants holds every constant slot of the clause, padding included,
	// with modifier nibbles cleared. Low nibbles are zero; FAU indices
	// supply them.
	Constants []uint64
	Mods      []insts.ConstMod

	// Quads holds the raw quadwords of the clause.
	Quads     []format.Quad
	Formats   []int
	Quadwords int
}

// End reports whether the clause ends the shader.
func (c *Clause) End() bool {
	return c.Header.FlowControl == insts.FlowEnd
}

// DecodeClause decodes the clause starting at quadword offsetQW of code.
func DecodeClause(code []byte, offsetQW int) (c *Clause, err error) {
	defer recoverMalformed(&err)
	return decodeClause(code, offsetQW), nil
}

// maxFormats bounds the instruction quads of a clause.
const maxFormats = 6

func readQuad(code []byte, offset, i int) format.Quad {
	q, err := format.ReadQuad(code, i)
	if err != nil {
		malformed(offset, "%v", err)
	}
	return q
}

func decodeClause(code []byte, offset int) *Clause {
	c := &Clause{Offset: offset}
	fields := &format.Fields{}
	i := offset

	n := 0
	for n == 0 {
		q := readQuad(code, offset, i)
		c.Quads = append(c.Quads, q)
		i++

		kind, idx, _ := format.DecodeTag(uint8(q.Lo))
		if kind != format.TagFormat {
			malformed(offset, "unexpected tag %#02x in instruction quad %d", uint8(q.Lo), i-1-offset)
		}

		f := &format.Formats[idx]
		f.Unpack(q, fields)
		c.Formats = append(c.Formats, idx)

		if f.HasZ() {
			n, _ = format.FinalFormat(idx)
		} else if len(c.Formats) == maxFormats {
			malformed(offset, "no final instruction quad")
		}
	}

	if !slices.Equal(c.Formats, format.Indices[n-1]) {
		malformed(offset, "format sequence %v does not match a %d tuple clause", c.Formats, n)
	}

	c.Tuples = slices.Clone(fields.Tuples[:n])
	for t := range c.Tuples {
		c.Regs = append(c.Regs, DecodeRegs(c.Tuples[t].Reg(), t == 0))
	}

	hdr, err := format.UnpackHeader(fields.Header)
	if err != nil {
		malformed(offset, "%v", err)
	}
	c.Header = hdr
	c.HeaderBits = fields.Header

	if format.EC0Packed(n) == 1 {
		m := fields.M
		code := uint8((m&0xF - (m>>4)&0xF) & 0xF)
		mod, _ := insts.DecodeMCode(code)
		c.Constants = append(c.Constants, fields.EC0<<4)
		c.Mods = append(c.Mods, mod)
	}

	if !fields.Z {
		i = c.decodeConstants(code, n, i)
	}

	c.Quadwords = i - offset
	return c
}

const topNibbleMask = uint64(0xF) << 60

func (c *Clause) decodeConstants(code []byte, n, i int) int {
	positions := format.PosLookup[n-1]

	for w := 0; ; w++ {
		if w == len(positions) {
			malformed(c.Offset, "more than %d constant quads", len(positions))
		}

		q := readQuad(code, c.Offset, i)
		c.Quads = append(c.Quads, q)
		i++

		if kind, _, _ := format.DecodeTag(uint8(q.Lo)); kind != format.TagConstant {
			malformed(c.Offset, "unexpected tag %#02x in constant quad %d", uint8(q.Lo), w)
		}

		pos, final, a, b := format.ConstantQuadFields(q)
		if pos != positions[w] {
			malformed(c.Offset, "constant quad %d has position %d, expected %d", w, pos, positions[w])
		}

		code := uint8((a>>60 - b>>60) & 0xF)
		ma, mb := insts.DecodeMCode(code)
		if ma != insts.ConstModNone {
			a &^= topNibbleMask
		}
		if mb != insts.ConstModNone {
			b &^= topNibbleMask
		}

		c.Constants = append(c.Constants, a, b)
		c.Mods = append(c.Mods, ma, mb)

		if final {
			return i
		}
	}
}
