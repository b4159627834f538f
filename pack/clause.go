package pack

import (
	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
)

// PackedClause is a clause in its wire encoding.
type PackedClause struct {
	Tuples  []PackedTuple
	Header  uint64
	Formats []int
	Quads   []format.Quad

	// Staging is the staging register recorded in the header, or
	// NoStaging.
	Staging int
}

// Bytes returns the little-endian encoding of the clause.
func (p *PackedClause) Bytes() []byte {
	out := make([]byte, 0, len(p.Quads)*format.QuadBytes)
	for _, q := range p.Quads {
		out = append(out, q.Bytes()...)
	}
	return out
}

// Quadwords returns the size of the clause in quadwords.
func (p *PackedClause) Quadwords() int {
	return len(p.Quads)
}

type constantLayout struct {
	ec0   uint64
	m0    uint64
	pairs [][2]uint64
}

const topNibbleShift = 60

func topNibble(v uint64) uint64 {
	return v >> topNibbleShift
}

func withTopNibble(v, nibble uint64) uint64 {
	return v&^(0xF<<topNibbleShift) | (nibble&0xF)<<topNibbleShift
}

// layoutConstants distributes constants over the embedded constant field
// and constant quads. Modifiers of constant pairs are encoded in the
// difference of the top nibbles, so a PC-relative constant must leave its
// top nibble clear for the code, and a pair of plain constants must not
// differ by 1..7 there (ir.OrderConstants swaps such pairs).
func layoutConstants(n int, consts []ir.Constant) constantLayout {
	assertf(len(consts) <= format.MaxConstants(n) && len(consts) <= insts.MaxEmbeddedConstants,
		"no format for %d tuples with %d constants", n, len(consts))

	for i, c := range consts {
		if c.Mod != insts.ConstModNone {
			assertf(topNibble(c.Value) == 0,
				"PC-relative constant %d (%#x) has a non-zero top nibble", i, c.Value)
		}
	}

	var l constantLayout
	rest := consts

	if format.EC0Packed(n) == 1 && len(consts) > 0 {
		c0 := consts[0]
		if c0.Mod != insts.ConstModNone {
			assertf(!format.EC0Split(n),
				"PC-relative constant cannot be embedded in a %d tuple clause", n)
			code, _ := insts.EncodeMCode(c0.Mod, insts.ConstModNone)
			l.m0 = uint64(code)
		}
		l.ec0 = c0.Value >> 4
		rest = consts[1:]
	}

	for i := 0; i < len(rest); i += 2 {
		a := rest[i]
		b := ir.Constant{}
		padded := i+1 == len(rest)
		if !padded {
			b = rest[i+1]
		}

		code, ok := insts.EncodeMCode(a.Mod, b.Mod)
		assertf(ok, "constant pair %#x, %#x is PC-relative twice", a.Value, b.Value)

		va, vb := a.Value, b.Value
		na, nb := topNibble(va), topNibble(vb)
		switch {
		case code == insts.MCodeNone && padded:
			// The padding copies the top nibble so the pair reads as no
			// modifier.
			vb = withTopNibble(vb, na)
		case code == insts.MCodeNone:
			assertf(!insts.IsPCCode(uint8((na-nb)&0xF)),
				"constant pair %#x, %#x aliases a PC-relative modifier", va, vb)
		case a.Mod != insts.ConstModNone:
			va = withTopNibble(va, uint64(code)+nb)
		default:
			vb = withTopNibble(vb, na-uint64(code))
		}

		l.pairs = append(l.pairs, [2]uint64{va, vb})
	}

	return l
}

// PackClause packs clause c. next1 and next2 are the clauses that may
// follow it; consts are the clause constants with branch offsets applied.
func PackClause(c *ir.Clause, next1, next2 *ir.Clause, consts []ir.Constant, quirks insts.Quirks) *PackedClause {
	n := len(c.Tuples)
	assertf(n >= 1 && n <= 8, "clause has %d tuples", n)

	out := &PackedClause{Staging: NoStaging}
	fields := &format.Fields{}

	for i := range c.Tuples {
		prev := i
		if i == 0 {
			prev = n
		}
		pt := PackTuple(&c.Tuples[i], &c.Tuples[prev-1], i == 0, quirks)

		out.Tuples = append(out.Tuples, pt)
		fields.Tuples[i] = pt.Tuple
		if pt.Staging != NoStaging {
			out.Staging = pt.Staging
		}
	}

	out.Header = PackHeader(c, out.Staging, next1, next2)

	l := layoutConstants(n, consts)
	fields.Header = out.Header
	fields.EC0 = l.ec0
	fields.M = l.m0
	fields.Z = len(l.pairs) == 0

	for _, idx := range format.Indices[n-1] {
		out.Formats = append(out.Formats, idx)
		out.Quads = append(out.Quads, format.Formats[idx].Pack(fields))
	}

	for w, pair := range l.pairs {
		pos := format.PosLookup[n-1][w]
		final := w == len(l.pairs)-1
		out.Quads = append(out.Quads, format.ConstantQuad(pos, final, pair[0], pair[1]))
	}

	assertf(len(out.Quads) == format.ClauseQuadwords(n, len(consts)),
		"clause packed to %d quadwords, expected %d", len(out.Quads), format.ClauseQuadwords(n, len(consts)))

	return out
}
