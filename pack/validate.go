package pack

import (
	"slices"

	"github.com/sarchlab/bipack/disasm"
	"github.com/sarchlab/bipack/format"
)

// Validate decodes every clause of a packed program and checks that the
// decoder recovers what was packed.
func Validate(res *Result) {
	for _, ci := range res.Clauses {
		d, err := disasm.DecodeClause(res.Code, ci.Offset)
		assertf(err == nil, "clause at quadword %d does not decode: %v", ci.Offset, err)

		assertf(len(d.Tuples) == ci.Tuples,
			"clause at quadword %d decodes to %d tuples, packed %d", ci.Offset, len(d.Tuples), ci.Tuples)
		assertf(d.Quadwords == ci.Quadwords,
			"clause at quadword %d decodes to %d quadwords, packed %d", ci.Offset, d.Quadwords, ci.Quadwords)
		assertf(d.HeaderBits == ci.Header,
			"clause at quadword %d decodes header %#x, packed %#x", ci.Offset, d.HeaderBits, ci.Header)
		assertf(slices.Equal(d.Formats, ci.Formats),
			"clause at quadword %d decodes formats %v, packed %v", ci.Offset, d.Formats, ci.Formats)

		slots := format.ConstantSlots(ci.Tuples, ci.Constants)
		assertf(len(d.Constants) == slots,
			"clause at quadword %d decodes %d constants, expected %d", ci.Offset, len(d.Constants), slots)
	}
}
