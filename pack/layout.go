package pack

import (
	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/ir"
)

// Patch ORs Value into constant Const of Clause before emission.
type Patch struct {
	Clause *ir.Clause
	Const  int
	Value  uint64
}

// Plan is the layout of a program: where every clause lands, and the
// branch offsets that can only be computed once all sizes are known.
type Plan struct {
	Clauses []*ir.Clause
	Offsets map[*ir.Clause]int // in quadwords
	Sizes   map[*ir.Clause]int // in quadwords
	Size    int
	Patches []Patch
}

// Layout sizes every clause and computes branch fixups. Sizes depend only
// on tuple and constant counts, so patching constants afterwards cannot
// move anything.
func Layout(prog *ir.Program) *Plan {
	plan := &Plan{
		Offsets: make(map[*ir.Clause]int),
		Sizes:   make(map[*ir.Clause]int),
	}

	for _, c := range prog.Clauses() {
		n := len(c.Tuples)
		assertf(n >= 1 && n <= 8, "clause has %d tuples", n)
		assertf(len(c.Constants) <= format.MaxConstants(n),
			"no format for %d tuples with %d constants", n, len(c.Constants))

		size := format.ClauseQuadwords(n, len(c.Constants))
		plan.Clauses = append(plan.Clauses, c)
		plan.Offsets[c] = plan.Size
		plan.Sizes[c] = size
		plan.Size += size
	}

	for _, b := range prog.Blocks {
		if len(b.Clauses) == 0 {
			continue
		}

		c := b.Clauses[len(b.Clauses)-1]
		ins := c.LastInstr()
		if ins == nil || ins.Target == nil {
			continue
		}

		assertf(c.PCRel >= 0 && c.PCRel < len(c.Constants),
			"branch in block %d has no PC-relative constant", b.ID)

		plan.Patches = append(plan.Patches, Patch{
			Clause: c,
			Const:  c.PCRel,
			Value:  branchOffset(plan.targetOffset(prog, ins.Target) - plan.Offsets[c]),
		})
	}

	return plan
}

// targetOffset returns the quadword offset of the first clause at or after
// block, or the end of the program.
func (p *Plan) targetOffset(prog *ir.Program, block *ir.Block) int {
	if c := prog.NextClause(block, nil); c != nil {
		return p.Offsets[c]
	}
	return p.Size
}

// branchOffset encodes a quadword delta as the high word of a PC-relative
// constant. The top 4 bits stay clear for the modifier code.
func branchOffset(qwords int) uint64 {
	bytes := int32(qwords * format.QuadBytes)
	raw := uint32(bytes) &^ 0xF0000000
	return uint64(raw) << 32
}

// Constants returns the constants of c with fixups applied.
func (p *Plan) Constants(c *ir.Clause) []ir.Constant {
	consts := append([]ir.Constant(nil), c.Constants...)
	for _, patch := range p.Patches {
		if patch.Clause == c {
			consts[patch.Const].Value |= patch.Value
		}
	}
	return consts
}
