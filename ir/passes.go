package ir

import (
	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
)

// ScoreboardSlots is the number of slots handed out to message clauses.
const ScoreboardSlots = 6

// LowerTerminalBranches rewrites branches whose target is an empty block
// ending the program. The target is dropped unless the GPU has the
// TerminalBranchNop quirk, in which case the target block receives a NOP
// clause so the branch has somewhere to land.
func LowerTerminalBranches(prog *Program, quirks insts.Quirks) {
	for _, b := range prog.Blocks {
		if len(b.Clauses) == 0 {
			continue
		}

		ins := b.Clauses[len(b.Clauses)-1].LastInstr()
		if ins == nil || ins.Target == nil {
			continue
		}

		t := ins.Target
		if len(t.Clauses) > 0 || !t.IsTerminal() {
			continue
		}

		if !quirks.Has(insts.TerminalBranchNop) {
			ins.Target = nil
			continue
		}

		nop := NewClause(t)
		nop.FlowControl = insts.FlowEnd
		nop.Tuples = []Tuple{{
			FMA: NewInstr(insts.OpFmaNop, Null()),
			ADD: NewInstr(insts.OpAddNop, Null()),
		}}
		t.Clauses = append(t.Clauses, nop)
	}
}

// AssignScoreboard hands out scoreboard slots to message clauses and makes
// every clause wait on all messages issued earlier in its block.
func AssignScoreboard(prog *Program) {
	for _, b := range prog.Blocks {
		var slot uint8
		var pending uint8

		for _, c := range b.Clauses {
			c.Dependencies |= pending

			if c.MessageType == insts.MessageNone {
				continue
			}

			c.ScoreboardID = slot
			pending |= 1 << slot
			slot = (slot + 1) % ScoreboardSlots
		}
	}
}

// OrderConstants swaps constant pairs whose top nibbles would read as a
// PC-relative modifier code. A pair (a, b) with neither constant
// PC-relative encodes "no modifier" only when (a>>60 - b>>60) mod 16 is 0
// or at least 8; swapping turns a difference of 1..7 into 9..15. FAU
// indices reading the swapped constants are updated to follow them.
func OrderConstants(c *Clause) {
	for i := format.EC0Packed(len(c.Tuples)); i+1 < len(c.Constants); i += 2 {
		a, b := c.Constants[i], c.Constants[i+1]
		if a.Mod != insts.ConstModNone || b.Mod != insts.ConstModNone {
			continue
		}
		if !insts.IsPCCode(uint8((a.Value>>60 - b.Value>>60) & 0xF)) {
			continue
		}

		c.Constants[i], c.Constants[i+1] = b, a
		for t := range c.Tuples {
			k, low, ok := insts.ConstantFAUIndex(c.Tuples[t].FAUIdx)
			switch {
			case !ok:
			case k == i:
				c.Tuples[t].FAUIdx = insts.FAUConstant(i+1, low)
			case k == i+1:
				c.Tuples[t].FAUIdx = insts.FAUConstant(i, low)
			}
		}
	}
}
