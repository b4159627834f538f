package pack

import (
	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
)

// BuildHeader computes the header of clause c given its staging register
// and the clauses that may follow it. Waits are taken from the successors,
// since a clause's dependencies are resolved before it issues.
func BuildHeader(c *ir.Clause, staging int, next1, next2 *ir.Clause) format.Header {
	var wait uint8
	var barrier bool
	for _, next := range []*ir.Clause{next1, next2} {
		if next == nil {
			continue
		}
		wait |= next.Dependencies
		barrier = barrier || next.StagingBarrier
	}

	// Barriers must wait on themselves.
	if c.MessageType == insts.MessageBarrier {
		wait |= 1 << 7
	}

	flow := c.FlowControl
	if next1 == nil && next2 == nil {
		flow = insts.FlowEnd
	}

	h := format.Header{
		FlushToZero:        c.FlushToZero,
		SuppressInf:        c.SuppressInf,
		SuppressNaN:        c.SuppressNaN,
		FloatExceptions:    c.FloatExceptions,
		FlowControl:        flow,
		TerminateDiscarded: c.TerminateDiscarded,
		NextClausePrefetch: c.NextClausePrefetch && next1 != nil,
		StagingBarrier:     barrier,
		DependencyWait:     wait,
		DependencySlot:     c.ScoreboardID,
		MessageType:        c.MessageType,
	}

	if staging != NoStaging {
		assertf(staging >= 0 && staging < 64, "staging register r%d out of range", staging)
		h.StagingRegister = uint8(staging)
	}
	if next1 != nil {
		h.NextMessageType = next1.MessageType
	}

	return h
}

// PackHeader encodes the header of clause c.
func PackHeader(c *ir.Clause, staging int, next1, next2 *ir.Clause) uint64 {
	bits, err := BuildHeader(c, staging, next1, next2).Pack()
	if err != nil {
		fatalf("%v", err)
	}
	return bits
}
