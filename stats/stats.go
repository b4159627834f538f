// Package stats computes shader-db statistics for packed programs.
package stats

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
)

// Table provides cycle cost lookups.
type Table struct {
	config *CostConfig
}

// NewTable creates a table with the default costs.
func NewTable() *Table {
	return &Table{config: DefaultCostConfig()}
}

// NewTableWithConfig creates a table with custom costs.
func NewTableWithConfig(config *CostConfig) *Table {
	return &Table{config: config}
}

// Config returns the cost configuration.
func (t *Table) Config() *CostConfig {
	return t.config
}

// MessageCost returns the cost of a clause issuing message m.
func (t *Table) MessageCost(m insts.MessageType) uint64 {
	switch m {
	case insts.MessageNone:
		return 0
	case insts.MessageVary, insts.MessageAttribute:
		return t.config.VaryCycles
	case insts.MessageTex, insts.MessageVarTex:
		return t.config.TextureCycles
	case insts.MessageLoad:
		return t.config.LoadCycles
	case insts.MessageStore:
		return t.config.StoreCycles
	case insts.MessageBlend:
		return t.config.BlendCycles
	default:
		return t.config.MessageCycles
	}
}

// ClauseCost returns the arithmetic cost of a clause.
func (t *Table) ClauseCost(c *ir.Clause) uint64 {
	return t.config.ClauseCycles + uint64(len(c.Tuples))*t.config.TupleCycles
}

// MaxThreadRegisters is the register budget allowing two threads per
// core slot.
const MaxThreadRegisters = 32

// Stats is the shader-db summary of a packed program.
type Stats struct {
	Label string
	Stage string

	Instructions int
	Nops         int
	Clauses      int
	Quadwords    int
	Threads      int

	ArithCycles   uint64
	MessageCycles uint64

	// Hash fingerprints the binary.
	Hash uint64
}

// Collect computes statistics for prog, whose packed binary is code
// without padding.
func Collect(prog *ir.Program, code []byte, table *Table) Stats {
	s := Stats{
		Label:     prog.Name,
		Stage:     prog.Stage,
		Quadwords: len(code) / format.QuadBytes,
		Hash:      xxh3.Hash(code),
	}

	maxReg := -1
	for _, c := range prog.Clauses() {
		instrs, nops := c.Instrs()
		s.Instructions += instrs
		s.Nops += nops
		s.Clauses++

		s.ArithCycles += table.ClauseCost(c)
		s.MessageCycles += table.MessageCost(c.MessageType)

		for i := range c.Tuples {
			maxReg = max(maxReg, highestRegister(c.Tuples[i].FMA), highestRegister(c.Tuples[i].ADD))
		}
	}

	s.Threads = 1
	if maxReg < MaxThreadRegisters {
		s.Threads = 2
	}

	return s
}

func highestRegister(ins *ir.Instr) int {
	n := -1
	if ins == nil {
		return n
	}
	if ins.Dest.IsReg() {
		n = int(ins.Dest.Value)
	}
	for _, src := range ins.Srcs {
		if src.IsReg() {
			n = max(n, int(src.Value))
		}
	}
	return n
}

// Line renders the statistics in shader-db format.
func (s Stats) Line() string {
	label := s.Label
	if label == "" {
		label = "shader"
	}
	stage := s.Stage
	if stage == "" {
		stage = "compute"
	}

	return fmt.Sprintf("%s - %s shader: %d inst, %d nops, %d clauses, %d quadwords, "+
		"%d threads, %d arith cycles, %d message cycles, hash %016x",
		label, stage, s.Instructions, s.Nops, s.Clauses, s.Quadwords,
		s.Threads, s.ArithCycles, s.MessageCycles, s.Hash)
}
