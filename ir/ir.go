// Package ir defines the scheduled program representation consumed by the
// packer: blocks of clauses of tuples of FMA/ADD instructions.
package ir

import (
	"github.com/sarchlab/bipack/insts"
)

// NoPCRel marks a clause without a PC-relative constant.
const NoPCRel = -1

// Instr is a single FMA or ADD instruction.
type Instr struct {
	Op   insts.Op
	Dest Index
	Srcs []Index
	Imm  uint32

	// Target is the branch target of a branch instruction.
	Target *Block

	// Const is the embedded constant the instruction reads through the FAU
	// slot, if any. Clause forming moves it into the clause.
	Const *Constant
}

// NewInstr creates an instruction.
func NewInstr(op insts.Op, dest Index, srcs ...Index) *Instr {
	return &Instr{Op: op, Dest: dest, Srcs: srcs}
}

// Src returns source i, or Null when out of range.
func (i *Instr) Src(n int) Index {
	if n < 0 || n >= len(i.Srcs) {
		return Null()
	}
	return i.Srcs[n]
}

// Props returns the opcode properties of the instruction.
func (i *Instr) Props() insts.OpProps {
	return i.Op.Props()
}

// Tuple is a dual-issue FMA/ADD pair. A nil instruction is a NOP.
type Tuple struct {
	FMA    *Instr
	ADD    *Instr
	FAUIdx uint8
}

// Constant is a 64-bit embedded constant.
type Constant struct {
	Value uint64
	Mod   insts.ConstMod
}

// Clause is a group of up to 8 tuples sharing a header.
type Clause struct {
	Tuples []Tuple

	FlowControl insts.FlowControl
	MessageType insts.MessageType

	// Dependencies are the scoreboard slots that must complete before the
	// clause issues.
	Dependencies uint8

	// ScoreboardID is the slot signalled by this clause's message.
	ScoreboardID uint8

	StagingBarrier     bool
	TerminateDiscarded bool
	NextClausePrefetch bool
	FlushToZero        insts.FTZ
	FloatExceptions    insts.Exceptions
	SuppressInf        bool
	SuppressNaN        bool

	Constants []Constant

	// PCRel is the index of the constant patched with the branch offset,
	// or NoPCRel.
	PCRel int

	Block *Block
}

// NewClause creates an empty clause owned by block.
func NewClause(block *Block) *Clause {
	return &Clause{
		FlowControl:        insts.FlowNBTB,
		NextClausePrefetch: true,
		PCRel:              NoPCRel,
		Block:              block,
	}
}

// LastInstr returns the final instruction of the clause: the ADD of the
// last tuple, or its FMA when the ADD is empty.
func (c *Clause) LastInstr() *Instr {
	if len(c.Tuples) == 0 {
		return nil
	}

	last := c.Tuples[len(c.Tuples)-1]
	if last.ADD != nil {
		return last.ADD
	}
	return last.FMA
}

// Instrs counts the non-NOP instructions of the clause.
func (c *Clause) Instrs() (instrs, nops int) {
	for _, t := range c.Tuples {
		for _, i := range []*Instr{t.FMA, t.ADD} {
			if i == nil || i.Op.IsNop() {
				nops++
			} else {
				instrs++
			}
		}
	}
	return instrs, nops
}

// Block is a basic block.
type Block struct {
	ID         int
	Clauses    []*Clause
	Successors [2]*Block
}

// IsTerminal reports whether the block ends the program.
func (b *Block) IsTerminal() bool {
	return b.Successors[0] == nil && b.Successors[1] == nil
}

// Program is a scheduled shader.
type Program struct {
	Name     string
	Stage    string
	Internal bool
	Blocks   []*Block
}

// Clauses returns every clause in layout order.
func (p *Program) Clauses() []*Clause {
	var clauses []*Clause
	for _, b := range p.Blocks {
		clauses = append(clauses, b.Clauses...)
	}
	return clauses
}

func (p *Program) blockIndex(block *Block) int {
	for i, b := range p.Blocks {
		if b == block {
			return i
		}
	}
	return -1
}

// NextClause returns the clause executed after clause in layout order.
// With a nil clause it returns the first clause at or after block. Empty
// blocks are skipped; nil means the end of the program.
func (p *Program) NextClause(block *Block, clause *Clause) *Clause {
	idx := p.blockIndex(block)
	if idx < 0 {
		return nil
	}

	if clause == nil {
		if len(block.Clauses) > 0 {
			return block.Clauses[0]
		}
	} else {
		for i, c := range block.Clauses {
			if c == clause && i+1 < len(block.Clauses) {
				return block.Clauses[i+1]
			}
		}
	}

	for _, b := range p.Blocks[idx+1:] {
		if len(b.Clauses) > 0 {
			return b.Clauses[0]
		}
	}

	return nil
}

// Successors returns the clauses that may follow clause. Within a block
// that is the next clause. The final clause of a block is followed by the
// first clauses of the block's successors, in successor order.
func (p *Program) Successors(block *Block, clause *Clause) (next1, next2 *Clause) {
	isLast := len(block.Clauses) > 0 && block.Clauses[len(block.Clauses)-1] == clause
	if !isLast {
		return p.NextClause(block, clause), nil
	}

	return p.NextClause(block.Successors[0], nil), p.NextClause(block.Successors[1], nil)
}
