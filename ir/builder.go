package ir

import (
	"fmt"

	"github.com/sarchlab/bipack/insts"
)

// Builder constructs programs block by block and clause by clause.
//
//	prog := ir.NewBuilder("shader").
//		Block().
//		Clause().Tuple(fma, add).Constant(0x3f800000).
//		Program()
type Builder struct {
	prog   *Program
	block  *Block
	clause *Clause
}

// NewBuilder starts a program.
func NewBuilder(name string) *Builder {
	return &Builder{prog: &Program{Name: name}}
}

// Stage sets the shader stage name.
func (b *Builder) Stage(stage string) *Builder {
	b.prog.Stage = stage
	return b
}

// Internal marks the program as driver generated.
func (b *Builder) Internal() *Builder {
	b.prog.Internal = true
	return b
}

// Block appends a block and makes it current.
func (b *Builder) Block() *Builder {
	b.block = &Block{ID: len(b.prog.Blocks)}
	b.prog.Blocks = append(b.prog.Blocks, b.block)
	b.clause = nil
	return b
}

// Clause appends a clause to the current block and makes it current.
func (b *Builder) Clause() *Builder {
	if b.block == nil {
		b.Block()
	}
	b.clause = NewClause(b.block)
	b.block.Clauses = append(b.block.Clauses, b.clause)
	return b
}

func (b *Builder) current() *Clause {
	if b.clause == nil {
		b.Clause()
	}
	return b.clause
}

// Tuple appends a tuple to the current clause.
func (b *Builder) Tuple(fma, add *Instr) *Builder {
	return b.TupleFAU(fma, add, 0)
}

// TupleFAU appends a tuple reading FAU index idx.
func (b *Builder) TupleFAU(fma, add *Instr, idx uint8) *Builder {
	c := b.current()
	c.Tuples = append(c.Tuples, Tuple{FMA: fma, ADD: add, FAUIdx: idx})
	return b
}

// Constant appends an embedded constant to the current clause.
func (b *Builder) Constant(v uint64) *Builder {
	c := b.current()
	c.Constants = append(c.Constants, Constant{Value: v})
	return b
}

// BranchConstant appends the PC-relative constant patched with the offset
// of the clause's branch target.
func (b *Builder) BranchConstant() *Builder {
	c := b.current()
	c.PCRel = len(c.Constants)
	c.Constants = append(c.Constants, Constant{Mod: insts.ConstModPCHi})
	return b
}

// Flow sets the flow control of the current clause.
func (b *Builder) Flow(f insts.FlowControl) *Builder {
	b.current().FlowControl = f
	return b
}

// Message sets the message type of the current clause.
func (b *Builder) Message(m insts.MessageType) *Builder {
	b.current().MessageType = m
	return b
}

// Deps sets the dependency mask of the current clause.
func (b *Builder) Deps(mask uint8) *Builder {
	b.current().Dependencies = mask
	return b
}

// Scoreboard sets the scoreboard slot of the current clause.
func (b *Builder) Scoreboard(slot uint8) *Builder {
	b.current().ScoreboardID = slot
	return b
}

// StagingBarrier sets the staging barrier flag of the current clause.
func (b *Builder) StagingBarrier() *Builder {
	b.current().StagingBarrier = true
	return b
}

// FlushToZero sets the flush-to-zero mode of the current clause.
func (b *Builder) FlushToZero(ftz insts.FTZ) *Builder {
	b.current().FlushToZero = ftz
	return b
}

// Link sets the successors of block from to the blocks at the given
// indices.
func (b *Builder) Link(from int, to ...int) *Builder {
	if len(to) > 2 {
		panic(fmt.Sprintf("block %d has %d successors", from, len(to)))
	}

	blk := b.prog.Blocks[from]
	for i, t := range to {
		blk.Successors[i] = b.prog.Blocks[t]
	}
	return b
}

// CurrentBlock returns the block being built.
func (b *Builder) CurrentBlock() *Block {
	return b.block
}

// CurrentClause returns the clause being built.
func (b *Builder) CurrentClause() *Clause {
	return b.clause
}

// BlockAt returns block i.
func (b *Builder) BlockAt(i int) *Block {
	return b.prog.Blocks[i]
}

// Program returns the built program.
func (b *Builder) Program() *Program {
	return b.prog
}
