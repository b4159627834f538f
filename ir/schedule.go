package ir

import (
	"github.com/sarchlab/bipack/config"
	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
)

// MaxTuples is the number of tuples a clause can hold.
const MaxTuples = 8

type clauseFormer struct {
	block   *Block
	opts    *config.Options
	clauses []*Clause
	cur     *Clause
}

// Schedule forms clauses from a straight-line instruction sequence and
// appends them to block. Each instruction gets a tuple of its own, with the
// other unit left as a NOP. A clause is closed after a message or branch,
// before a tuple reading a register written by the tuple before it, when
// it is full and when its constants no longer fit. With NoSched every
// instruction gets its own clause.
//
// An instruction reading an embedded constant sets Const; the constant is
// moved into the clause and the tuple's FAU index points at it. A branch
// with a target reads the PC-relative constant through FAU(true).
func Schedule(block *Block, instrs []*Instr, opts *config.Options) []*Clause {
	if opts == nil {
		opts = config.DefaultOptions()
	}

	f := &clauseFormer{block: block, opts: opts}
	for _, ins := range instrs {
		f.add(ins)
	}
	f.close()

	block.Clauses = append(block.Clauses, f.clauses...)
	return f.clauses
}

func (f *clauseFormer) close() {
	if f.cur != nil {
		OrderConstants(f.cur)
		f.clauses = append(f.clauses, f.cur)
		f.cur = nil
	}
}

func (f *clauseFormer) constantsNeeded(ins *Instr) int {
	n := 0
	if ins.Const != nil {
		n++
	}
	if ins.Target != nil && ins.Props().Branch {
		n++
	}
	return n
}

func (f *clauseFormer) fits(ins *Instr) bool {
	c := f.cur
	if c == nil {
		return true
	}

	if f.opts.NoSched || len(c.Tuples) >= MaxTuples {
		return false
	}

	last := c.LastInstr()
	if last != nil {
		p := last.Props()
		if p.Message != insts.MessageNone || p.Branch {
			return false
		}
		if readsAfterWrite(ins, last) {
			return false
		}
	}

	need := len(c.Constants) + f.constantsNeeded(ins)
	return need <= min(format.MaxConstants(len(c.Tuples)+1), insts.MaxEmbeddedConstants)
}

func readsAfterWrite(ins, prev *Instr) bool {
	if !prev.Dest.IsReg() {
		return false
	}
	for _, s := range ins.Srcs {
		if s.IsReg() && s.Value == prev.Dest.Value {
			return true
		}
	}
	return false
}

func (f *clauseFormer) add(ins *Instr) {
	if !f.fits(ins) {
		f.close()
	}
	if f.cur == nil {
		f.cur = NewClause(f.block)
	}

	c := f.cur
	t := Tuple{}
	if ins.Op.Unit() == insts.UnitFMA {
		t.FMA = ins
	} else {
		t.ADD = ins
	}

	if ins.Const != nil {
		k := len(c.Constants)
		c.Constants = append(c.Constants, *ins.Const)
		t.FAUIdx = insts.FAUConstant(k, uint8(ins.Const.Value&0xF))
	}

	p := ins.Props()
	if ins.Target != nil && p.Branch {
		k := len(c.Constants)
		c.PCRel = k
		c.Constants = append(c.Constants, Constant{Mod: insts.ConstModPCHi})
		t.FAUIdx = insts.FAUConstant(k, 0)
	}

	if p.Branch {
		c.FlowControl = insts.FlowNBTBPC
	}
	if p.Message != insts.MessageNone {
		c.MessageType = p.Message
	}

	c.Tuples = append(c.Tuples, t)
}
