package pack

import (
	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
)

// NoStaging marks a tuple without a staging register.
const NoStaging = -1

// PackedTuple is a tuple in its 78-bit encoding, with the port assignment
// it was packed with.
type PackedTuple struct {
	format.Tuple

	Regs Registers
	Mode insts.RegMode

	// Staging is the staging register of the ADD instruction, or
	// NoStaging.
	Staging int
}

// resolveSrc maps an operand to the packed source selecting it.
func (r *Registers) resolveSrc(src ir.Index) insts.PackedSrc {
	switch src.Kind {
	case ir.KindReg:
		n := src.Value
		switch {
		case r.Enabled[0] && r.Port[0] == n:
			return insts.SrcPort0
		case r.Enabled[1] && r.Port[1] == n:
			return insts.SrcPort1
		case r.Slot23.Slot2 == insts.RegOpRead && r.Port[2] == n:
			return insts.SrcPort2
		}
		fatalf("r%d is not assigned to a read port", n)
	case ir.KindPass:
		return insts.PackedSrc(src.Value)
	case ir.KindFAU:
		if src.HiWord {
			return insts.SrcFAUHi
		}
		return insts.SrcFAULo
	}
	return insts.SrcStage
}

func (r *Registers) resolveSrcs(ins *ir.Instr, start int) []insts.PackedSrc {
	p := ins.Props()
	srcs := make([]insts.PackedSrc, p.EncSrcs)
	for i := range srcs {
		srcs[i] = r.resolveSrc(ins.Src(start + i))
	}
	return srcs
}

func packFMA(regs *Registers, ins *ir.Instr) uint32 {
	if ins == nil {
		ins = &ir.Instr{Op: insts.OpFmaNop}
	}

	word, err := insts.EncodeFMA(ins.Op, regs.resolveSrcs(ins, 0), ins.Imm)
	if err != nil {
		fatalf("%v", err)
	}
	return word
}

func packADD(regs *Registers, ins *ir.Instr, quirks insts.Quirks) uint32 {
	if ins == nil {
		ins = &ir.Instr{Op: insts.OpAddNop}
	}

	switch ins.Op {
	case insts.OpAddClperOld:
		assertf(quirks.Has(insts.LimitedCLPER), "CLPER_OLD.i32 needs a GPU with limited CLPER")
	case insts.OpAddClper:
		assertf(!quirks.Has(insts.LimitedCLPER), "CLPER.i32 is unavailable on this GPU")
	}

	start := 0
	if ins.Props().SRRead {
		start = 1
	}

	word, err := insts.EncodeADD(ins.Op, regs.resolveSrcs(ins, start), ins.Imm)
	if err != nil {
		fatalf("%v", err)
	}
	return word
}

// StagingRegister returns the register an ADD instruction passes to or
// receives from its message, or NoStaging.
func StagingRegister(add *ir.Instr) int {
	if add == nil {
		return NoStaging
	}

	p := add.Props()
	src0 := add.Src(0)
	switch {
	case p.SRRead && src0.IsReg():
		if p.SRWrite {
			assertf(add.Dest.IsReg() && add.Dest.Value == src0.Value,
				"%v reads r%d but writes %v through the staging register", add.Op, src0.Value, add.Dest)
		}
		return int(src0.Value)
	case p.SRWrite && add.Dest.IsReg():
		return int(add.Dest.Value)
	}
	return NoStaging
}

// PackTuple packs tuple t, whose predecessor in the clause is prev.
func PackTuple(t, prev *ir.Tuple, first bool, quirks insts.Quirks) PackedTuple {
	regs := AssignSlots(t, prev)
	regs.Flip()

	reg := PackRegisters(regs, first)
	fma := packFMA(&regs, t.FMA)
	add := packADD(&regs, t.ADD, quirks)

	return PackedTuple{
		Tuple:   format.NewTuple(reg, fma, add),
		Regs:    regs,
		Mode:    regs.Mode(first),
		Staging: StagingRegister(t.ADD),
	}
}
