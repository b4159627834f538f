package ir

import (
	"fmt"

	"github.com/sarchlab/bipack/insts"
)

// Kind tags the variant held by an Index.
type Kind uint8

// Index kinds.
const (
	KindNull Kind = iota
	KindReg
	KindFAU
	KindPass
)

// Half selects a 16-bit half of a register write.
type Half uint8

// Register halves.
const (
	HalfFull Half = iota
	HalfLo
	HalfHi
)

// Index is an instruction operand: nothing, a register, the tuple's FAU
// slot, or a value passed between units.
type Index struct {
	Kind Kind

	// Value is the register number for KindReg and the packed source for
	// KindPass.
	Value uint32

	// Half restricts a register destination to one 16-bit half.
	Half Half

	// HiWord selects the upper 32 bits of the FAU slot.
	HiWord bool
}

// Null returns the empty operand.
func Null() Index { return Index{} }

// Reg returns a full register operand.
func Reg(n uint32) Index { return Index{Kind: KindReg, Value: n} }

// FAU returns the low or high word of the tuple's FAU slot.
func FAU(hi bool) Index { return Index{Kind: KindFAU, HiWord: hi} }

// Pass returns a passthrough operand: insts.SrcStage, insts.SrcPassFMA or
// insts.SrcPassADD.
func Pass(src insts.PackedSrc) Index { return Index{Kind: KindPass, Value: uint32(src)} }

// T0 is the previous tuple's FMA result.
func T0() Index { return Pass(insts.SrcPassFMA) }

// T1 is the previous tuple's ADD result.
func T1() Index { return Pass(insts.SrcPassADD) }

// Stage is the current tuple's FMA result as seen by ADD.
func Stage() Index { return Pass(insts.SrcStage) }

// Lo restricts a register to its low half.
func (i Index) Lo() Index {
	i.Half = HalfLo
	return i
}

// Hi restricts a register to its high half.
func (i Index) Hi() Index {
	i.Half = HalfHi
	return i
}

// IsNull reports whether the operand is empty.
func (i Index) IsNull() bool { return i.Kind == KindNull }

// IsReg reports whether the operand is a register.
func (i Index) IsReg() bool { return i.Kind == KindReg }

// Equal compares operands, ignoring register halves.
func (i Index) Equal(o Index) bool {
	return i.Kind == o.Kind && i.Value == o.Value && i.HiWord == o.HiWord
}

func (i Index) String() string {
	switch i.Kind {
	case KindNull:
		return "_"
	case KindReg:
		switch i.Half {
		case HalfLo:
			return fmt.Sprintf("r%d.l", i.Value)
		case HalfHi:
			return fmt.Sprintf("r%d.h", i.Value)
		}
		return fmt.Sprintf("r%d", i.Value)
	case KindFAU:
		if i.HiWord {
			return "fau.y"
		}
		return "fau.x"
	case KindPass:
		switch insts.PackedSrc(i.Value) {
		case insts.SrcPassFMA:
			return "t0"
		case insts.SrcPassADD:
			return "t1"
		}
		return "t"
	}
	return "?"
}
