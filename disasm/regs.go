package disasm

import (
	"fmt"

	"github.com/sarchlab/bipack/insts"
)

// Regs is a decoded register word.
type Regs struct {
	FAUIdx uint8
	Reg0   uint8
	Reg1   uint8
	Reg2   uint8
	Reg3   uint8
	Ctrl   uint8

	// Port holds the register numbers after undoing the 63-x encoding.
	Port [4]uint8

	Read0 bool
	Read1 bool

	Mode   insts.RegMode
	Slot23 insts.Slot23
}

// DecodeRegs decodes a 35-bit register word. first selects the encoding of
// the first tuple of a clause.
func DecodeRegs(word uint64, first bool) Regs {
	r := Regs{
		FAUIdx: uint8(word),
		Reg3:   uint8(word>>8) & 0x3F,
		Reg2:   uint8(word>>14) & 0x3F,
		Reg0:   uint8(word>>20) & 0x1F,
		Reg1:   uint8(word>>25) & 0x3F,
		Ctrl:   uint8(word>>31) & 0xF,
	}

	var ctrl uint8
	if r.Ctrl == 0 {
		ctrl = r.Reg1 >> 2
		r.Read0 = r.Reg1&0x2 == 0
		r.Port[0] = r.Reg0 | (r.Reg1&0x1)<<5
	} else {
		ctrl = r.Ctrl
		r.Read0 = true
		r.Read1 = true
		if r.Reg0 <= r.Reg1 {
			r.Port[0], r.Port[1] = r.Reg0, r.Reg1
		} else {
			r.Port[0], r.Port[1] = 63-r.Reg0, 63-r.Reg1
		}
	}

	r.Port[2] = r.Reg2
	r.Port[3] = r.Reg3

	if first {
		ctrl = ctrl&0x7 | (ctrl&0x8)<<1
	} else if r.Reg2 == r.Reg3 {
		ctrl += 16
	}

	r.Mode = insts.RegMode(ctrl)
	r.Slot23, _ = r.Mode.Slots()

	return r
}

func (r Regs) String() string {
	return fmt.Sprintf("fau=%#02x r0=%d r1=%d r2=%d r3=%d ctrl=%d mode=%s",
		r.FAUIdx, r.Port[0], r.Port[1], r.Port[2], r.Port[3], r.Ctrl, r.Mode)
}
