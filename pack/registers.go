package pack

import (
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
)

// Registers is the register port assignment of one tuple. Ports 0 and 1
// read; ports 2 and 3 read or write as described by Slot23. Writes belong
// to the previous tuple, whose results land while this tuple reads.
type Registers struct {
	Port    [4]uint32
	Enabled [2]bool
	Slot23  insts.Slot23
	FAUIdx  uint8
}

// AssignSlots assigns register ports for tuple now, whose predecessor in
// the clause is prev. The first tuple's predecessor is the last tuple of
// the clause.
func AssignSlots(now, prev *ir.Tuple) Registers {
	regs := Registers{FAUIdx: now.FAUIdx}

	if now.FMA != nil {
		for _, src := range now.FMA.Srcs {
			regs.assignRead(src)
		}
	}

	if now.ADD != nil {
		p := now.ADD.Props()
		for s, src := range now.ADD.Srcs {
			if s == 0 && p.SRRead {
				continue
			}
			if now.ADD.Op == insts.OpAddBlend && s == insts.BlendReturnSrc {
				continue
			}
			regs.assignRead(src)
		}
	}

	if prev != nil {
		regs.assignWrites(prev)
	}

	return regs
}

func (r *Registers) assignRead(src ir.Index) {
	if !src.IsReg() {
		return
	}

	n := src.Value
	if r.Enabled[0] && r.Port[0] == n {
		return
	}
	if r.Enabled[1] && r.Port[1] == n {
		return
	}
	if r.Slot23.Slot2 == insts.RegOpRead && r.Port[2] == n {
		return
	}

	switch {
	case !r.Enabled[0]:
		r.Enabled[0] = true
		r.Port[0] = n
	case !r.Enabled[1]:
		r.Enabled[1] = true
		r.Port[1] = n
	case r.Slot23.Slot2 == insts.RegOpIdle:
		r.Slot23.Slot2 = insts.RegOpRead
		r.Port[2] = n
	default:
		fatalf("out of read ports for r%d", n)
	}
}

func writeOp(dest ir.Index) insts.RegOp {
	switch dest.Half {
	case ir.HalfLo:
		return insts.RegOpWriteLo
	case ir.HalfHi:
		return insts.RegOpWriteHi
	default:
		return insts.RegOpWrite
	}
}

func (r *Registers) assignWrites(prev *ir.Tuple) {
	if add := prev.ADD; add != nil {
		p := add.Props()
		if (!p.SRWrite || add.Op == insts.OpAddATest) && add.Dest.IsReg() {
			r.Port[3] = add.Dest.Value
			r.Slot23.Slot3 = writeOp(add.Dest)
		}
	}

	if fma := prev.FMA; fma != nil && fma.Dest.IsReg() {
		if r.Slot23.Slot3 != insts.RegOpIdle {
			assertf(r.Slot23.Slot2 == insts.RegOpIdle,
				"out of write ports for FMA destination r%d", fma.Dest.Value)
			r.Port[2] = fma.Dest.Value
			r.Slot23.Slot2 = writeOp(fma.Dest)
		} else {
			r.Port[3] = fma.Dest.Value
			r.Slot23.Slot3 = writeOp(fma.Dest)
			r.Slot23.Slot3FMA = true
		}
	}
}

// Flip orders the read ports so that port 1 exceeds port 0 when both are
// enabled, as the register word encoding requires.
func (r *Registers) Flip() {
	if r.Enabled[0] && r.Enabled[1] && r.Port[1] < r.Port[0] {
		r.Port[0], r.Port[1] = r.Port[1], r.Port[0]
	}
}

// Mode returns the register mode of the port 2/3 state.
func (r *Registers) Mode(first bool) insts.RegMode {
	mode, ok := insts.LookupRegMode(r.Slot23, first)
	if !ok {
		fatalf("no register mode for slot2=%d slot3=%d slot3_fma=%t",
			r.Slot23.Slot2, r.Slot23.Slot3, r.Slot23.Slot3FMA)
	}
	return mode
}

// Register word fields.
const (
	regFAUShift  = 0
	regReg3Shift = 8
	regReg2Shift = 14
	regReg0Shift = 20
	regReg1Shift = 25
	regCtrlShift = 31
)

func active(op insts.RegOp) bool {
	return op != insts.RegOpIdle
}

// PackRegisters encodes the 35-bit register word. Flip must have run.
func PackRegisters(r Registers, first bool) uint64 {
	mode := r.Mode(first)
	m := uint64(mode)

	var ctrl uint64
	forceR23 := false
	if first {
		assertf(m&0x8 == 0, "register mode %v cannot start a clause", mode)
		ctrl = m&0x7 | (m&0x10)>>1
		forceR23 = !(active(r.Slot23.Slot2) && active(r.Slot23.Slot3))
	} else {
		ctrl = m & 0xF
		forceR23 = m&0x10 != 0
	}

	if forceR23 {
		if active(r.Slot23.Slot2) {
			r.Port[3] = r.Port[2]
		} else {
			r.Port[2] = r.Port[3]
		}
	} else if !first && r.Port[2] == r.Port[3] {
		alias := insts.RegMode(m + 16)
		want, _ := mode.Slots()
		got, ok := alias.Slots()
		assertf(ok && got == want,
			"register mode %v with r2 == r3 (r%d) decodes as %v", mode, r.Port[2], alias)
	}

	assertf(r.Port[2] < 64 && r.Port[3] < 64, "write port register out of range")

	var reg0, reg1, wordCtrl uint64
	if r.Enabled[1] {
		assertf(r.Port[1] > r.Port[0], "read ports not flipped: r%d, r%d", r.Port[0], r.Port[1])
		assertf(r.Port[1] < 64, "read port register r%d out of range", r.Port[1])

		p0, p1 := uint64(r.Port[0]), uint64(r.Port[1])
		if p0 > 31 {
			reg0, reg1 = 63-p0, 63-p1
		} else {
			reg0, reg1 = p0, p1
		}
		wordCtrl = ctrl
	} else {
		reg1 = ctrl << 2
		if r.Enabled[0] {
			assertf(r.Port[0] < 64, "read port register r%d out of range", r.Port[0])
			reg1 |= uint64(r.Port[0]) >> 5
			reg0 = uint64(r.Port[0]) & 31
		} else {
			reg1 |= 2
		}
	}

	return uint64(r.FAUIdx)<<regFAUShift |
		uint64(r.Port[3])<<regReg3Shift |
		uint64(r.Port[2])<<regReg2Shift |
		reg0<<regReg0Shift |
		reg1<<regReg1Shift |
		wordCtrl<<regCtrlShift
}
