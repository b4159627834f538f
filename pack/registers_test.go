package pack_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bipack/disasm"
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
	"github.com/sarchlab/bipack/pack"
)

var _ = Describe("Registers", func() {
	fadd := func(d, a, b uint32) *ir.Instr {
		return ir.NewInstr(insts.OpFmaFAdd, ir.Reg(d), ir.Reg(a), ir.Reg(b))
	}
	iadd := func(d, a, b uint32) *ir.Instr {
		return ir.NewInstr(insts.OpAddIAdd, ir.Reg(d), ir.Reg(a), ir.Reg(b))
	}

	Describe("AssignSlots", func() {
		It("should share read ports between the units", func() {
			regs := pack.AssignSlots(&ir.Tuple{FMA: fadd(2, 0, 1), ADD: iadd(3, 1, 4)}, nil)

			Expect(regs.Enabled).To(Equal([2]bool{true, true}))
			Expect(regs.Port[0]).To(Equal(uint32(0)))
			Expect(regs.Port[1]).To(Equal(uint32(1)))
			Expect(regs.Port[2]).To(Equal(uint32(4)))
			Expect(regs.Slot23).To(Equal(insts.Slot23{Slot2: insts.RegOpRead}))
			Expect(regs.Mode(false)).To(Equal(insts.RegModeRI))
		})

		It("should fail when out of read ports", func() {
			fma := ir.NewInstr(insts.OpFmaFMA, ir.Reg(9), ir.Reg(0), ir.Reg(1), ir.Reg(2))
			Expect(func() {
				pack.AssignSlots(&ir.Tuple{FMA: fma, ADD: iadd(3, 4, 5)}, nil)
			}).To(panicInvariant())
		})

		It("should not read the staging source through a port", func() {
			store := ir.NewInstr(insts.OpAddStore, ir.Null(), ir.Reg(8), ir.Reg(0), ir.Reg(1))
			regs := pack.AssignSlots(&ir.Tuple{ADD: store}, nil)

			Expect(regs.Port[0]).To(Equal(uint32(0)))
			Expect(regs.Port[1]).To(Equal(uint32(1)))
			Expect(regs.Slot23.Slot2).To(Equal(insts.RegOpIdle))
		})

		It("should skip the blend return address", func() {
			blend := ir.NewInstr(insts.OpAddBlend, ir.Null(),
				ir.Reg(8), ir.Reg(0), ir.Reg(1), ir.Null(), ir.Reg(9))
			regs := pack.AssignSlots(&ir.Tuple{ADD: blend}, nil)

			Expect(regs.Slot23.Slot2).To(Equal(insts.RegOpIdle))
		})

		It("should write the previous ADD result through slot 3", func() {
			prev := &ir.Tuple{ADD: iadd(5, 0, 1)}
			regs := pack.AssignSlots(&ir.Tuple{}, prev)

			Expect(regs.Port[3]).To(Equal(uint32(5)))
			Expect(regs.Slot23).To(Equal(insts.Slot23{Slot3: insts.RegOpWrite}))
			Expect(regs.Mode(false)).To(Equal(insts.RegModeIWADD))
		})

		It("should write a lone FMA result through slot 3", func() {
			prev := &ir.Tuple{FMA: ir.NewInstr(insts.OpFmaMov, ir.Reg(6).Lo(), ir.Reg(0))}
			regs := pack.AssignSlots(&ir.Tuple{}, prev)

			Expect(regs.Port[3]).To(Equal(uint32(6)))
			Expect(regs.Slot23).To(Equal(insts.Slot23{Slot3: insts.RegOpWriteLo, Slot3FMA: true}))
			Expect(regs.Mode(false)).To(Equal(insts.RegModeIWLFMA))
		})

		It("should divert the FMA result to slot 2 when both units write", func() {
			prev := &ir.Tuple{FMA: fadd(6, 0, 1), ADD: iadd(5, 0, 1)}
			regs := pack.AssignSlots(&ir.Tuple{}, prev)

			Expect(regs.Port[2]).To(Equal(uint32(6)))
			Expect(regs.Port[3]).To(Equal(uint32(5)))
			Expect(regs.Mode(false)).To(Equal(insts.RegModeWWADD))
		})

		It("should leave staging writes to the message", func() {
			load := ir.NewInstr(insts.OpAddLoad, ir.Reg(4), ir.Reg(0), ir.Reg(1))
			regs := pack.AssignSlots(&ir.Tuple{}, &ir.Tuple{ADD: load})
			Expect(regs.Slot23.Slot3).To(Equal(insts.RegOpIdle))
		})

		It("should write the ATEST result through a port", func() {
			atest := ir.NewInstr(insts.OpAddATest, ir.Reg(4), ir.Reg(0), ir.FAU(false))
			regs := pack.AssignSlots(&ir.Tuple{}, &ir.Tuple{ADD: atest})
			Expect(regs.Slot23.Slot3).To(Equal(insts.RegOpWrite))
			Expect(regs.Port[3]).To(Equal(uint32(4)))
		})

		It("should fail when a write needs slot 2 while it reads", func() {
			fma := ir.NewInstr(insts.OpFmaFMA, ir.Reg(9), ir.Reg(0), ir.Reg(1), ir.Reg(2))
			prev := &ir.Tuple{FMA: fadd(6, 0, 1), ADD: iadd(5, 0, 1)}
			Expect(func() {
				pack.AssignSlots(&ir.Tuple{FMA: fma}, prev)
			}).To(panicInvariant())
		})
	})

	Describe("Flip", func() {
		It("should order the read ports", func() {
			regs := pack.AssignSlots(&ir.Tuple{FMA: fadd(0, 9, 3)}, nil)
			Expect(regs.Port[0]).To(Equal(uint32(9)))

			regs.Flip()
			Expect(regs.Port[0]).To(Equal(uint32(3)))
			Expect(regs.Port[1]).To(Equal(uint32(9)))
		})

		It("should keep decoded read ports ordered for every pair", func() {
			for a := uint32(0); a < 64; a += 3 {
				for b := uint32(0); b < 64; b += 5 {
					if a == b {
						continue
					}

					regs := pack.AssignSlots(&ir.Tuple{FMA: fadd(0, a, b)}, nil)
					regs.Flip()
					d := disasm.DecodeRegs(pack.PackRegisters(regs, false), false)

					Expect(d.Read0).To(BeTrue())
					Expect(d.Read1).To(BeTrue())
					Expect(d.Port[1]).To(BeNumerically(">", d.Port[0]))
					Expect([]uint8{d.Port[0], d.Port[1]}).To(ConsistOf(uint8(a), uint8(b)))
				}
			}
		})
	})

	Describe("PackRegisters", func() {
		It("should encode an idle first tuple as IDLE_1", func() {
			regs := pack.AssignSlots(&ir.Tuple{}, &ir.Tuple{})
			Expect(regs.Mode(true)).To(Equal(insts.RegModeIdle1))

			d := disasm.DecodeRegs(pack.PackRegisters(regs, true), true)
			Expect(d.Mode).To(Equal(insts.RegModeIdle1))
			Expect(d.Slot23.Slot2).To(Equal(insts.RegOpIdle))
			Expect(d.Slot23.Slot3).To(Equal(insts.RegOpIdle))
			Expect(d.Read0).To(BeFalse())
			Expect(d.Read1).To(BeFalse())
		})

		It("should encode an idle later tuple as IDLE", func() {
			regs := pack.AssignSlots(&ir.Tuple{}, &ir.Tuple{})
			Expect(regs.Mode(false)).To(Equal(insts.RegModeIdle))

			d := disasm.DecodeRegs(pack.PackRegisters(regs, false), false)
			Expect(d.Mode).To(Equal(insts.RegModeIdle))
			Expect(d.Slot23.Slot2).To(Equal(insts.RegOpIdle))
			Expect(d.Slot23.Slot3).To(Equal(insts.RegOpIdle))
			Expect(d.Read0).To(BeFalse())
		})

		It("should store high read ports complemented", func() {
			regs := pack.AssignSlots(&ir.Tuple{FMA: fadd(0, 45, 40)}, nil)
			regs.Flip()
			word := pack.PackRegisters(regs, false)

			Expect((word >> 20) & 0x1F).To(Equal(uint64(63 - 40)))
			Expect((word >> 25) & 0x3F).To(Equal(uint64(63 - 45)))

			d := disasm.DecodeRegs(word, false)
			Expect(d.Port[0]).To(Equal(uint8(40)))
			Expect(d.Port[1]).To(Equal(uint8(45)))
		})

		It("should fold a single read port into reg1", func() {
			regs := pack.AssignSlots(&ir.Tuple{FMA: ir.NewInstr(insts.OpFmaMov, ir.Reg(1), ir.Reg(37))}, nil)
			word := pack.PackRegisters(regs, false)

			Expect(word >> 31).To(BeZero())
			d := disasm.DecodeRegs(word, false)
			Expect(d.Read0).To(BeTrue())
			Expect(d.Read1).To(BeFalse())
			Expect(d.Port[0]).To(Equal(uint8(37)))
		})

		It("should carry the FAU index", func() {
			regs := pack.AssignSlots(&ir.Tuple{FAUIdx: insts.FAUUniform(3)}, nil)
			d := disasm.DecodeRegs(pack.PackRegisters(regs, false), false)
			Expect(d.FAUIdx).To(Equal(uint8(0x83)))
		})

		It("should round-trip the write modes of a first tuple", func() {
			prev := &ir.Tuple{FMA: ir.NewInstr(insts.OpFmaMov, ir.Reg(6).Hi(), ir.Reg(0))}
			regs := pack.AssignSlots(&ir.Tuple{FMA: fadd(2, 0, 1)}, prev)
			regs.Flip()

			d := disasm.DecodeRegs(pack.PackRegisters(regs, true), true)
			Expect(d.Mode).To(Equal(insts.RegModeIWHFMA))
			Expect(d.Port[3]).To(Equal(uint8(6)))
		})

		It("should reject modes with bit 3 in the first tuple", func() {
			prev := &ir.Tuple{
				FMA: ir.NewInstr(insts.OpFmaMov, ir.Reg(1).Lo(), ir.Reg(0)),
				ADD: ir.NewInstr(insts.OpAddMov, ir.Reg(2).Hi(), ir.Reg(0)),
			}
			regs := pack.AssignSlots(&ir.Tuple{}, prev)
			Expect(regs.Mode(true)).To(Equal(insts.RegModeWLWHADD))

			Expect(func() { pack.PackRegisters(regs, true) }).To(panicInvariant())
		})

		It("should accept aliased ports when the alias mode matches", func() {
			prev := &ir.Tuple{
				FMA: ir.NewInstr(insts.OpFmaMov, ir.Reg(7).Lo(), ir.Reg(0)),
				ADD: ir.NewInstr(insts.OpAddMov, ir.Reg(7).Hi(), ir.Reg(0)),
			}
			regs := pack.AssignSlots(&ir.Tuple{}, prev)

			d := disasm.DecodeRegs(pack.PackRegisters(regs, false), false)
			Expect(d.Mode).To(Equal(insts.RegModeWLWHMix))
			Expect(d.Slot23).To(Equal(regs.Slot23))
		})

		It("should reject aliased ports that change the mode", func() {
			prev := &ir.Tuple{FMA: fadd(5, 0, 1), ADD: iadd(5, 0, 1)}
			regs := pack.AssignSlots(&ir.Tuple{}, prev)

			Expect(func() { pack.PackRegisters(regs, false) }).To(panicInvariant())
		})
	})
})
