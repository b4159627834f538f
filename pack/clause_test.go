package pack_test

import (
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bipack/disasm"
	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
	"github.com/sarchlab/bipack/pack"
)

func emptyClause(n int, consts ...ir.Constant) *ir.Clause {
	c := ir.NewClause(nil)
	c.Tuples = make([]ir.Tuple, n)
	c.Constants = consts
	return c
}

// constants returns k constants using every top nibble. Low nibbles are
// zero since FAU indices carry them.
func constants(k int) []ir.Constant {
	out := make([]ir.Constant, k)
	for i := range out {
		out[i].Value = uint64(i+1) * 0x2345_6789_ABCD_EF10
	}
	return out
}

func decode(p *pack.PackedClause) *disasm.Clause {
	d, err := disasm.DecodeClause(p.Bytes(), 0)
	Expect(err).NotTo(HaveOccurred())
	return d
}

var _ = Describe("Clause", func() {
	var next *ir.Clause

	BeforeEach(func() {
		next = emptyClause(1)
	})

	It("should size every clause by tuple and constant count", func() {
		for n := 1; n <= 8; n++ {
			limit := min(format.MaxConstants(n), insts.MaxEmbeddedConstants)
			for k := 0; k <= limit; k++ {
				c := emptyClause(n, constants(k)...)
				ir.OrderConstants(c)
				c.MessageType = insts.MessageStore
				c.FlowControl = insts.FlowBTBNone

				p := pack.PackClause(c, next, nil, c.Constants, 0)
				Expect(p.Bytes()).To(HaveLen(16*format.ClauseQuadwords(n, k)),
					"%d tuples, %d constants", n, k)
				Expect(p.Formats).To(Equal(format.Indices[n-1]))

				d := decode(p)
				Expect(d.Tuples).To(HaveLen(n))
				Expect(d.Quadwords).To(Equal(p.Quadwords()))
				Expect(d.Header.MessageType).To(Equal(insts.MessageStore))
				Expect(d.Header.FlowControl).To(Equal(insts.FlowBTBNone))
				Expect(d.Constants).To(HaveLen(format.ConstantSlots(n, k)))
				for i, want := range c.Constants {
					Expect(d.Constants[i]).To(Equal(want.Value), "%d tuples, constant %d", n, i)
				}
			}
		}
	})

	It("should decode the tuples it packed", func() {
		fma := ir.NewInstr(insts.OpFmaFAdd, ir.Reg(2), ir.Reg(0), ir.FAU(false))
		add := ir.NewInstr(insts.OpAddIAdd, ir.Reg(3), ir.T0(), ir.Reg(1))
		c := emptyClause(3)
		c.Tuples[0] = ir.Tuple{FMA: fma, ADD: add, FAUIdx: insts.FAUUniform(2)}
		c.Tuples[2] = ir.Tuple{FMA: ir.NewInstr(insts.OpFmaMov, ir.Reg(4), ir.Reg(2))}

		p := pack.PackClause(c, next, nil, nil, 0)
		d := decode(p)

		want := make([]format.Tuple, len(p.Tuples))
		for i, t := range p.Tuples {
			want[i] = t.Tuple
		}
		Expect(cmp.Diff(want, d.Tuples)).To(BeEmpty())

		Expect(d.Regs[0].Mode).To(Equal(p.Tuples[0].Mode))
		Expect(d.Regs[1].Slot23).To(Equal(insts.Slot23{Slot2: insts.RegOpWrite, Slot3: insts.RegOpWrite}))
	})

	It("should pack deterministically", func() {
		c := emptyClause(5, constants(4)...)
		a := pack.PackClause(c, next, nil, c.Constants, 0).Bytes()
		b := pack.PackClause(c, next, nil, c.Constants, 0).Bytes()
		Expect(a).To(Equal(b))
	})

	It("should record the staging register", func() {
		store := ir.NewInstr(insts.OpAddStore, ir.Null(), ir.Reg(8), ir.Reg(0), ir.Reg(1))
		c := emptyClause(1)
		c.Tuples[0].ADD = store

		p := pack.PackClause(c, next, nil, nil, 0)
		Expect(p.Staging).To(Equal(8))
		Expect(decode(p).Header.StagingRegister).To(Equal(uint8(8)))
	})

	It("should reject too many constants", func() {
		c := emptyClause(1, constants(3)...)
		Expect(func() { pack.PackClause(c, next, nil, c.Constants, 0) }).To(panicInvariant())
	})

	Describe("CLPER", func() {
		clper := func(op insts.Op) *ir.Clause {
			c := emptyClause(1)
			c.Tuples[0].ADD = ir.NewInstr(op, ir.Reg(1), ir.Reg(0), ir.FAU(false))
			return c
		}

		It("should use the old encoding on limited GPUs", func() {
			Expect(func() {
				pack.PackClause(clper(insts.OpAddClperOld), next, nil, nil, insts.LimitedCLPER)
			}).NotTo(Panic())
			Expect(func() {
				pack.PackClause(clper(insts.OpAddClper), next, nil, nil, insts.LimitedCLPER)
			}).To(panicInvariant())
		})

		It("should use the new encoding elsewhere", func() {
			Expect(func() { pack.PackClause(clper(insts.OpAddClper), next, nil, nil, 0) }).NotTo(Panic())
			Expect(func() { pack.PackClause(clper(insts.OpAddClperOld), next, nil, nil, 0) }).To(panicInvariant())
		})
	})

	Describe("Constant modifiers", func() {
		const pc = uint64(0x100) << 32

		It("should encode a modifier on the first constant of a pair", func() {
			consts := []ir.Constant{{Value: pc, Mod: insts.ConstModPCHi}, {Value: 0x5 << 60}}
			d := decode(pack.PackClause(emptyClause(1), next, nil, consts, 0))

			Expect(d.Constants).To(Equal([]uint64{pc, 0x5 << 60}))
			Expect(d.Mods).To(Equal([]insts.ConstMod{insts.ConstModPCHi, insts.ConstModNone}))
		})

		It("should encode a modifier on the second constant of a pair", func() {
			consts := []ir.Constant{{Value: 0x3 << 60}, {Value: pc, Mod: insts.ConstModPCLo}}
			d := decode(pack.PackClause(emptyClause(1), next, nil, consts, 0))

			Expect(d.Constants).To(Equal([]uint64{0x3 << 60, pc}))
			Expect(d.Mods).To(Equal([]insts.ConstMod{insts.ConstModNone, insts.ConstModPCLo}))
		})

		It("should wrap the nibble difference", func() {
			consts := []ir.Constant{{Value: 0x10}, {Value: pc, Mod: insts.ConstModPCHi}}
			d := decode(pack.PackClause(emptyClause(2), next, nil, consts, 0))
			Expect(d.Mods).To(Equal([]insts.ConstMod{insts.ConstModNone, insts.ConstModPCHi}))
			Expect(d.Constants[1]).To(Equal(pc))
		})

		It("should encode a modifier on the embedded constant", func() {
			consts := []ir.Constant{{Value: pc, Mod: insts.ConstModPCLoHi}}
			d := decode(pack.PackClause(emptyClause(3), next, nil, consts, 0))

			Expect(d.Constants).To(Equal([]uint64{pc}))
			Expect(d.Mods).To(Equal([]insts.ConstMod{insts.ConstModPCLoHi}))
		})

		It("should leave unmodified pairs with large nibble differences alone", func() {
			consts := []ir.Constant{{Value: 0x9 << 60}, {Value: 0x1 << 60}}
			d := decode(pack.PackClause(emptyClause(1), next, nil, consts, 0))
			Expect(d.Constants).To(Equal([]uint64{0x9 << 60, 0x1 << 60}))
			Expect(d.Mods).To(Equal([]insts.ConstMod{insts.ConstModNone, insts.ConstModNone}))
		})

		It("should pad an odd trailing constant whatever its top nibble", func() {
			for nibble := uint64(0); nibble < 16; nibble++ {
				v := nibble<<60 | 0x3F80_0000
				for _, n := range []int{1, 3, 6} {
					consts := []ir.Constant{{Value: 0x10}, {Value: v}}
					if format.EC0Packed(n) == 0 {
						consts = consts[1:]
					}

					d := decode(pack.PackClause(emptyClause(n), next, nil, consts, 0))
					Expect(d.Constants[len(consts)-1]).To(Equal(v), "%d tuples, nibble %#x", n, nibble)
					Expect(d.Mods).To(HaveEach(insts.ConstModNone))
				}
			}
		})

		It("should pack a float pair constant", func() {
			consts := []ir.Constant{{Value: 0x4000_0000_3F80_0000}}
			d := decode(pack.PackClause(emptyClause(1), next, nil, consts, 0))
			Expect(d.Constants[0]).To(Equal(uint64(0x4000_0000_3F80_0000)))
		})

		It("should round trip a modifier on the embedded constant", func() {
			for _, n := range []int{3, 6} {
				for _, mod := range []insts.ConstMod{insts.ConstModPCLo, insts.ConstModPCHi, insts.ConstModPCLoHi} {
					consts := []ir.Constant{{Value: pc | 0x40, Mod: mod}, {Value: 0xA << 60}}
					d := decode(pack.PackClause(emptyClause(n), next, nil, consts, 0))

					Expect(d.Constants[:2]).To(Equal([]uint64{pc | 0x40, 0xA << 60}), "%d tuples, %s", n, mod)
					Expect(d.Mods[0]).To(Equal(mod))
					Expect(d.Mods[1]).To(Equal(insts.ConstModNone))
				}
			}
		})

		It("should reject pairs aliasing a modifier", func() {
			consts := []ir.Constant{{Value: 0x3 << 60}, {Value: 0x1 << 60}}
			Expect(func() { pack.PackClause(emptyClause(1), next, nil, consts, 0) }).To(panicInvariant())
		})

		It("should reject two modifiers in a pair", func() {
			consts := []ir.Constant{{Mod: insts.ConstModPCHi}, {Mod: insts.ConstModPCLo}}
			Expect(func() { pack.PackClause(emptyClause(1), next, nil, consts, 0) }).To(panicInvariant())
		})

		It("should reject a modified constant using the top nibble", func() {
			consts := []ir.Constant{{Value: 1 << 63, Mod: insts.ConstModPCHi}}
			Expect(func() { pack.PackClause(emptyClause(1), next, nil, consts, 0) }).To(panicInvariant())
		})

		It("should reject a modifier on a split embedded constant", func() {
			consts := []ir.Constant{{Value: pc, Mod: insts.ConstModPCHi}}
			Expect(func() { pack.PackClause(emptyClause(5), next, nil, consts, 0) }).To(panicInvariant())
		})
	})
})
