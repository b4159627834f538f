package pack_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
	"github.com/sarchlab/bipack/pack"
)

var _ = Describe("Header", func() {
	var c, next1, next2 *ir.Clause

	BeforeEach(func() {
		c = ir.NewClause(nil)
		next1 = ir.NewClause(nil)
		next2 = ir.NewClause(nil)
	})

	It("should wait on successors and force bit 7 for barriers", func() {
		c.MessageType = insts.MessageBarrier
		next1.Dependencies = 0b00000010
		next2.Dependencies = 0b00000100

		h := pack.BuildHeader(c, pack.NoStaging, next1, next2)
		Expect(h.DependencyWait).To(Equal(uint8(0b10000110)))

		bits := pack.PackHeader(c, pack.NoStaging, next1, next2)
		Expect((bits >> 24) & 0xFF).To(Equal(uint64(0b10000110)))
	})

	It("should not force bit 7 for other messages", func() {
		c.MessageType = insts.MessageLoad
		next1.Dependencies = 0b1

		h := pack.BuildHeader(c, pack.NoStaging, next1, nil)
		Expect(h.DependencyWait).To(Equal(uint8(0b1)))
	})

	It("should end the shader without successors", func() {
		for f := insts.FlowEnd; f <= insts.FlowWE; f++ {
			c.FlowControl = f
			h := pack.BuildHeader(c, pack.NoStaging, nil, nil)
			Expect(h.FlowControl).To(Equal(insts.FlowEnd))

			bits := pack.PackHeader(c, pack.NoStaging, nil, nil)
			Expect((bits >> 11) & 0x7).To(BeZero())
		}
	})

	It("should keep the flow control with a successor", func() {
		c.FlowControl = insts.FlowNBTBPC
		h := pack.BuildHeader(c, pack.NoStaging, nil, next2)
		Expect(h.FlowControl).To(Equal(insts.FlowNBTBPC))
		Expect(h.NextClausePrefetch).To(BeFalse())
	})

	It("should gather staging barriers from the successors", func() {
		next2.StagingBarrier = true
		Expect(pack.BuildHeader(c, pack.NoStaging, next1, next2).StagingBarrier).To(BeTrue())
		Expect(pack.BuildHeader(c, pack.NoStaging, next1, nil).StagingBarrier).To(BeFalse())
	})

	It("should copy the clause fields", func() {
		c.MessageType = insts.MessageTex
		c.ScoreboardID = 3
		c.FlushToZero = insts.FTZAlways
		c.TerminateDiscarded = true
		next1.MessageType = insts.MessageBlend

		bits := pack.PackHeader(c, 12, next1, nil)
		h, err := format.UnpackHeader(bits)
		Expect(err).NotTo(HaveOccurred())

		Expect(h).To(Equal(format.Header{
			FlushToZero:        insts.FTZAlways,
			FlowControl:        insts.FlowNBTB,
			TerminateDiscarded: true,
			NextClausePrefetch: true,
			StagingRegister:    12,
			DependencySlot:     3,
			MessageType:        insts.MessageTex,
			NextMessageType:    insts.MessageBlend,
		}))
	})

	It("should leave the reserved bits clear", func() {
		c.MessageType = insts.Message64Bit
		c.ScoreboardID = 7
		c.FlushToZero = insts.FTZAbrupt
		c.FloatExceptions = insts.ExceptionsPreciseSqrt
		c.SuppressInf = true
		c.SuppressNaN = true
		next1.Dependencies = 0xFF
		next1.MessageType = insts.Message64Bit

		bits := pack.PackHeader(c, 63, next1, nil)
		Expect(bits & 0x1F).To(BeZero())
		Expect(bits & (1 << 14)).To(BeZero())
		Expect(bits >> format.HeaderBits).To(BeZero())
	})

	It("should reject fields that do not fit", func() {
		c.ScoreboardID = 8
		Expect(func() { pack.PackHeader(c, pack.NoStaging, next1, nil) }).To(panicInvariant())
	})

	It("should reject staging registers out of range", func() {
		Expect(func() { pack.BuildHeader(c, 64, next1, nil) }).To(panicInvariant())
	})
})
