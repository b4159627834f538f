package pack_test

import (
	"bytes"
	"io"

	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bipack/config"
	"github.com/sarchlab/bipack/disasm"
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
	"github.com/sarchlab/bipack/pack"
)

// branchProgram lays out a branch clause at quadword 0, two 7 quadword
// clauses, and the branch target at quadword 16.
func branchProgram() (*ir.Program, *ir.Instr) {
	branch := ir.NewInstr(insts.OpAddBranchZ, ir.Null(), ir.Reg(0), ir.FAU(true))

	b := ir.NewBuilder("branchy").Stage("fragment").
		Block().Clause().Flow(insts.FlowNBTBPC).
		TupleFAU(nil, branch, insts.FAUConstant(0, 0)).BranchConstant().
		Block()
	for i := 0; i < 2; i++ {
		b.Clause()
		for t := 0; t < 8; t++ {
			b.Tuple(nil, nil)
		}
		b.Constant(0x100).Constant(0x200).Constant(0x300)
	}
	b.Block().Clause().Tuple(nil, nil).
		Link(0, 1, 2).
		Link(1, 2)

	branch.Target = b.BlockAt(2)
	return b.Program(), branch
}

var _ = Describe("Packer", func() {
	var prog *ir.Program

	BeforeEach(func() {
		prog, _ = branchProgram()
	})

	Describe("Layout", func() {
		It("should place every clause", func() {
			plan := pack.Layout(prog)

			Expect(plan.Size).To(Equal(17))
			Expect(plan.Offsets[prog.Blocks[1].Clauses[1]]).To(Equal(9))
			Expect(plan.Offsets[prog.Blocks[2].Clauses[0]]).To(Equal(16))
			Expect(plan.Sizes[prog.Blocks[0].Clauses[0]]).To(Equal(2))
		})

		It("should patch the branch constant with the target offset", func() {
			plan := pack.Layout(prog)
			c := prog.Blocks[0].Clauses[0]

			Expect(plan.Patches).To(HaveLen(1))
			Expect(plan.Patches[0].Clause).To(BeIdenticalTo(c))
			Expect(plan.Patches[0].Value).To(Equal(uint64(256) << 32))

			consts := plan.Constants(c)
			Expect(consts[0].Value).To(Equal(uint64(256) << 32))
			Expect(c.Constants[0].Value).To(BeZero())
		})

		It("should reject a branch without a PC-relative constant", func() {
			prog.Blocks[0].Clauses[0].PCRel = ir.NoPCRel
			Expect(func() { pack.Layout(prog) }).To(panicInvariant())
		})
	})

	Describe("Pack", func() {
		It("should render the branch target as a clause label", func() {
			res := pack.Pack(prog, pack.WithOutput(io.Discard))

			d, err := disasm.DecodeClause(res.Code, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Mods[0]).To(Equal(insts.ConstModPCHi))
			Expect(d.Constants[0] >> 32).To(Equal(uint64(256)))
			Expect(disasm.FAUString(d, insts.FAUConstant(0, 0), true)).To(Equal("clause_16"))

			var out bytes.Buffer
			Expect(disasm.Disassemble(&out, res.Code, false)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("+BRANCHZ.i32 r0, clause_16\n"))
			Expect(out.String()).To(ContainSubstring("clause_16:\n"))
		})

		It("should resolve backward branches", func() {
			jump := ir.NewInstr(insts.OpAddJump, ir.Null(), ir.FAU(true))
			b := ir.NewBuilder("loop").
				Block().Clause().Tuple(nil, nil).
				Block().Clause().TupleFAU(nil, jump, insts.FAUConstant(0, 0)).BranchConstant().
				Link(0, 1).
				Link(1, 0)
			jump.Target = b.BlockAt(0)

			res := pack.Pack(b.Program(), pack.WithOutput(io.Discard))

			var out bytes.Buffer
			Expect(disasm.Disassemble(&out, res.Code, false)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("+JUMP clause_0\n"))
		})

		It("should take the header of a back edge from the loop head", func() {
			jump := ir.NewInstr(insts.OpAddJump, ir.Null(), ir.FAU(true))
			b := ir.NewBuilder("loop").
				Block().Clause().Deps(0b100).Tuple(nil, nil).
				Block().Clause().TupleFAU(nil, jump, insts.FAUConstant(0, 0)).BranchConstant().
				Link(0, 1).
				Link(1, 0)
			jump.Target = b.BlockAt(0)

			res := pack.Pack(b.Program(), pack.WithOutput(io.Discard))

			d, err := disasm.DecodeClause(res.Code, res.Clauses[1].Offset)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Header.FlowControl).NotTo(Equal(insts.FlowEnd))
			Expect(d.Header.DependencyWait).To(Equal(uint8(0b100)))
		})

		It("should pad the binary for prefetch", func() {
			res := pack.Pack(prog, pack.WithOutput(io.Discard))

			Expect(res.Size).To(Equal(17 * 16))
			Expect(res.Code).To(HaveLen(17*16 + pack.PrefetchSize - 16))
			Expect(res.Code[res.Size:]).To(Equal(make([]byte, len(res.Code)-res.Size)))
		})

		It("should describe the emitted clauses", func() {
			res := pack.Pack(prog, pack.WithOutput(io.Discard))

			Expect(res.Clauses).To(HaveLen(4))
			Expect(res.Clauses[0].Formats).To(Equal([]int{1}))
			Expect(res.Clauses[1].Quadwords).To(Equal(7))
			Expect(res.Clauses[3].Offset).To(Equal(16))
		})

		It("should end the shader at the last clause", func() {
			res := pack.Pack(prog, pack.WithOutput(io.Discard))

			clauses, err := disasm.Clauses(res.Code)
			Expect(err).NotTo(HaveOccurred())
			Expect(clauses).To(HaveLen(4))
			Expect(clauses[3].Header.FlowControl).To(Equal(insts.FlowEnd))
			Expect(clauses[0].Header.FlowControl).To(Equal(insts.FlowNBTBPC))
		})

		It("should be deterministic", func() {
			a := pack.Pack(prog, pack.WithOutput(io.Discard))
			other, _ := branchProgram()
			b := pack.Pack(other, pack.WithOutput(io.Discard))
			Expect(a.Code).To(Equal(b.Code))
		})

		It("should pack an empty program to nothing", func() {
			res := pack.Pack(&ir.Program{}, pack.WithOutput(io.Discard))
			Expect(res.Code).To(BeEmpty())
		})
	})

	Describe("Debug options", func() {
		var out bytes.Buffer

		BeforeEach(func() {
			out.Reset()
		})

		It("should log packed clauses through the given logger", func() {
			log := funcr.New(func(_, args string) {
				out.WriteString(args + "\n")
			}, funcr.Options{Verbosity: 1})

			pack.Pack(prog, pack.WithLogger(log))
			Expect(out.String()).To(ContainSubstring("packed clause"))
		})

		It("should log packed clauses with msgs", func() {
			pack.Pack(prog, pack.WithOptions(&config.Options{Messages: true}), pack.WithOutput(&out))
			Expect(out.String()).To(ContainSubstring("packed clause"))
		})

		It("should stay quiet by default", func() {
			pack.Pack(prog, pack.WithOutput(&out))
			Expect(out.String()).To(BeEmpty())
		})

		It("should print shader-db statistics", func() {
			pack.Pack(prog, pack.WithOptions(&config.Options{ShaderDB: true}), pack.WithOutput(&out))
			Expect(out.String()).To(ContainSubstring("branchy - fragment shader: 1 inst, 35 nops, 4 clauses, 17 quadwords"))
		})

		It("should dump shaders", func() {
			pack.Pack(prog, pack.WithOptions(&config.Options{Shaders: true}), pack.WithOutput(&out))
			Expect(out.String()).To(ContainSubstring(`fragment shader "branchy":`))
		})

		It("should only dump internal shaders when asked", func() {
			prog.Internal = true
			pack.Pack(prog, pack.WithOptions(&config.Options{Shaders: true}), pack.WithOutput(&out))
			Expect(out.String()).To(BeEmpty())

			pack.Pack(prog, pack.WithOptions(&config.Options{Shaders: true, Internal: true}), pack.WithOutput(&out))
			Expect(out.String()).NotTo(BeEmpty())
		})
	})

	Describe("Validate", func() {
		It("should catch a clause that decodes differently", func() {
			res := pack.Pack(prog, pack.WithOutput(io.Discard))
			res.Clauses[1].Tuples = 7
			Expect(func() { pack.Validate(res) }).To(panicInvariant())
		})
	})
})
