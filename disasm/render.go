package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
)

// Printer renders decoded clauses as text.
type Printer struct {
	w       io.Writer
	verbose bool
	dec     *insts.Decoder
}

// NewPrinter creates a printer writing to w. Verbose output adds raw quad,
// register word and constant dumps.
func NewPrinter(w io.Writer, verbose bool) *Printer {
	return &Printer{w: w, verbose: verbose, dec: insts.NewDecoder()}
}

// HeaderString renders the clause header tokens.
func HeaderString(h format.Header) string {
	var tok []string

	if h.DependencySlot != 0 {
		tok = append(tok, fmt.Sprintf("ds(%d)", h.DependencySlot))
	}
	if h.StagingBarrier {
		tok = append(tok, "osrb")
	}

	tok = append(tok, h.FlowControl.String())

	if s := h.FlushToZero.String(); s != "" {
		tok = append(tok, s)
	}
	if s := h.FloatExceptions.String(); s != "" {
		tok = append(tok, s)
	}
	if h.SuppressInf {
		tok = append(tok, "inf_suppress")
	}
	if h.SuppressNaN {
		tok = append(tok, "nan_suppress")
	}
	if h.MessageType != insts.MessageNone {
		tok = append(tok, h.MessageType.String())
	}
	if h.NextMessageType != insts.MessageNone {
		tok = append(tok, "next_"+h.NextMessageType.String())
	}
	if h.TerminateDiscarded {
		tok = append(tok, "td")
	}
	if h.NextClausePrefetch {
		tok = append(tok, "ncph")
	}

	if h.DependencyWait != 0 {
		var slots []string
		for i := 0; i < 8; i++ {
			if h.DependencyWait&(1<<i) != 0 {
				slots = append(slots, fmt.Sprint(i))
			}
		}
		tok = append(tok, "dwb("+strings.Join(slots, ",")+")")
	}

	return strings.Join(tok, " ")
}

// Label returns the label of the clause at a quadword offset.
func Label(offsetQW int) string {
	return fmt.Sprintf("clause_%d", offsetQW)
}

// PrintClause renders one clause.
func (p *Printer) PrintClause(c *Clause) {
	fmt.Fprintf(p.w, "%s:\n", Label(c.Offset))

	if p.verbose {
		p.dump(c)
	}

	fmt.Fprintf(p.w, "%s\n{\n", HeaderString(c.Header))

	for i, t := range c.Tuples {
		regs := c.Regs[i]
		next := c.Regs[(i+1)%len(c.Regs)]

		if p.verbose {
			fmt.Fprintf(p.w, "    # regs: %s\n", regs.String())
		}

		fma := p.dec.DecodeFMA(t.FMA())
		add := p.dec.DecodeADD(t.ADD())

		fmt.Fprintf(p.w, "    *%s\n", p.instr(c, fma, regs, fmaDest(next)))
		fmt.Fprintf(p.w, "    +%s\n", p.instr(c, add, regs, p.addDest(c, add, next)))
	}

	fmt.Fprintf(p.w, "}\n")

	if p.verbose {
		for k, v := range c.Constants {
			fmt.Fprintf(p.w, "# const%d: %#016x %s\n", k, v, c.Mods[k])
		}
	}
}

func (p *Printer) dump(c *Clause) {
	for i, q := range c.Quads {
		fmt.Fprintf(p.w, "# quad %d: %016x %016x", i, q.Hi, q.Lo)
		if i < len(c.Formats) {
			fmt.Fprintf(p.w, " format %d", c.Formats[i])
		}
		fmt.Fprintln(p.w)
	}
	fmt.Fprintf(p.w, "# header: %#012x\n", c.HeaderBits)
}

func halfSuffix(op insts.RegOp) string {
	switch op {
	case insts.RegOpWriteLo:
		return ".l"
	case insts.RegOpWriteHi:
		return ".h"
	}
	return ""
}

// fmaDest returns the register written by the FMA result, as seen from the
// ports of the following tuple.
func fmaDest(next Regs) string {
	s := next.Slot23
	switch {
	case s.Slot3FMA && s.Slot3.IsWrite():
		return fmt.Sprintf("r%d%s", next.Port[3], halfSuffix(s.Slot3))
	case !s.Slot3FMA && s.Slot2.IsWrite():
		return fmt.Sprintf("r%d%s", next.Port[2], halfSuffix(s.Slot2))
	}
	return "t0"
}

func (p *Printer) addDest(c *Clause, add *insts.Instruction, next Regs) string {
	if add.Op.Props().SRWrite && add.Op != insts.OpAddATest {
		return fmt.Sprintf("r%d", c.Header.StagingRegister)
	}

	s := next.Slot23
	if !s.Slot3FMA && s.Slot3.IsWrite() {
		return fmt.Sprintf("r%d%s", next.Port[3], halfSuffix(s.Slot3))
	}
	return "t1"
}

func (p *Printer) instr(c *Clause, ins *insts.Instruction, regs Regs, dest string) string {
	props := ins.Op.Props()
	if ins.Op == insts.OpUnknown {
		return fmt.Sprintf("%s %#x", props.Name, ins.Word)
	}

	var ops []string
	if props.HasDest {
		ops = append(ops, dest)
	}
	if props.SRRead {
		ops = append(ops, fmt.Sprintf("r%d", c.Header.StagingRegister))
	}
	for _, s := range ins.Srcs {
		ops = append(ops, p.src(c, s, regs, ins.Unit))
	}
	if props.ImmBits > 0 {
		ops = append(ops, fmt.Sprintf("#%d", ins.Imm))
	}

	if len(ops) == 0 {
		return props.Name
	}
	return props.Name + " " + strings.Join(ops, ", ")
}

func (p *Printer) src(c *Clause, s insts.PackedSrc, regs Regs, unit insts.Unit) string {
	switch s {
	case insts.SrcPort0:
		return fmt.Sprintf("r%d", regs.Port[0])
	case insts.SrcPort1:
		return fmt.Sprintf("r%d", regs.Port[1])
	case insts.SrcPort2:
		return fmt.Sprintf("r%d", regs.Port[2])
	case insts.SrcStage:
		if unit == insts.UnitFMA {
			return "#0"
		}
		return "t"
	case insts.SrcFAULo:
		return FAUString(c, regs.FAUIdx, false)
	case insts.SrcFAUHi:
		return FAUString(c, regs.FAUIdx, true)
	case insts.SrcPassFMA:
		return "t0"
	default:
		return "t1"
	}
}

func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

func pcLabel(c *Clause, offset int64) string {
	return Label(c.Offset + int(offset/format.QuadBytes))
}

// FAUString renders the FAU read of index idx, resolving embedded
// constants against the clause.
func FAUString(c *Clause, idx uint8, hi bool) string {
	half := 0
	if hi {
		half = 1
	}

	if insts.IsFAUUniform(idx) {
		return fmt.Sprintf("u%d.w%d", idx&0x7F, half)
	}

	k, nibble, ok := insts.ConstantFAUIndex(idx)
	if !ok {
		name := insts.FAUSpecialName(idx)
		if idx == insts.FAUZero {
			return name
		}
		return name + [2]string{".x", ".y"}[half]
	}

	if k >= len(c.Constants) {
		return fmt.Sprintf("const%d.w%d", k, half)
	}

	v := c.Constants[k] | uint64(nibble)
	word := uint64(uint32(v))
	if hi {
		word = v >> 32
	}

	// PC_LO is one 60-bit offset; PC_HI and PC_LO_HI hold 28-bit offsets
	// per 32-bit word.
	switch c.Mods[k] {
	case insts.ConstModPCHi:
		if hi {
			return pcLabel(c, signExtend(word, 28))
		}
	case insts.ConstModPCLoHi:
		return pcLabel(c, signExtend(word, 28))
	case insts.ConstModPCLo:
		label := pcLabel(c, signExtend(v, 60))
		if hi {
			label += " >> 32"
		}
		return label
	}

	if hi {
		return fmt.Sprintf("%#x", uint32(v>>32))
	}
	return fmt.Sprintf("%#x", uint32(v))
}
