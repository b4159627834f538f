package insts

import "fmt"

// Instruction represents one decoded FMA or ADD word.
type Instruction struct {
	Op   Op
	Unit Unit
	Word uint32

	// Srcs holds the packed source selectors in encoding order.
	Srcs []PackedSrc

	// Imm is the immediate field, zero for ops without one.
	Imm uint32
}

// Decoder decodes FMA and ADD instruction words.
type Decoder struct{}

// NewDecoder creates a new decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeFMA decodes a 23-bit FMA word.
func (d *Decoder) DecodeFMA(word uint32) *Instruction {
	return d.decode(UnitFMA, word&(1<<FMABits-1))
}

// DecodeADD decodes a 20-bit ADD word.
func (d *Decoder) DecodeADD(word uint32) *Instruction {
	return d.decode(UnitADD, word&(1<<ADDBits-1))
}

func (d *Decoder) decode(unit Unit, word uint32) *Instruction {
	inst := &Instruction{
		Op:   OpUnknown,
		Unit: unit,
		Word: word,
	}

	for op := OpUnknown + 1; op < numOps; op++ {
		p := &opTable[op]
		if p.Unit != unit || word&p.Mask != p.Pattern {
			continue
		}

		inst.Op = op
		inst.Srcs = make([]PackedSrc, p.EncSrcs)
		for i := range inst.Srcs {
			inst.Srcs[i] = PackedSrc((word >> (3 * i)) & 0x7)
		}
		if p.ImmBits > 0 {
			inst.Imm = (word >> p.ImmShift) & (1<<p.ImmBits - 1)
		}
		break
	}

	return inst
}

// EncodeFMA builds an FMA word from an opcode, its packed sources and its
// immediate.
func EncodeFMA(op Op, srcs []PackedSrc, imm uint32) (uint32, error) {
	return encode(UnitFMA, op, srcs, imm)
}

// EncodeADD builds an ADD word from an opcode, its packed sources and its
// immediate.
func EncodeADD(op Op, srcs []PackedSrc, imm uint32) (uint32, error) {
	return encode(UnitADD, op, srcs, imm)
}

func encode(unit Unit, op Op, srcs []PackedSrc, imm uint32) (uint32, error) {
	if op == OpUnknown || op >= numOps {
		return 0, fmt.Errorf("cannot encode unknown opcode %d", op)
	}

	p := &opTable[op]
	if p.Unit != unit {
		return 0, fmt.Errorf("%s is not an %s instruction", p.Name, unit)
	}

	if len(srcs) != p.EncSrcs {
		return 0, fmt.Errorf("%s takes %d sources, got %d", p.Name, p.EncSrcs, len(srcs))
	}

	word := p.Pattern
	for i, s := range srcs {
		if s > SrcPassADD {
			return 0, fmt.Errorf("%s: source %d selector %d out of range", p.Name, i, s)
		}
		word |= uint32(s) << (3 * i)
	}

	if p.ImmBits > 0 {
		if imm >= 1<<p.ImmBits {
			return 0, fmt.Errorf("%s: immediate %d does not fit in %d bits", p.Name, imm, p.ImmBits)
		}
		word |= imm << p.ImmShift
	} else if imm != 0 {
		return 0, fmt.Errorf("%s takes no immediate", p.Name)
	}

	return word, nil
}
