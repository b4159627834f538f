package insts

// Unit is the execution unit of a tuple half.
type Unit uint8

// Execution units.
const (
	UnitFMA Unit = iota
	UnitADD
)

func (u Unit) String() string {
	if u == UnitADD {
		return "ADD"
	}
	return "FMA"
}

// Word widths of the two units.
const (
	FMABits = 23
	ADDBits = 20
)

// Op represents a Bifrost opcode. FMA and ADD variants of the same mnemonic
// are distinct ops since their encodings differ.
type Op uint16

// Supported opcodes.
const (
	OpUnknown Op = iota

	// FMA unit
	OpFmaFMA
	OpFmaV2FMA
	OpFmaMux
	OpFmaLShiftOr
	OpFmaFAdd
	OpFmaIMul
	OpFmaFMax
	OpFmaFMin
	OpFmaMov
	OpFmaClz
	OpFmaNop

	// ADD unit
	OpAddFAdd
	OpAddIAdd
	OpAddBranchZ
	OpAddStore
	OpAddLoad
	OpAddBlend
	OpAddATest
	OpAddClper
	OpAddClperOld
	OpAddZSEmit
	OpAddTexs2D
	OpAddMov
	OpAddJump
	OpAddLdVarImm
	OpAddNop
	OpAddBarrier

	numOps
)

// OpProps describes how an opcode is encoded and how it interacts with the
// clause: staging registers, branches and messages.
type OpProps struct {
	Name string
	Unit Unit

	// Pattern is the fixed part of the word, Mask selects its bits.
	Pattern uint32
	Mask    uint32

	// EncSrcs is the number of 3-bit source fields, packed from bit 0.
	EncSrcs int

	// ImmShift and ImmBits locate an immediate field, if any.
	ImmShift uint
	ImmBits  uint

	// SRRead and SRWrite mark staging register reads (source 0) and writes
	// (the destination).
	SRRead  bool
	SRWrite bool

	// HasDest is set when the destination is written back through the
	// register ports or the staging register.
	HasDest bool

	Branch  bool
	Message MessageType
}

// opTable is a representative subset of the Bifrost ISA.
var opTable = [numOps]OpProps{
	OpUnknown: {Name: "???"},

	OpFmaFMA:      {Name: "FMA.f32", Unit: UnitFMA, Pattern: 0x200, Mask: 0x7FFE00, EncSrcs: 3, HasDest: true},
	OpFmaV2FMA:    {Name: "FMA.v2f16", Unit: UnitFMA, Pattern: 0x400, Mask: 0x7FFE00, EncSrcs: 3, HasDest: true},
	OpFmaMux:      {Name: "MUX.i32", Unit: UnitFMA, Pattern: 0x600, Mask: 0x7FFE00, EncSrcs: 3, HasDest: true},
	OpFmaLShiftOr: {Name: "LSHIFT_OR.i32", Unit: UnitFMA, Pattern: 0x800, Mask: 0x7FFE00, EncSrcs: 3, HasDest: true},
	OpFmaFAdd:     {Name: "FADD.f32", Unit: UnitFMA, Pattern: 0x400040, Mask: 0x7FFFC0, EncSrcs: 2, HasDest: true},
	OpFmaIMul:     {Name: "IMUL.i32", Unit: UnitFMA, Pattern: 0x400080, Mask: 0x7FFFC0, EncSrcs: 2, HasDest: true},
	OpFmaFMax:     {Name: "FMAX.f32", Unit: UnitFMA, Pattern: 0x4000C0, Mask: 0x7FFFC0, EncSrcs: 2, HasDest: true},
	OpFmaFMin:     {Name: "FMIN.f32", Unit: UnitFMA, Pattern: 0x400100, Mask: 0x7FFFC0, EncSrcs: 2, HasDest: true},
	OpFmaMov:      {Name: "MOV.i32", Unit: UnitFMA, Pattern: 0x600008, Mask: 0x7FFFF8, EncSrcs: 1, HasDest: true},
	OpFmaClz:      {Name: "CLZ.u32", Unit: UnitFMA, Pattern: 0x600010, Mask: 0x7FFFF8, EncSrcs: 1, HasDest: true},
	OpFmaNop:      {Name: "NOP.i32", Unit: UnitFMA, Pattern: 0x701960, Mask: 0x7FFFFF},

	OpAddFAdd:     {Name: "FADD.f32", Unit: UnitADD, Pattern: 0x40, Mask: 0xFFFC0, EncSrcs: 2, HasDest: true},
	OpAddIAdd:     {Name: "IADD.s32", Unit: UnitADD, Pattern: 0x80, Mask: 0xFFFC0, EncSrcs: 2, HasDest: true},
	OpAddBranchZ:  {Name: "BRANCHZ.i32", Unit: UnitADD, Pattern: 0xC0, Mask: 0xFFFC0, EncSrcs: 2, Branch: true},
	OpAddStore:    {Name: "STORE.i32", Unit: UnitADD, Pattern: 0x100, Mask: 0xFFFC0, EncSrcs: 2, SRRead: true, Message: MessageStore},
	OpAddLoad:     {Name: "LOAD.i32", Unit: UnitADD, Pattern: 0x140, Mask: 0xFFFC0, EncSrcs: 2, SRWrite: true, HasDest: true, Message: MessageLoad},
	OpAddBlend:    {Name: "BLEND", Unit: UnitADD, Pattern: 0x180, Mask: 0xFFFC0, EncSrcs: 2, SRRead: true, Message: MessageBlend},
	OpAddATest:    {Name: "ATEST", Unit: UnitADD, Pattern: 0x1C0, Mask: 0xFFFC0, EncSrcs: 2, SRWrite: true, HasDest: true, Message: MessageATest},
	OpAddClper:    {Name: "CLPER.i32", Unit: UnitADD, Pattern: 0x200, Mask: 0xFFFC0, EncSrcs: 2, HasDest: true},
	OpAddClperOld: {Name: "CLPER_OLD.i32", Unit: UnitADD, Pattern: 0x240, Mask: 0xFFFC0, EncSrcs: 2, HasDest: true},
	OpAddZSEmit:   {Name: "ZS_EMIT", Unit: UnitADD, Pattern: 0x280, Mask: 0xFFFC0, EncSrcs: 2, SRRead: true, Message: MessageZStencil},
	OpAddTexs2D:   {Name: "TEXS_2D.f32", Unit: UnitADD, Pattern: 0x2000, Mask: 0xFE000, EncSrcs: 2, ImmShift: 6, ImmBits: 7, SRWrite: true, HasDest: true, Message: MessageTex},
	OpAddMov:      {Name: "MOV.i32", Unit: UnitADD, Pattern: 0x80008, Mask: 0xFFFF8, EncSrcs: 1, HasDest: true},
	OpAddJump:     {Name: "JUMP", Unit: UnitADD, Pattern: 0x80010, Mask: 0xFFFF8, EncSrcs: 1, Branch: true},
	OpAddLdVarImm: {Name: "LD_VAR_IMM.f32", Unit: UnitADD, Pattern: 0x80100, Mask: 0xFFF00, EncSrcs: 1, ImmShift: 3, ImmBits: 5, SRWrite: true, HasDest: true, Message: MessageVary},
	OpAddNop:      {Name: "NOP.i32", Unit: UnitADD, Pattern: 0xC3D96, Mask: 0xFFFFF},
	OpAddBarrier:  {Name: "BARRIER", Unit: UnitADD, Pattern: 0xC3B00, Mask: 0xFFFFF, Message: MessageBarrier},
}

// BlendReturnSrc is the source of BLEND holding the blend shader return
// address. It is resolved by the driver and never occupies a register port.
const BlendReturnSrc = 4

// Props returns the properties of an opcode.
func (op Op) Props() OpProps {
	if op >= numOps {
		return opTable[OpUnknown]
	}
	return opTable[op]
}

func (op Op) String() string {
	return op.Props().Name
}

// Unit returns the execution unit the opcode runs on.
func (op Op) Unit() Unit {
	return op.Props().Unit
}

// IsNop reports whether op is the NOP of its unit.
func (op Op) IsNop() bool {
	return op == OpFmaNop || op == OpAddNop
}

// Ops returns every known opcode of a unit in table order.
func Ops(unit Unit) []Op {
	var ops []Op
	for op := OpUnknown + 1; op < numOps; op++ {
		if opTable[op].Unit == unit {
			ops = append(ops, op)
		}
	}
	return ops
}
