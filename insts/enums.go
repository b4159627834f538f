package insts

import "fmt"

// FlowControl describes how execution continues after a clause.
type FlowControl uint8

// Flow control modes.
const (
	FlowEnd               FlowControl = 0 // End of shader
	FlowNBTBPC            FlowControl = 1 // Not back-to-back, PC-relative branch
	FlowNBTBUnconditional FlowControl = 2 // Not back-to-back, unconditional reconvergence
	FlowNBTB              FlowControl = 3 // Not back-to-back
	FlowBTBUnconditional  FlowControl = 4 // Back-to-back, unconditional reconvergence
	FlowBTBNone           FlowControl = 5 // Back-to-back
	FlowWEUnconditional   FlowControl = 6 // Write elision, unconditional reconvergence
	FlowWE                FlowControl = 7 // Write elision
	flowControlUpperBound FlowControl = 8
)

var flowControlNames = [...]string{
	FlowEnd:               "eos",
	FlowNBTBPC:            "nbb br_pcrel",
	FlowNBTBUnconditional: "nbb r_uncond",
	FlowNBTB:              "nbb",
	FlowBTBUnconditional:  "bb r_uncond",
	FlowBTBNone:           "bb",
	FlowWEUnconditional:   "we r_uncond",
	FlowWE:                "we",
}

func (f FlowControl) String() string {
	if f >= flowControlUpperBound {
		return "XXX"
	}
	return flowControlNames[f]
}

// MessageType identifies the asynchronous message a clause issues.
type MessageType uint8

// Message types.
const (
	MessageNone      MessageType = 0
	MessageVary      MessageType = 1
	MessageAttribute MessageType = 2
	MessageTex       MessageType = 3
	MessageVarTex    MessageType = 4
	MessageLoad      MessageType = 5
	MessageStore     MessageType = 6
	MessageAtomic    MessageType = 7
	MessageBarrier   MessageType = 8
	MessageBlend     MessageType = 9
	MessageTile      MessageType = 10
	// 11 is reserved.
	MessageZStencil MessageType = 12
	MessageATest    MessageType = 13
	MessageJob      MessageType = 14
	Message64Bit    MessageType = 15
)

var messageTypeNames = [...]string{
	MessageNone:      "",
	MessageVary:      "vary",
	MessageAttribute: "attr",
	MessageTex:       "tex",
	MessageVarTex:    "vartex",
	MessageLoad:      "load",
	MessageStore:     "store",
	MessageAtomic:    "atomic",
	MessageBarrier:   "barrier",
	MessageBlend:     "blend",
	MessageTile:      "tile",
	11:               "",
	MessageZStencil:  "z_stencil",
	MessageATest:     "atest",
	MessageJob:       "job",
	Message64Bit:     "64",
}

func (m MessageType) String() string {
	if int(m) >= len(messageTypeNames) || m == 11 {
		return fmt.Sprintf("XXX_%d", m)
	}
	return messageTypeNames[m]
}

// FTZ is the flush-to-zero mode of a clause.
type FTZ uint8

// Flush-to-zero modes.
const (
	FTZDisable FTZ = 0
	FTZDX11    FTZ = 1
	FTZAlways  FTZ = 2
	FTZAbrupt  FTZ = 3
)

// String returns the header mnemonic; disabled flushing prints nothing.
func (f FTZ) String() string {
	switch f & 3 {
	case FTZDX11:
		return "ftz_dx11"
	case FTZAlways:
		return "ftz_hsa"
	case FTZAbrupt:
		return "ftz_au"
	default:
		return ""
	}
}

// Exceptions is the floating-point exception handling mode of a clause.
type Exceptions uint8

// Exception modes.
const (
	ExceptionsEnabled         Exceptions = 0
	ExceptionsDisabled        Exceptions = 1
	ExceptionsPreciseDivision Exceptions = 2
	ExceptionsPreciseSqrt     Exceptions = 3
)

func (e Exceptions) String() string {
	switch e & 3 {
	case ExceptionsDisabled:
		return "fpe_ts"
	case ExceptionsPreciseDivision:
		return "fpe_pd"
	case ExceptionsPreciseSqrt:
		return "fpe_psqr"
	default:
		return ""
	}
}

// PackedSrc is the 3-bit source selector of an FMA or ADD operand.
type PackedSrc uint8

// Packed source selectors.
const (
	SrcPort0   PackedSrc = 0
	SrcPort1   PackedSrc = 1
	SrcPort2   PackedSrc = 2
	SrcStage   PackedSrc = 3 // #0 on FMA, this cycle's FMA result on ADD
	SrcFAULo   PackedSrc = 4
	SrcFAUHi   PackedSrc = 5
	SrcPassFMA PackedSrc = 6 // t0: previous tuple's FMA result
	SrcPassADD PackedSrc = 7 // t1: previous tuple's ADD result
)

// ConstMod is the PC-relative modifier of an embedded constant.
type ConstMod uint8

// Constant modifiers.
const (
	ConstModNone ConstMod = iota
	ConstModPCLo
	ConstModPCHi
	ConstModPCLoHi
)

func (m ConstMod) String() string {
	switch m {
	case ConstModNone:
		return "none"
	case ConstModPCLo:
		return "pc_lo"
	case ConstModPCHi:
		return "pc_hi"
	case ConstModPCLoHi:
		return "pc_lo_hi"
	default:
		return fmt.Sprintf("constmod(%d)", uint8(m))
	}
}

// The 4-bit M code carried next to embedded constants. For a constant pair
// it is the difference of the top nibbles of the two 64-bit constants
// modulo 16; for the lone constant of formats 3 and 8 it sits in the S4
// subword. Codes 0 and 8-15 mean no modifier.
const (
	MCodeNone         uint8 = 0
	MCodeFirstPCLo    uint8 = 1
	MCodeSecondPCLo   uint8 = 2
	MCodeReserved     uint8 = 3
	MCodeFirstPCHi    uint8 = 4
	MCodeFirstPCLoHi  uint8 = 5
	MCodeSecondPCHi   uint8 = 6
	MCodeSecondPCLoHi uint8 = 7
)

// EncodeMCode returns the M code for a constant pair. ok is false when both
// constants carry a modifier, which no code can express.
func EncodeMCode(first, second ConstMod) (code uint8, ok bool) {
	switch {
	case first == ConstModNone && second == ConstModNone:
		return MCodeNone, true
	case second == ConstModNone:
		switch first {
		case ConstModPCLo:
			return MCodeFirstPCLo, true
		case ConstModPCHi:
			return MCodeFirstPCHi, true
		case ConstModPCLoHi:
			return MCodeFirstPCLoHi, true
		}
	case first == ConstModNone:
		switch second {
		case ConstModPCLo:
			return MCodeSecondPCLo, true
		case ConstModPCHi:
			return MCodeSecondPCHi, true
		case ConstModPCLoHi:
			return MCodeSecondPCLoHi, true
		}
	}
	return 0, false
}

// DecodeMCode maps an M code back to the modifiers of a constant pair.
func DecodeMCode(code uint8) (first, second ConstMod) {
	switch code & 0xF {
	case MCodeFirstPCLo:
		return ConstModPCLo, ConstModNone
	case MCodeSecondPCLo:
		return ConstModNone, ConstModPCLo
	case MCodeFirstPCHi:
		return ConstModPCHi, ConstModNone
	case MCodeFirstPCLoHi:
		return ConstModPCLoHi, ConstModNone
	case MCodeSecondPCHi:
		return ConstModNone, ConstModPCHi
	case MCodeSecondPCLoHi:
		return ConstModNone, ConstModPCLoHi
	default:
		return ConstModNone, ConstModNone
	}
}

// IsPCCode reports whether an M code selects a PC-relative modifier.
func IsPCCode(code uint8) bool {
	code &= 0xF
	return code >= 1 && code <= 7
}
