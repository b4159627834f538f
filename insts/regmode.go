package insts

// RegOp is the operation performed through register port 2 or 3.
type RegOp uint8

// Register port operations.
const (
	RegOpIdle    RegOp = 0
	RegOpRead    RegOp = 1
	RegOpWrite   RegOp = 2
	RegOpWriteLo RegOp = 3
	RegOpWriteHi RegOp = 4
)

// IsWrite reports whether the operation writes a register.
func (o RegOp) IsWrite() bool {
	return o >= RegOpWrite
}

// Slot23 is the combined state of ports 2 and 3 of a tuple.
type Slot23 struct {
	Slot2    RegOp
	Slot3    RegOp
	Slot3FMA bool // slot 3 writes the FMA result rather than the ADD result
}

// RegMode is the 5-bit register control mode of a tuple.
type RegMode uint8

// Register modes. Values 0 and 25 are reserved.
const (
	RegModeRWLFMA  RegMode = 1
	RegModeRWHFMA  RegMode = 2
	RegModeRWFMA   RegMode = 3
	RegModeRWLADD  RegMode = 4
	RegModeRWHADD  RegMode = 5
	RegModeRWADD   RegMode = 6
	RegModeWLWLADD RegMode = 7
	RegModeWLWHADD RegMode = 8
	RegModeWLWADD  RegMode = 9
	RegModeWHWLADD RegMode = 10
	RegModeWHWHADD RegMode = 11
	RegModeWHWADD  RegMode = 12
	RegModeWWLADD  RegMode = 13
	RegModeWWHADD  RegMode = 14
	RegModeWWADD   RegMode = 15
	RegModeIdle1   RegMode = 16
	RegModeIWFMA   RegMode = 17
	RegModeIWLFMA  RegMode = 18
	RegModeIWHFMA  RegMode = 19
	RegModeRI      RegMode = 20
	RegModeIWADD   RegMode = 21
	RegModeIWLADD  RegMode = 22
	RegModeIWHADD  RegMode = 23
	RegModeWLWHMix RegMode = 24
	RegModeWHWLMix RegMode = 26
	RegModeIdle    RegMode = 27
)

// RegModeTable maps each register mode to its port 2/3 state. Reserved
// entries are left zero; use RegMode.Slots to tell them apart.
var RegModeTable = [32]Slot23{
	RegModeRWLFMA:  {RegOpRead, RegOpWriteLo, true},
	RegModeRWHFMA:  {RegOpRead, RegOpWriteHi, true},
	RegModeRWFMA:   {RegOpRead, RegOpWrite, true},
	RegModeRWLADD:  {RegOpRead, RegOpWriteLo, false},
	RegModeRWHADD:  {RegOpRead, RegOpWriteHi, false},
	RegModeRWADD:   {RegOpRead, RegOpWrite, false},
	RegModeWLWLADD: {RegOpWriteLo, RegOpWriteLo, false},
	RegModeWLWHADD: {RegOpWriteLo, RegOpWriteHi, false},
	RegModeWLWADD:  {RegOpWriteLo, RegOpWrite, false},
	RegModeWHWLADD: {RegOpWriteHi, RegOpWriteLo, false},
	RegModeWHWHADD: {RegOpWriteHi, RegOpWriteHi, false},
	RegModeWHWADD:  {RegOpWriteHi, RegOpWrite, false},
	RegModeWWLADD:  {RegOpWrite, RegOpWriteLo, false},
	RegModeWWHADD:  {RegOpWrite, RegOpWriteHi, false},
	RegModeWWADD:   {RegOpWrite, RegOpWrite, false},
	RegModeIdle1:   {RegOpIdle, RegOpIdle, true},
	RegModeIWFMA:   {RegOpIdle, RegOpWrite, true},
	RegModeIWLFMA:  {RegOpIdle, RegOpWriteLo, true},
	RegModeIWHFMA:  {RegOpIdle, RegOpWriteHi, true},
	RegModeRI:      {RegOpRead, RegOpIdle, false},
	RegModeIWADD:   {RegOpIdle, RegOpWrite, false},
	RegModeIWLADD:  {RegOpIdle, RegOpWriteLo, false},
	RegModeIWHADD:  {RegOpIdle, RegOpWriteHi, false},
	RegModeWLWHMix: {RegOpWriteLo, RegOpWriteHi, false},
	RegModeWHWLMix: {RegOpWriteHi, RegOpWriteLo, false},
	RegModeIdle:    {RegOpIdle, RegOpIdle, true},
}

var regModeNames = [32]string{
	RegModeRWLFMA:  "R_WL_FMA",
	RegModeRWHFMA:  "R_WH_FMA",
	RegModeRWFMA:   "R_W_FMA",
	RegModeRWLADD:  "R_WL_ADD",
	RegModeRWHADD:  "R_WH_ADD",
	RegModeRWADD:   "R_W_ADD",
	RegModeWLWLADD: "WL_WL_ADD",
	RegModeWLWHADD: "WL_WH_ADD",
	RegModeWLWADD:  "WL_W_ADD",
	RegModeWHWLADD: "WH_WL_ADD",
	RegModeWHWHADD: "WH_WH_ADD",
	RegModeWHWADD:  "WH_W_ADD",
	RegModeWWLADD:  "W_WL_ADD",
	RegModeWWHADD:  "W_WH_ADD",
	RegModeWWADD:   "W_W_ADD",
	RegModeIdle1:   "IDLE_1",
	RegModeIWFMA:   "I_W_FMA",
	RegModeIWLFMA:  "I_WL_FMA",
	RegModeIWHFMA:  "I_WH_FMA",
	RegModeRI:      "R_I",
	RegModeIWADD:   "I_W_ADD",
	RegModeIWLADD:  "I_WL_ADD",
	RegModeIWHADD:  "I_WH_ADD",
	RegModeWLWHMix: "WL_WH_MIX",
	RegModeWHWLMix: "WH_WL_MIX",
	RegModeIdle:    "IDLE",
}

func (m RegMode) String() string {
	if !m.Valid() {
		return "RESERVED"
	}
	return regModeNames[m]
}

// Valid reports whether m names one of the tabulated register modes.
func (m RegMode) Valid() bool {
	return int(m) < len(regModeNames) && regModeNames[m] != ""
}

// Slots returns the port 2/3 state of a register mode.
func (m RegMode) Slots() (Slot23, bool) {
	if !m.Valid() {
		return Slot23{}, false
	}
	return RegModeTable[m], true
}

// LookupRegMode finds the register mode encoding a port 2/3 state. The
// all-idle state is special cased since it has a distinct encoding for the
// first tuple of a clause. Otherwise the first matching entry wins, so the
// MIX aliases are only reached through decoding.
func LookupRegMode(s Slot23, first bool) (RegMode, bool) {
	if s.Slot2 == RegOpIdle && s.Slot3 == RegOpIdle {
		if first {
			return RegModeIdle1, true
		}
		return RegModeIdle, true
	}

	for i := range RegModeTable {
		m := RegMode(i)
		if m.Valid() && RegModeTable[i] == s {
			return m, true
		}
	}

	return 0, false
}
