package insts

import "strings"

// Quirks is a set of per-GPU hardware differences.
type Quirks uint32

// Known quirks.
const (
	// LimitedCLPER: only the old CLPER encoding exists.
	LimitedCLPER Quirks = 1 << iota
	// TerminalBranchNop: branches to the terminal block are kept and the
	// terminal block gets a NOP clause instead of having the target dropped.
	// Only Valhall GPUs have it, which this packer does not target; it is
	// honoured by ir.LowerTerminalBranches for producers that share the IR.
	TerminalBranchNop
)

// Has reports whether all quirks in q2 are set.
func (q Quirks) Has(q2 Quirks) bool {
	return q&q2 == q2
}

func (q Quirks) String() string {
	var names []string
	if q.Has(LimitedCLPER) {
		names = append(names, "limited_clper")
	}
	if q.Has(TerminalBranchNop) {
		names = append(names, "terminal_branch_nop")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// QuirksForGPU derives the quirks of a GPU from its product ID, as returned
// by the loader GPU table (major<<12 | minor<<8).
func QuirksForGPU(id uint32) Quirks {
	switch {
	case id>>8 == 0x60, id>>8 == 0x62:
		return LimitedCLPER
	case id>>12 >= 9:
		return TerminalBranchNop
	default:
		return 0
	}
}
