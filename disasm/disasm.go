// Package disasm decodes packed Bifrost clauses and renders them as text.
//
// Decoding is driven by the tag byte of each quadword and mirrors the
// tables of the format package, so anything the packer emits decodes back
// to the same tuples, header and constants.
//
//	err := disasm.Disassemble(os.Stdout, code, false)
package disasm

import (
	"encoding/binary"
	"io"

	"github.com/sarchlab/bipack/format"
)

// Disassemble renders every clause of code. It stops at a quadword whose
// leading word is zero, at the end of the buffer, or after a clause that
// ends the shader.
func Disassemble(w io.Writer, code []byte, verbose bool) error {
	clauses, err := Clauses(code)

	p := NewPrinter(w, verbose)
	for _, c := range clauses {
		p.PrintClause(c)
	}

	return err
}

// Clauses decodes every clause of code, following the same stopping rules
// as Disassemble.
func Clauses(code []byte) ([]*Clause, error) {
	var out []*Clause

	for offset := 0; (offset+1)*format.QuadBytes <= len(code); {
		if binary.LittleEndian.Uint64(code[offset*format.QuadBytes:]) == 0 {
			break
		}

		c, err := DecodeClause(code, offset)
		if err != nil {
			return out, err
		}

		out = append(out, c)
		if c.End() {
			break
		}

		offset += c.Quadwords
	}

	return out, nil
}
