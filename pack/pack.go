// Package pack encodes scheduled Bifrost programs into their binary form.
//
// Packing runs in three steps. Layout sizes every clause and computes the
// branch offsets, which are kept as a patch list. Emission then packs each
// clause with its patched constants and pads the binary so instruction
// prefetch past the last clause reads zeros. Finally the binary is decoded
// again and checked against what was packed.
package pack

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr"

	"github.com/sarchlab/bipack/config"
	"github.com/sarchlab/bipack/format"
	"github.com/sarchlab/bipack/insts"
	"github.com/sarchlab/bipack/ir"
	"github.com/sarchlab/bipack/stats"
)

// PrefetchSize is the number of bytes instruction fetch may read from the
// start of the final clause.
const PrefetchSize = 128

// ClauseInfo describes where a clause was emitted.
type ClauseInfo struct {
	Clause    *ir.Clause
	Offset    int // in quadwords
	Quadwords int
	Tuples    int
	Constants int
	Formats   []int
	Header    uint64
}

// Result is a packed program.
type Result struct {
	// Code is the binary, including prefetch padding.
	Code []byte

	// Size is the length of Code without padding.
	Size int

	Clauses []ClauseInfo
}

// Packer packs programs for one GPU.
type Packer struct {
	quirks insts.Quirks
	opts   *config.Options
	log    logr.Logger
	logSet bool
	out    io.Writer
	costs  *stats.Table
}

// Option is a functional option for configuring the Packer.
type Option func(*Packer)

// WithQuirks sets the quirks of the target GPU.
func WithQuirks(q insts.Quirks) Option {
	return func(p *Packer) {
		p.quirks = q
	}
}

// WithOptions sets the debug options.
func WithOptions(opts *config.Options) Option {
	return func(p *Packer) {
		p.opts = opts
	}
}

// WithLogger sets the logger for debug messages. By default one is built
// from the debug options.
func WithLogger(log logr.Logger) Option {
	return func(p *Packer) {
		p.log = log
		p.logSet = true
	}
}

// WithOutput sets where IR dumps and statistics are written.
func WithOutput(w io.Writer) Option {
	return func(p *Packer) {
		p.out = w
	}
}

// WithCostTable sets the cost table used for statistics.
func WithCostTable(t *stats.Table) Option {
	return func(p *Packer) {
		p.costs = t
	}
}

// NewPacker creates a packer.
func NewPacker(opts ...Option) *Packer {
	p := &Packer{
		opts: config.DefaultOptions(),
		out:  os.Stderr,
	}

	for _, opt := range opts {
		opt(p)
	}

	if !p.logSet {
		p.log = p.opts.Logger(p.out)
	}
	if p.costs == nil {
		p.costs = stats.NewTable()
	}

	return p
}

// Pack packs prog with a new Packer.
func Pack(prog *ir.Program, opts ...Option) *Result {
	return NewPacker(opts...).Pack(prog)
}

// Pack packs prog. It panics with an *InvariantError when the program
// cannot be encoded.
func (p *Packer) Pack(prog *ir.Program) *Result {
	if p.opts.Shaders && (!prog.Internal || p.opts.Internal) {
		fmt.Fprintf(p.out, "%s shader %q:\n", prog.Stage, prog.Name)
		spew.Fdump(p.out, prog)
	}

	plan := Layout(prog)
	res := &Result{}

	var last int
	for _, b := range prog.Blocks {
		for _, c := range b.Clauses {
			next1, next2 := prog.Successors(b, c)
			pc := PackClause(c, next1, next2, plan.Constants(c), p.quirks)

			offset := len(res.Code) / format.QuadBytes
			assertf(offset == plan.Offsets[c],
				"clause emitted at quadword %d, laid out at %d", offset, plan.Offsets[c])

			res.Clauses = append(res.Clauses, ClauseInfo{
				Clause:    c,
				Offset:    offset,
				Quadwords: pc.Quadwords(),
				Tuples:    len(c.Tuples),
				Constants: len(c.Constants),
				Formats:   pc.Formats,
				Header:    pc.Header,
			})

			p.log.V(1).Info("packed clause",
				"block", b.ID,
				"offset", offset,
				"tuples", len(c.Tuples),
				"constants", len(c.Constants),
				"formats", pc.Formats,
				"quadwords", pc.Quadwords())

			last = len(res.Code)
			res.Code = append(res.Code, pc.Bytes()...)
		}
	}

	res.Size = len(res.Code)
	if res.Size > 0 {
		pad := PrefetchSize - (res.Size - last)
		res.Code = append(res.Code, make([]byte, max(pad, 0))...)
	}

	if !p.opts.NoValidate {
		Validate(res)
	}

	if p.opts.ShaderDB {
		s := stats.Collect(prog, res.Code[:res.Size], p.costs)
		fmt.Fprintln(p.out, s.Line())
	}

	return res
}
