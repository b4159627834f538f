// Package fetch models instruction fetch over a packed shader binary.
//
// The hardware fetches a clause quadword by quadword and may speculatively
// prefetch a fixed window starting at the clause. The model walks the
// clauses of a binary through a set-associative instruction cache and
// counts every read that falls outside the binary, which is what the
// packer's padding is meant to prevent.
package fetch

import (
	"fmt"

	"github.com/sarchlab/bipack/disasm"
	"github.com/sarchlab/bipack/format"
)

// Config holds the fetch model parameters.
type Config struct {
	// Size of the instruction cache in bytes.
	Size int
	// Associativity (number of ways).
	Associativity int
	// BlockSize in bytes.
	BlockSize int
	// HitLatency in cycles.
	HitLatency uint64
	// MissLatency in cycles.
	MissLatency uint64
	// PrefetchSize is the speculative window in bytes from the start of a
	// clause.
	PrefetchSize int
}

// DefaultConfig returns a small instruction cache in the range of a
// Bifrost shader core.
func DefaultConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     64,
		HitLatency:    1,
		MissLatency:   20,
		PrefetchSize:  128,
	}
}

// Validate checks that the cache geometry is usable.
func (c Config) Validate() error {
	if c.BlockSize <= 0 || c.BlockSize%format.QuadBytes != 0 {
		return fmt.Errorf("block size %d must be a positive multiple of %d", c.BlockSize, format.QuadBytes)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.Size < c.Associativity*c.BlockSize || c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size %d is not a multiple of %d ways of %d bytes", c.Size, c.Associativity, c.BlockSize)
	}
	if c.PrefetchSize < 0 {
		return fmt.Errorf("prefetch size must be >= 0")
	}
	return nil
}

// Report summarizes a fetch run.
type Report struct {
	Clauses int

	// Fetches counts demand quadword reads; Hits and Misses split them by
	// cache outcome.
	Fetches    uint64
	Hits       uint64
	Misses     uint64
	Prefetches uint64

	// OutOfBounds counts quadword reads, demand or speculative, past the
	// end of the binary.
	OutOfBounds uint64

	// Cycles is the demand fetch latency. Prefetches are not charged.
	Cycles uint64
}

func (r Report) String() string {
	return fmt.Sprintf("%d clauses, %d fetches (%d hits, %d misses), %d prefetches, %d out of bounds, %d cycles",
		r.Clauses, r.Fetches, r.Hits, r.Misses, r.Prefetches, r.OutOfBounds, r.Cycles)
}

// Unit fetches the clauses of one binary.
type Unit struct {
	config Config
	image  *Image
	cache  *Cache
	report Report
}

// NewUnit creates a fetch unit over code.
func NewUnit(code []byte, config Config) *Unit {
	image := NewImage(code)
	return &Unit{
		config: config,
		image:  image,
		cache:  NewCache(config, image),
	}
}

// Run fetches every clause of the binary in layout order.
func (u *Unit) Run() (Report, error) {
	u.cache.Reset()
	u.report = Report{}

	clauses, err := disasm.Clauses(u.image.code)
	if err != nil {
		return u.report, fmt.Errorf("failed to decode binary: %w", err)
	}

	for _, c := range clauses {
		u.report.Clauses++
		start := uint64(c.Offset * format.QuadBytes)

		for q := 0; q < c.Quadwords; q++ {
			u.fetch(start + uint64(q*format.QuadBytes))
		}

		if c.Header.NextClausePrefetch || c.End() {
			for off := 0; off < u.config.PrefetchSize; off += format.QuadBytes {
				u.prefetch(start + uint64(off))
			}
		}
	}

	return u.report, nil
}

func (u *Unit) fetch(addr uint64) {
	u.report.Fetches++

	if !u.image.InBounds(addr, format.QuadBytes) {
		u.report.OutOfBounds++
		u.report.Cycles += u.config.MissLatency
		return
	}

	r := u.cache.Read(addr, nil)
	if r.Hit {
		u.report.Hits++
	} else {
		u.report.Misses++
	}
	u.report.Cycles += r.Latency
}

func (u *Unit) prefetch(addr uint64) {
	u.report.Prefetches++

	if !u.image.InBounds(addr, format.QuadBytes) {
		u.report.OutOfBounds++
		return
	}

	if !u.cache.Contains(addr) {
		u.cache.Read(addr, nil)
	}
}
