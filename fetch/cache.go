package fetch

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Backing is the memory behind the instruction cache.
type Backing interface {
	// Read fetches size bytes at addr. Bytes past the end read as zero.
	Read(addr uint64, size int) []byte
}

// AccessResult is the result of one cache access.
type AccessResult struct {
	Hit     bool
	Latency uint64

	// Evicted is set when a valid line was replaced.
	Evicted     bool
	EvictedAddr uint64
}

// Statistics holds cache counters.
type Statistics struct {
	Reads     uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a read-only set-associative instruction cache.
type Cache struct {
	config Config

	directory *akitacache.DirectoryImpl

	// Indexed by setID * associativity + wayID.
	dataStore [][]byte

	stats   Statistics
	backing Backing
}

// NewCache creates an instruction cache over backing.
func NewCache(config Config, backing Backing) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Stats returns the cache counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return addr / uint64(c.config.BlockSize) * uint64(c.config.BlockSize)
}

// Contains reports whether the line holding addr is cached, without
// touching the replacement state.
func (c *Cache) Contains(addr uint64) bool {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	return block != nil && block.IsValid
}

// Read looks up addr and fills its line on a miss. data receives the
// cached bytes starting at addr when non-nil.
func (c *Cache) Read(addr uint64, data []byte) AccessResult {
	c.stats.Reads++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		copy(data, c.dataStore[c.blockIndex(block)][addr-blockAddr:])

		return AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	return c.fill(addr, data)
}

func (c *Cache) fill(addr uint64, data []byte) AccessResult {
	result := AccessResult{Latency: c.config.MissLatency}
	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag
	}

	line := c.dataStore[c.blockIndex(victim)]
	clear(line)
	if c.backing != nil {
		copy(line, c.backing.Read(blockAddr, c.config.BlockSize))
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	copy(data, line[addr-blockAddr:])
	return result
}

// Reset invalidates every line and clears the counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
