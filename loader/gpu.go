package loader

import (
	"fmt"
	"strconv"
	"strings"
)

// GPU is a known Mali product.
type GPU struct {
	Name string

	// ID is the product ID, major<<12 | minor<<8.
	ID uint32
}

// GPUs lists the known products.
var GPUs = []GPU{
	{"G71", 0x6000},
	{"G72", 0x6200},
	{"G51", 0x7000},
	{"G76", 0x7200},
	{"G52", 0x7400},
	{"G31", 0x7300},
	{"G77", 0x9000},
	{"G57", 0x9300},
	{"G78", 0x9200},
	{"G68", 0x9400},
	{"G78AE", 0x9500},
}

// ArchValhall is the first architecture major this disassembler does not
// handle.
const ArchValhall = 9

// GPUIDFromName returns the product ID of a GPU name, ignoring case and a
// "Mali-" prefix.
func GPUIDFromName(name string) (uint32, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "MALI-")

	for _, g := range GPUs {
		if g.Name == n {
			return g.ID, nil
		}
	}

	return 0, fmt.Errorf("unknown GPU %q", name)
}

// ParseGPUID parses a numeric product ID, decimal or 0x-prefixed hex.
func ParseGPUID(s string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid GPU ID %q: %w", s, err)
	}
	return uint32(id), nil
}

// Arch returns the architecture major of a product ID.
func Arch(id uint32) uint32 {
	return id >> 12
}

// GPUName returns the name of a product ID, or its hex form if unknown.
func GPUName(id uint32) string {
	for _, g := range GPUs {
		if g.ID == id {
			return "Mali-" + g.Name
		}
	}
	return fmt.Sprintf("%#x", id)
}
