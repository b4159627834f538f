package stats

import (
	"encoding/json"
	"fmt"
	"os"
)

// CostConfig holds the cycle estimates used for shader-db statistics.
type CostConfig struct {
	// TupleCycles is the issue cost of one tuple. Default: 1 cycle.
	TupleCycles uint64 `json:"tuple_cycles"`

	// ClauseCycles is the fixed cost of switching clauses. Default: 1 cycle.
	ClauseCycles uint64 `json:"clause_cycles"`

	// VaryCycles is the cost of a varying interpolation message.
	// Default: 2 cycles.
	VaryCycles uint64 `json:"vary_cycles"`

	// TextureCycles is the cost of a texture message. Default: 4 cycles.
	TextureCycles uint64 `json:"texture_cycles"`

	// LoadCycles is the cost of a memory load message. Default: 4 cycles.
	LoadCycles uint64 `json:"load_cycles"`

	// StoreCycles is the cost of a memory store message. Default: 1 cycle.
	StoreCycles uint64 `json:"store_cycles"`

	// BlendCycles is the cost of a blend message. Default: 2 cycles.
	BlendCycles uint64 `json:"blend_cycles"`

	// MessageCycles is the cost of every other message. Default: 1 cycle.
	MessageCycles uint64 `json:"message_cycles"`
}

// DefaultCostConfig returns the default cost estimates.
func DefaultCostConfig() *CostConfig {
	return &CostConfig{
		TupleCycles:   1,
		ClauseCycles:  1,
		VaryCycles:    2,
		TextureCycles: 4,
		LoadCycles:    4,
		StoreCycles:   1,
		BlendCycles:   2,
		MessageCycles: 1,
	}
}

// LoadConfig loads a CostConfig from a JSON file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*CostConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cost config file: %w", err)
	}

	config := DefaultCostConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse cost config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a CostConfig to a JSON file.
func (c *CostConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cost config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cost config file: %w", err)
	}

	return nil
}

// Validate checks that every cost is positive.
func (c *CostConfig) Validate() error {
	if c.TupleCycles == 0 {
		return fmt.Errorf("tuple_cycles must be > 0")
	}
	if c.ClauseCycles == 0 {
		return fmt.Errorf("clause_cycles must be > 0")
	}
	if c.VaryCycles == 0 {
		return fmt.Errorf("vary_cycles must be > 0")
	}
	if c.TextureCycles == 0 {
		return fmt.Errorf("texture_cycles must be > 0")
	}
	if c.LoadCycles == 0 {
		return fmt.Errorf("load_cycles must be > 0")
	}
	if c.StoreCycles == 0 {
		return fmt.Errorf("store_cycles must be > 0")
	}
	if c.BlendCycles == 0 {
		return fmt.Errorf("blend_cycles must be > 0")
	}
	if c.MessageCycles == 0 {
		return fmt.Errorf("message_cycles must be > 0")
	}
	return nil
}

// Clone returns a copy of the CostConfig.
func (c *CostConfig) Clone() *CostConfig {
	clone := *c
	return &clone
}
