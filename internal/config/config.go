// Package config loads the simulation's tunable constants, mirroring the
// teacher's server.Config/DefaultConfig shape but file-backed instead of
// flag-only, since spec.md §9's numeric constants need one canonical home
// threaded into every component's constructor.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the simulation's components take as
// constructor parameters, so cmd/foundrycraftd has one place to load and
// wire them from rather than hard-coding the spec's Scenario A numbers.
type Config struct {
	Seed int64 `yaml:"seed"`

	TickRate   int   `yaml:"tick_rate"`   // Hz
	ViewRadius int32 `yaml:"view_radius"` // chunks, Chebyshev

	ReachDistance float32 `yaml:"reach_distance"` // blocks

	BeltSpeed   float64 `yaml:"belt_speed"`   // progress units/tick
	ItemSpacing float64 `yaml:"item_spacing"` // progress units
	BeltLength  int     `yaml:"belt_length"`  // default tile capacity

	TMine     int `yaml:"t_mine"`     // ticks
	TSmelt    int `yaml:"t_smelt"`    // ticks, informational: recipes carry their own Time
	TFuel     int `yaml:"t_fuel"`     // ticks, informational: fuel value comes from taxonomy.FuelValue
	BufferCap int `yaml:"buffer_cap"` // miner internal buffer size

	SpawnGuaranteeRadius int32 `yaml:"spawn_guarantee_radius"` // blocks, informational: terrain.SpawnGuaranteeRadius is a fixed constant

	MaxChunkRetries int `yaml:"max_chunk_retries"`

	SavePath string `yaml:"save_path"`
}

// Default returns the numeric constants chosen for this implementation
// (spec.md §9's Design Notes), matching Scenario A's T_mine=60, T_smelt=120,
// T_fuel=480 exactly.
func Default() Config {
	return Config{
		TickRate:             20,
		ViewRadius:           8,
		ReachDistance:        5.0,
		BeltSpeed:            1.0 / 20,
		ItemSpacing:          0.25,
		BeltLength:           4,
		TMine:                60,
		TSmelt:               120,
		TFuel:                480,
		BufferCap:            4,
		SpawnGuaranteeRadius: 32,
		MaxChunkRetries:      5,
		SavePath:             "./saves",
	}
}

// Load reads a YAML config from path, filling in any field left at its zero
// value from Default() first — a partial file overrides only what it sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
