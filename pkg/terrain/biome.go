package terrain

import "github.com/foundrycraft/foundrycraft/pkg/taxonomy"

// Biome describes terrain generation parameters and ore bias for a region.
// Shape and selection thresholds are ported from the teacher's
// world.BiomeAt temperature/rainfall lookup; the ore fields are new (the
// teacher generated vanilla terrain, not ore-bearing factory terrain).
type Biome struct {
	Name            string
	SurfaceID       string
	FillerID        string
	BaseHeight      int
	HeightVariation float64
	OreBias         map[string]float64 // ore ID -> vein probability multiplier
}

// Kind enumerates the fixed biome palette spec §3 names.
type Kind int

const (
	BiomeIron Kind = iota
	BiomeCopper
	BiomeCoal
	BiomeStone
	BiomeMixed
	BiomeUnmineable
)

func (k Kind) String() string {
	switch k {
	case BiomeIron:
		return "iron"
	case BiomeCopper:
		return "copper"
	case BiomeCoal:
		return "coal"
	case BiomeStone:
		return "stone"
	case BiomeMixed:
		return "mixed"
	case BiomeUnmineable:
		return "unmineable"
	default:
		return "unknown"
	}
}

var defs = map[Kind]*Biome{
	BiomeIron:       {Name: "Iron Fields", SurfaceID: "foundrycraft:grass", FillerID: "foundrycraft:dirt", BaseHeight: 66, HeightVariation: 10, OreBias: map[string]float64{"foundrycraft:iron_ore": 1.0}},
	BiomeCopper:     {Name: "Copper Barrens", SurfaceID: "foundrycraft:dirt", FillerID: "foundrycraft:dirt", BaseHeight: 64, HeightVariation: 8, OreBias: map[string]float64{"foundrycraft:copper_ore": 1.0}},
	BiomeCoal:       {Name: "Coal Hills", SurfaceID: "foundrycraft:stone", FillerID: "foundrycraft:stone", BaseHeight: 70, HeightVariation: 18, OreBias: map[string]float64{"foundrycraft:coal_ore": 1.0}},
	BiomeStone:      {Name: "Stone Plateau", SurfaceID: "foundrycraft:stone", FillerID: "foundrycraft:stone", BaseHeight: 68, HeightVariation: 14},
	BiomeMixed:      {Name: "Mixed Ore Belt", SurfaceID: "foundrycraft:grass", FillerID: "foundrycraft:dirt", BaseHeight: 66, HeightVariation: 12, OreBias: map[string]float64{"foundrycraft:iron_ore": 0.5, "foundrycraft:copper_ore": 0.5, "foundrycraft:coal_ore": 0.5}},
	BiomeUnmineable: {Name: "Bedrock Flat", SurfaceID: "foundrycraft:stone", FillerID: "foundrycraft:stone", BaseHeight: 60, HeightVariation: 2},
}

// Get returns the Biome data for a Kind.
func Get(k Kind) *Biome {
	return defs[k]
}

// SpawnGuaranteeRadius is the disk around the origin forced to a fixed
// palette (BiomeMixed) regardless of seed, per §3's spawn guarantee.
const SpawnGuaranteeRadius = 32

// At selects a biome for a world column using temperature/rainfall noise,
// the same two-axis scheme as the teacher's BiomeAt, remapped onto the ore
// palette instead of vanilla terrain biomes.
func At(temp, rain *Noise2D, worldX, worldZ int) Kind {
	if worldX*worldX+worldZ*worldZ <= SpawnGuaranteeRadius*SpawnGuaranteeRadius {
		return BiomeMixed
	}

	const scale = 0.003
	bx := float64(worldX) * scale
	bz := float64(worldZ) * scale

	t := (temp.Octave(bx, bz, 4, 2.0, 0.5) + 1) / 2
	r := (rain.Octave(bx+500, bz+500, 4, 2.0, 0.5) + 1) / 2

	switch {
	case t < 0.25:
		return BiomeUnmineable
	case t < 0.45:
		if r > 0.6 {
			return BiomeIron
		}
		return BiomeStone
	case t < 0.75:
		if r > 0.7 {
			return BiomeMixed
		}
		if r > 0.4 {
			return BiomeCopper
		}
		return BiomeCoal
	default:
		if r > 0.5 {
			return BiomeCoal
		}
		return BiomeIron
	}
}

// oreHandle resolves an ore ID string to a Handle, returning false if it
// isn't registered (lets callers skip ores the registry doesn't know).
func oreHandle(reg *taxonomy.Registry, id string) (taxonomy.Handle, bool) {
	return reg.Lookup(id)
}

// OreIDs fixes an iteration order over the ore catalogue, used both by the
// generator's vein-priority resolution and by the miner's "pick the
// footprint's dominant ore" logic, so both agree on tie-breaking.
var OreIDs = []string{"foundrycraft:iron_ore", "foundrycraft:copper_ore", "foundrycraft:coal_ore"}

// DominantOre returns the highest-OreBias ore ID for a biome, breaking ties
// by OreIDs order. Returns ("", false) if the biome has no ore bias at all
// (e.g. BiomeUnmineable).
func DominantOre(k Kind) (string, bool) {
	b := Get(k)
	best := ""
	bestBias := 0.0
	for _, id := range OreIDs {
		bias, ok := b.OreBias[id]
		if !ok || bias <= bestBias {
			continue
		}
		best, bestBias = id, bias
	}
	return best, best != ""
}
