package terrain

import (
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
)

const cellsPerChunk = voxel.Side * voxel.Side * voxel.Side

// oreDepth is how far below the surface ore veins are eligible to appear.
const oreDepth = 24

// Generator is a pure function of (ChunkPos, seed): it implements
// voxel.Generator. All randomness is seeded solely from (seed, coordinate),
// per §4.C3's determinism requirement — no generator method reads the wall
// clock, a global RNG, or any other hidden state.
type Generator struct {
	Seed int64
	reg  *taxonomy.Registry

	height *Noise2D
	temp   *Noise2D
	rain   *Noise2D
	cave1  *Noise3D
	cave2  *Noise3D

	oreNoise map[string]*Noise3D

	stone, air taxonomy.Handle
	surfaceIDs map[Kind]taxonomy.Handle
	fillerIDs  map[Kind]taxonomy.Handle
}

// NewGenerator builds a terrain generator for a given seed and registry.
// Each noise channel is seeded as seed+offset, matching the teacher's
// per-channel seed derivation (world.NewGenerator) so channels never
// accidentally correlate.
func NewGenerator(seed int64, reg *taxonomy.Registry) *Generator {
	g := &Generator{
		Seed:     seed,
		reg:      reg,
		height:   NewNoise2D(seed),
		temp:     NewNoise2D(seed + 1),
		rain:     NewNoise2D(seed + 2),
		cave1:    NewNoise3D(seed + 3),
		cave2:    NewNoise3D(seed + 5),
		oreNoise: make(map[string]*Noise3D),
		stone:    reg.MustLookup("foundrycraft:stone"),
		air:      taxonomy.AirHandle,
	}
	oreSeedOffset := int64(100)
	for _, id := range []string{"foundrycraft:iron_ore", "foundrycraft:copper_ore", "foundrycraft:coal_ore"} {
		g.oreNoise[id] = NewNoise3D(seed + oreSeedOffset)
		oreSeedOffset += 17
	}
	g.surfaceIDs = make(map[Kind]taxonomy.Handle)
	g.fillerIDs = make(map[Kind]taxonomy.Handle)
	for k, b := range defs {
		if h, ok := reg.Lookup(b.SurfaceID); ok {
			g.surfaceIDs[k] = h
		}
		if h, ok := reg.Lookup(b.FillerID); ok {
			g.fillerIDs[k] = h
		}
	}
	return g
}

// SurfaceHeight returns the solid surface Y for a world column, combining
// the biome's base height with fractal noise variation — ported from the
// teacher's Generator.SurfaceHeight minus the river/lake carving (out of
// scope: this world has no water).
func (g *Generator) SurfaceHeight(x, z int) int {
	k := At(g.temp, g.rain, x, z)
	b := Get(k)
	const noiseScale = 0.015
	h := g.height.Octave(float64(x)*noiseScale, float64(z)*noiseScale, 3, 2.0, 0.5)
	return int(float64(b.BaseHeight) + h*b.HeightVariation)
}

// isCave reports whether (x,y,z) should be carved out, using the same
// two-channel "spaghetti cave" threshold as the teacher's isCave.
func (g *Generator) isCave(x, y, z int) bool {
	lowRes := g.cave1.Sample(float64(x)*0.03, float64(y)*0.03, float64(z)*0.03)
	if lowRes > 0.5 {
		spaghetti := g.cave2.Sample(float64(x)*0.08, float64(y)*0.08, float64(z)*0.08)
		return spaghetti > 0.3
	}
	return false
}

// oreAt returns the ore handle that should occupy (x,y,z), if any, biased
// by the biome's OreBias table. Evaluated in a fixed priority order (iron,
// copper, coal) so overlapping vein noise resolves deterministically
// rather than by map iteration order.
func (g *Generator) oreAt(x, y, z int, k Kind) (taxonomy.Handle, bool) {
	b := Get(k)
	if len(b.OreBias) == 0 {
		return 0, false
	}
	for _, id := range []string{"foundrycraft:iron_ore", "foundrycraft:copper_ore", "foundrycraft:coal_ore"} {
		bias, ok := b.OreBias[id]
		if !ok || bias <= 0 {
			continue
		}
		n, ok := g.oreNoise[id]
		if !ok {
			continue
		}
		v := n.Sample(float64(x)*0.12, float64(y)*0.12, float64(z)*0.12)
		threshold := 0.75 - 0.2*bias // higher bias -> lower threshold -> more common
		if v > threshold {
			if h, ok := oreHandle(g.reg, id); ok {
				return h, true
			}
		}
	}
	return 0, false
}

// BlockAt is the pure per-block terrain function the chunk generator calls
// for every cell. It is also usable directly (e.g. by the miner to sample
// "what ore is under this footprint" without round-tripping through a
// realized chunk).
func (g *Generator) BlockAt(x, y, z int) taxonomy.Handle {
	surfH := g.SurfaceHeight(x, z)
	if y > surfH {
		return g.air
	}
	if g.isCave(x, y, z) && y < surfH-2 {
		return g.air
	}
	k := At(g.temp, g.rain, x, z)
	if y <= surfH && y > surfH-oreDepth {
		if ore, ok := g.oreAt(x, y, z, k); ok {
			return ore
		}
	}
	if y == surfH {
		if h, ok := g.surfaceIDs[k]; ok {
			return h
		}
		return g.stone
	}
	if y >= surfH-3 {
		if h, ok := g.fillerIDs[k]; ok {
			return h
		}
	}
	return g.stone
}

// Biome returns the biome classification at a world (x, z) column. Used by
// the miner (§4.C10: "reads the biome at its position").
func (g *Generator) Biome(x, z int) Kind {
	return At(g.temp, g.rain, x, z)
}

// Generate fills one chunk's worth of blocks; implements voxel.Generator.
func (g *Generator) Generate(pos taxonomy.ChunkPos) [cellsPerChunk]taxonomy.Handle {
	var out [cellsPerChunk]taxonomy.Handle
	origin := voxel.Origin(pos)
	for lx := int32(0); lx < voxel.Side; lx++ {
		for ly := int32(0); ly < voxel.Side; ly++ {
			for lz := int32(0); lz < voxel.Side; lz++ {
				wx := int(origin.X + lx)
				wy := int(origin.Y + ly)
				wz := int(origin.Z + lz)
				idx := int((ly*voxel.Side+lz)*voxel.Side + lx)
				out[idx] = g.BlockAt(wx, wy, wz)
			}
		}
	}
	return out
}
