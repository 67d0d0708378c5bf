package terrain

import "github.com/aquilax/go-perlin"

// Noise2D and Noise3D wrap github.com/aquilax/go-perlin's gradient noise
// primitive with the octave/fBm composition the teacher's hand-rolled
// world.Perlin used (OctaveNoise2D): the library supplies a single
// deterministic noise sample, this package sums several frequencies of it
// for natural-looking terrain. Swapping the gradient primitive for a real
// dependency while keeping the teacher's fractal composition is the point:
// determinism (§4.C3) only requires the *sum* be a pure function of seed
// and coordinate, which holds for both.

const (
	perlinAlpha = 2.0
	perlinBeta  = 2.0
	perlinN     = int32(1)
)

// Noise2D is a seeded 2D gradient noise source.
type Noise2D struct {
	p *perlin.Perlin
}

// NewNoise2D seeds a 2D noise source.
func NewNoise2D(seed int64) *Noise2D {
	return &Noise2D{p: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinN, seed)}
}

// Sample returns a single-octave noise value, roughly in [-1, 1].
func (n *Noise2D) Sample(x, y float64) float64 {
	return clampUnit(n.p.Noise2D(x, y))
}

// Octave sums `octaves` frequencies of noise (fractal Brownian motion),
// each `lacunarity` times the frequency and `persistence` times the
// amplitude of the last, normalized back to roughly [-1, 1].
func (n *Noise2D) Octave(x, y float64, octaves int, lacunarity, persistence float64) float64 {
	var total, amplitude, frequency, maxAmplitude float64
	amplitude = 1
	frequency = 1
	for i := 0; i < octaves; i++ {
		total += n.Sample(x*frequency, y*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if maxAmplitude == 0 {
		return 0
	}
	return total / maxAmplitude
}

// Noise3D is a seeded 3D gradient noise source, used for cave and ore-vein
// carving.
type Noise3D struct {
	p *perlin.Perlin
}

// NewNoise3D seeds a 3D noise source.
func NewNoise3D(seed int64) *Noise3D {
	return &Noise3D{p: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinN, seed)}
}

// Sample returns a single-octave 3D noise value, roughly in [-1, 1].
func (n *Noise3D) Sample(x, y, z float64) float64 {
	return clampUnit(n.p.Noise3D(x, y, z))
}

func clampUnit(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
