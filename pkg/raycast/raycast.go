// Package raycast implements block targeting: a DDA voxel walk from the
// player's eye along their look vector, per spec §4.C6.
package raycast

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

// World is the narrow read-only slice raycast needs.
type World interface {
	IsSolid(pos taxonomy.BlockPos) (solid bool, known bool)
}

// Hit describes a successful raycast result.
type Hit struct {
	Block    taxonomy.BlockPos // the solid cell hit
	PlacePos taxonomy.BlockPos // the empty cell adjacent to the entry face
}

// walker is a value type advanced in place by Cast, so a single raycast
// never allocates (spec §4.C6: "must not allocate per-call").
type walker struct {
	x, y, z       int32
	stepX, stepY, stepZ int32
	tMaxX, tMaxY, tMaxZ float64
	tDeltaX, tDeltaY, tDeltaZ float64
}

// Cast walks from origin along the unit direction dir up to maxDist blocks,
// returning the first solid cell encountered and its entry-face-adjacent
// empty neighbor. The second return value is false if nothing solid is hit
// within maxDist (spec's NoTarget).
func Cast(w World, origin, dir mgl32.Vec3, maxDist float32) (Hit, bool) {
	ox, oy, oz := float64(origin[0]), float64(origin[1]), float64(origin[2])
	dx, dy, dz := float64(dir[0]), float64(dir[1]), float64(dir[2])

	wk := walker{
		x: int32(math.Floor(ox)),
		y: int32(math.Floor(oy)),
		z: int32(math.Floor(oz)),
	}
	wk.stepX, wk.tMaxX, wk.tDeltaX = axisSetup(ox, dx)
	wk.stepY, wk.tMaxY, wk.tDeltaY = axisSetup(oy, dy)
	wk.stepZ, wk.tMaxZ, wk.tDeltaZ = axisSetup(oz, dz)

	// faceAxis/faceStep record which axis (and which direction along it)
	// the walker last crossed, so the place position can be derived from
	// the entry face without a second pass.
	var faceAxis int
	var faceStep int32
	maxD := float64(maxDist)

	for {
		pos := taxonomy.BlockPos{X: wk.x, Y: wk.y, Z: wk.z}
		solid, known := w.IsSolid(pos)
		if known && solid {
			place := pos
			switch faceAxis {
			case 0:
				place.X -= faceStep
			case 1:
				place.Y -= faceStep
			case 2:
				place.Z -= faceStep
			}
			return Hit{Block: pos, PlacePos: place}, true
		}

		// Advance along whichever axis has the smallest tMax, breaking
		// ties by preferring the axis with the larger |D| component
		// (spec §4.C6: stable, platform-independent tie-break).
		axis := nextAxis(wk, dx, dy, dz)
		switch axis {
		case 0:
			if wk.tMaxX > maxD {
				return Hit{}, false
			}
			wk.x += wk.stepX
			wk.tMaxX += wk.tDeltaX
			faceAxis, faceStep = 0, wk.stepX
		case 1:
			if wk.tMaxY > maxD {
				return Hit{}, false
			}
			wk.y += wk.stepY
			wk.tMaxY += wk.tDeltaY
			faceAxis, faceStep = 1, wk.stepY
		default:
			if wk.tMaxZ > maxD {
				return Hit{}, false
			}
			wk.z += wk.stepZ
			wk.tMaxZ += wk.tDeltaZ
			faceAxis, faceStep = 2, wk.stepZ
		}
	}
}

// axisSetup computes the DDA step/tMax/tDelta triple for one axis, given
// the ray's origin coordinate and direction component on that axis.
func axisSetup(origin, d float64) (step int32, tMax, tDelta float64) {
	if d == 0 {
		return 0, math.Inf(1), math.Inf(1)
	}
	if d > 0 {
		step = 1
		nextBoundary := math.Floor(origin) + 1
		tMax = (nextBoundary - origin) / d
		tDelta = 1 / d
	} else {
		step = -1
		prevBoundary := math.Floor(origin)
		tMax = (prevBoundary - origin) / d
		tDelta = -1 / d
	}
	return step, tMax, tDelta
}

// nextAxis picks which of X/Y/Z to advance: the smallest tMax, with ties
// broken toward the axis whose direction component has the larger
// magnitude.
func nextAxis(wk walker, dx, dy, dz float64) int {
	type cand struct {
		axis int
		tMax float64
		absD float64
	}
	cands := [3]cand{
		{0, wk.tMaxX, math.Abs(dx)},
		{1, wk.tMaxY, math.Abs(dy)},
		{2, wk.tMaxZ, math.Abs(dz)},
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.tMax < best.tMax || (c.tMax == best.tMax && c.absD > best.absD) {
			best = c
		}
	}
	return best.axis
}
