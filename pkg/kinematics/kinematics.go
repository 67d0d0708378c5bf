// Package kinematics integrates player position and resolves collision
// against the voxel world, one fixed simulation tick at a time (spec §4.C5).
package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
)

// Mode selects whether gravity/collision apply.
type Mode int

const (
	Survival Mode = iota
	Creative
)

func (m Mode) String() string {
	if m == Creative {
		return "creative"
	}
	return "survival"
}

const (
	// PlayerWidth and PlayerHeight size the player's AABB, matching the
	// teacher's mob dimensions (checkEntityCollision's mobWidth/mobHeight).
	PlayerWidth  = 0.6
	PlayerHeight = 1.8

	// gravity is expressed in blocks/tick² and terminalVelocity in
	// blocks/tick, matching the teacher's tickEntityPhysics constants of the
	// same name.
	gravity         = 0.04
	terminalVelocity = 3.0

	pitchLimit = math.Pi/2 - 1e-3
)

// Player holds everything kinematics mutates each tick.
type Player struct {
	Pos      mgl32.Vec3
	Vel      mgl32.Vec3
	Yaw      float32 // radians, teacher's south-is-zero convention
	Pitch    float32
	OnGround bool
	Mode     Mode
}

// World is the narrow slice of voxel.World kinematics needs, so tests can
// substitute a fake without constructing a full terrain generator.
type World interface {
	IsSolid(pos taxonomy.BlockPos) (solid bool, known bool)
}

var _ World = (*voxel.World)(nil)

// Intent is one tick's worth of input from the external collaborator:
// desired horizontal movement in player-local space, a jump request, and a
// look delta. Creative mode additionally honors vertical movement.
type Intent struct {
	Forward  float32 // -1..1
	Strafe   float32 // -1..1
	Vertical float32 // -1..1, Creative only
	Jump     bool
	YawDelta float32
	PitchDelta float32

	// Speed is blocks/tick of requested movement magnitude along Forward/
	// Strafe/Vertical; the caller (sim dispatcher) resolves this from
	// whatever speed constant applies (walk/sprint/fly).
	Speed float32
}

// aabbSolid reports whether any block under the player's AABB centered at
// (x, y, z) is solid, mirroring the teacher's checkEntityCollision: y is
// the AABB's bottom, x/z are its horizontal center.
func aabbSolid(w World, x, y, z float32) bool {
	minX := int32(math.Floor(float64(x - PlayerWidth/2)))
	maxX := int32(math.Floor(float64(x + PlayerWidth/2)))
	minY := int32(math.Floor(float64(y)))
	maxY := int32(math.Floor(float64(y + PlayerHeight)))
	minZ := int32(math.Floor(float64(z - PlayerWidth/2)))
	maxZ := int32(math.Floor(float64(z + PlayerWidth/2)))

	for bx := minX; bx <= maxX; bx++ {
		for by := minY; by <= maxY; by++ {
			for bz := minZ; bz <= maxZ; bz++ {
				solid, known := w.IsSolid(taxonomy.BlockPos{X: bx, Y: by, Z: bz})
				if known && solid {
					return true
				}
			}
		}
	}
	return false
}

// Tick advances a player by one fixed simulation step. Look deltas are
// applied first (they don't interact with collision), then velocity is
// updated from the intent and gravity, then position is resolved per-axis
// in X, then Z, then Y order, per §4.C5.
func Tick(p *Player, w World, in Intent) {
	p.Yaw += in.YawDelta
	p.Pitch = clampPitch(p.Pitch + in.PitchDelta)

	sinYaw, cosYaw := float32(math.Sin(float64(p.Yaw))), float32(math.Cos(float64(p.Yaw)))
	// South (yaw=0) is +Z, matching taxonomy.South's offset; strafing right
	// is the yaw+90° direction.
	moveX := (-sinYaw*in.Forward - cosYaw*in.Strafe) * in.Speed
	moveZ := (cosYaw*in.Forward - sinYaw*in.Strafe) * in.Speed

	p.Vel[0] = moveX
	p.Vel[2] = moveZ

	if p.Mode == Creative {
		p.Vel[1] = in.Vertical * in.Speed
		p.OnGround = false
	} else {
		p.Vel[1] -= gravity
		if p.Vel[1] < -terminalVelocity {
			p.Vel[1] = -terminalVelocity
		}
		if in.Jump && p.OnGround {
			p.Vel[1] = 0.42 // matches the teacher's jump impulse for mobs/items of this scale
		}
	}

	ignoreCollision := p.Mode == Creative

	// X axis.
	nx := p.Pos[0] + p.Vel[0]
	if ignoreCollision || !aabbSolid(w, nx, p.Pos[1], p.Pos[2]) {
		p.Pos[0] = nx
	} else {
		p.Vel[0] = 0
	}

	// Z axis.
	nz := p.Pos[2] + p.Vel[2]
	if ignoreCollision || !aabbSolid(w, p.Pos[0], p.Pos[1], nz) {
		p.Pos[2] = nz
	} else {
		p.Vel[2] = 0
	}

	// Y axis.
	ny := p.Pos[1] + p.Vel[1]
	if ignoreCollision || !aabbSolid(w, p.Pos[0], ny, p.Pos[2]) {
		p.Pos[1] = ny
		if p.Mode == Survival {
			p.OnGround = false
		}
	} else {
		if p.Mode == Survival && p.Vel[1] < 0 {
			p.OnGround = true
			p.Pos[1] = float32(math.Floor(float64(p.Pos[1])))
		}
		p.Vel[1] = 0
	}
}

func clampPitch(p float32) float32 {
	switch {
	case p > pitchLimit:
		return pitchLimit
	case p < -pitchLimit:
		return -pitchLimit
	default:
		return p
	}
}
