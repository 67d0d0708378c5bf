package kinematics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

// flatFloor is solid at y <= 0, air above; used to test gravity/ground
// resolution without a full voxel.World.
type flatFloor struct{}

func (flatFloor) IsSolid(pos taxonomy.BlockPos) (bool, bool) {
	return pos.Y <= 0, true
}

type openAir struct{}

func (openAir) IsSolid(taxonomy.BlockPos) (bool, bool) {
	return false, true
}

func TestSurvivalGravityPullsDown(t *testing.T) {
	p := &Player{Pos: mgl32.Vec3{0, 50, 0}, Mode: Survival}
	Tick(p, openAir{}, Intent{})
	if p.Vel[1] >= 0 {
		t.Fatalf("Vel.Y = %f, expected negative after gravity", p.Vel[1])
	}
	if p.Pos[1] >= 50 {
		t.Fatalf("Pos.Y = %f, expected to have fallen from 50", p.Pos[1])
	}
}

func TestSurvivalLandsOnFloorAndSetsOnGround(t *testing.T) {
	p := &Player{Pos: mgl32.Vec3{0, 1.01, 0}, Mode: Survival}
	for i := 0; i < 50 && !p.OnGround; i++ {
		Tick(p, flatFloor{}, Intent{})
	}
	if !p.OnGround {
		t.Fatal("expected player to land and set OnGround")
	}
	if p.Pos[1] < 1 {
		t.Errorf("Pos.Y = %f, expected to settle at or above the floor (y=1)", p.Pos[1])
	}
}

func TestJumpOnlyWhenOnGround(t *testing.T) {
	p := &Player{Pos: mgl32.Vec3{0, 1, 0}, Mode: Survival, OnGround: true}
	Tick(p, flatFloor{}, Intent{Jump: true})
	if p.Vel[1] <= 0 {
		t.Fatalf("expected a positive jump velocity, got %f", p.Vel[1])
	}

	p2 := &Player{Pos: mgl32.Vec3{0, 50, 0}, Mode: Survival, OnGround: false}
	Tick(p2, openAir{}, Intent{Jump: true})
	if p2.Vel[1] >= 0 {
		t.Fatal("jump while airborne should not apply an upward impulse")
	}
}

func TestCreativeIgnoresGravityAndCollision(t *testing.T) {
	p := &Player{Pos: mgl32.Vec3{0, 1, 0}, Mode: Creative}
	Tick(p, flatFloor{}, Intent{Vertical: -1, Speed: 5})
	if p.Pos[1] >= 1 {
		t.Fatalf("Creative mode should allow descending through a solid floor, got y=%f", p.Pos[1])
	}
}

func TestPitchClamps(t *testing.T) {
	p := &Player{Mode: Creative}
	for i := 0; i < 100; i++ {
		Tick(p, openAir{}, Intent{PitchDelta: 1})
	}
	if p.Pitch > pitchLimit || p.Pitch < -pitchLimit {
		t.Fatalf("Pitch = %f, expected clamped within ±%f", p.Pitch, pitchLimit)
	}
}

func TestCollisionStopsHorizontalMovement(t *testing.T) {
	// A world solid everywhere should halt X/Z movement immediately.
	p := &Player{Pos: mgl32.Vec3{0, 5, 0}, Mode: Survival}
	solidEverywhere := solidWorld{}
	before := p.Pos
	Tick(p, solidEverywhere, Intent{Forward: 1, Speed: 1})
	if p.Pos[0] != before[0] || p.Pos[2] != before[2] {
		t.Errorf("expected horizontal position unchanged against solid world, got %v", p.Pos)
	}
}

type solidWorld struct{}

func (solidWorld) IsSolid(taxonomy.BlockPos) (bool, bool) {
	return true, true
}
