package raycast

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

type blockSet map[taxonomy.BlockPos]bool

func (b blockSet) IsSolid(pos taxonomy.BlockPos) (bool, bool) {
	return b[pos], true
}

func TestCastHitsSolidBlockAheadOnZ(t *testing.T) {
	w := blockSet{{X: 0, Y: 0, Z: 5}: true}
	hit, ok := Cast(w, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, 10)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Block != (taxonomy.BlockPos{X: 0, Y: 0, Z: 5}) {
		t.Errorf("Block = %v, want (0,0,5)", hit.Block)
	}
	if hit.PlacePos != (taxonomy.BlockPos{X: 0, Y: 0, Z: 4}) {
		t.Errorf("PlacePos = %v, want (0,0,4)", hit.PlacePos)
	}
}

func TestCastNoHitWithinRange(t *testing.T) {
	w := blockSet{{X: 0, Y: 0, Z: 100}: true}
	_, ok := Cast(w, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, 5)
	if ok {
		t.Fatal("expected no hit within range 5")
	}
}

func TestCastEmptyWorldNeverHits(t *testing.T) {
	w := blockSet{}
	_, ok := Cast(w, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, 20)
	if ok {
		t.Fatal("expected no hit in an empty world")
	}
}

func TestCastHitsAlongDiagonal(t *testing.T) {
	w := blockSet{{X: 3, Y: 3, Z: 3}: true}
	dir := mgl32.Vec3{1, 1, 1}.Normalize()
	hit, ok := Cast(w, mgl32.Vec3{0.5, 0.5, 0.5}, dir, 10)
	if !ok {
		t.Fatal("expected a diagonal hit")
	}
	if hit.Block != (taxonomy.BlockPos{X: 3, Y: 3, Z: 3}) {
		t.Errorf("Block = %v, want (3,3,3)", hit.Block)
	}
}

func TestCastDeterministic(t *testing.T) {
	w := blockSet{{X: -2, Y: 1, Z: 7}: true}
	origin := mgl32.Vec3{0, 1, 0}
	dir := mgl32.Vec3{-0.3, 0, 0.95}.Normalize()

	h1, ok1 := Cast(w, origin, dir, 15)
	h2, ok2 := Cast(w, origin, dir, 15)
	if ok1 != ok2 || h1 != h2 {
		t.Fatalf("Cast not deterministic: (%v,%v) vs (%v,%v)", h1, ok1, h2, ok2)
	}
}
