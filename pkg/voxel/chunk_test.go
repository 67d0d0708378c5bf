package voxel

import (
	"testing"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

func TestChunkOfAndLocalOfRoundTrip(t *testing.T) {
	tests := []taxonomy.BlockPos{
		{X: 0, Y: 0, Z: 0},
		{X: 15, Y: 15, Z: 15},
		{X: 16, Y: 16, Z: 16},
		{X: -1, Y: -1, Z: -1},
		{X: -17, Y: 5, Z: 31},
	}
	for _, p := range tests {
		cp := ChunkOf(p)
		lx, ly, lz := LocalOf(p)
		if lx < 0 || lx >= Side || ly < 0 || ly >= Side || lz < 0 || lz >= Side {
			t.Fatalf("LocalOf(%v) = (%d,%d,%d), out of [0,%d)", p, lx, ly, lz, Side)
		}
		origin := Origin(cp)
		got := taxonomy.BlockPos{X: origin.X + lx, Y: origin.Y + ly, Z: origin.Z + lz}
		if got != p {
			t.Errorf("round trip for %v got %v via chunk %v", p, got, cp)
		}
	}
}

func TestNegativeCoordinatesFloorCorrectly(t *testing.T) {
	// -1 must map to chunk -1, local 15 (not chunk 0, local -1).
	cp := ChunkOf(taxonomy.BlockPos{X: -1, Y: -1, Z: -1})
	if cp != (taxonomy.ChunkPos{X: -1, Y: -1, Z: -1}) {
		t.Fatalf("ChunkOf(-1,-1,-1) = %v, want {-1,-1,-1}", cp)
	}
	lx, ly, lz := LocalOf(taxonomy.BlockPos{X: -1, Y: -1, Z: -1})
	if lx != 15 || ly != 15 || lz != 15 {
		t.Fatalf("LocalOf(-1,-1,-1) = (%d,%d,%d), want (15,15,15)", lx, ly, lz)
	}
}

func TestChunkGetSetDirty(t *testing.T) {
	c := &Chunk{Pos: taxonomy.ChunkPos{}}
	if c.Dirty() {
		t.Fatal("new chunk should not be dirty")
	}
	c.set(1, 2, 3, taxonomy.Handle(5))
	if !c.Dirty() {
		t.Error("set should mark chunk dirty")
	}
	if got := c.get(1, 2, 3); got != 5 {
		t.Errorf("get(1,2,3) = %d, want 5", got)
	}
	c.ClearDirty()
	if c.Dirty() {
		t.Error("ClearDirty should reset dirty flag")
	}
}

func TestLocalIndexNoCollisionWithinChunk(t *testing.T) {
	seen := make(map[int]bool, cellsPerChunk)
	for lx := int32(0); lx < Side; lx++ {
		for ly := int32(0); ly < Side; ly++ {
			for lz := int32(0); lz < Side; lz++ {
				idx := localIndex(lx, ly, lz)
				if idx < 0 || idx >= cellsPerChunk {
					t.Fatalf("localIndex(%d,%d,%d) = %d out of range", lx, ly, lz, idx)
				}
				if seen[idx] {
					t.Fatalf("localIndex(%d,%d,%d) collided with a previous coordinate", lx, ly, lz)
				}
				seen[idx] = true
			}
		}
	}
}
