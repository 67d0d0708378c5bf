package voxel

import (
	"testing"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

type flatGenerator struct {
	fill taxonomy.Handle
}

func (f flatGenerator) Generate(pos taxonomy.ChunkPos) [cellsPerChunk]taxonomy.Handle {
	var out [cellsPerChunk]taxonomy.Handle
	for i := range out {
		out[i] = f.fill
	}
	return out
}

func TestUnloadedChunkReturnsUnloadedStatus(t *testing.T) {
	w := NewWorld(flatGenerator{fill: 3})
	h, status := w.Get(taxonomy.BlockPos{X: 0, Y: 0, Z: 0})
	if status != StatusUnloaded {
		t.Fatalf("status = %v, want StatusUnloaded", status)
	}
	if h != taxonomy.AirHandle {
		t.Errorf("unloaded Get should report air handle, got %v", h)
	}
	if _, known := w.IsSolid(taxonomy.BlockPos{X: 0, Y: 0, Z: 0}); known {
		t.Error("IsSolid should report known=false for an unloaded chunk")
	}
}

func TestLoadThenGetReturnsGenerated(t *testing.T) {
	w := NewWorld(flatGenerator{fill: 3})
	w.Load(taxonomy.ChunkPos{})
	h, status := w.Get(taxonomy.BlockPos{X: 1, Y: 1, Z: 1})
	if status != StatusLoaded {
		t.Fatalf("status = %v, want StatusLoaded", status)
	}
	if h != 3 {
		t.Errorf("Get = %v, want 3", h)
	}
}

func TestSetMarksOwningChunkDirty(t *testing.T) {
	w := NewWorld(flatGenerator{fill: 0})
	w.Load(taxonomy.ChunkPos{})
	if ok := w.Set(taxonomy.BlockPos{X: 5, Y: 5, Z: 5}, 9); !ok {
		t.Fatal("Set on loaded chunk should succeed")
	}
	dirty := w.TakeDirty()
	if len(dirty) != 1 || dirty[0] != (taxonomy.ChunkPos{}) {
		t.Errorf("TakeDirty = %v, want just the origin chunk", dirty)
	}
	if h, _ := w.Get(taxonomy.BlockPos{X: 5, Y: 5, Z: 5}); h != 9 {
		t.Errorf("Get after Set = %v, want 9", h)
	}
}

func TestSetOnUnloadedChunkIsNoop(t *testing.T) {
	w := NewWorld(flatGenerator{fill: 0})
	if ok := w.Set(taxonomy.BlockPos{X: 0, Y: 0, Z: 0}, 9); ok {
		t.Error("Set on an unloaded chunk should return false")
	}
}

func TestSetAtBoundaryMarksNeighborDirty(t *testing.T) {
	w := NewWorld(flatGenerator{fill: 0})
	origin := taxonomy.ChunkPos{X: 0, Y: 0, Z: 0}
	neighbor := taxonomy.ChunkPos{X: -1, Y: 0, Z: 0}
	w.Load(origin)
	w.Load(neighbor)

	w.Set(taxonomy.BlockPos{X: 0, Y: 0, Z: 0}, 9) // lx == 0, touches the -X boundary

	dirty := w.TakeDirty()
	found := false
	for _, p := range dirty {
		if p == neighbor {
			found = true
		}
	}
	if !found {
		t.Errorf("TakeDirty = %v, expected neighbor chunk %v to be present", dirty, neighbor)
	}
}

func TestChunksInRadiusIncludesCenter(t *testing.T) {
	center := taxonomy.ChunkPos{X: 4, Y: 0, Z: 4}
	chunks := ChunksInRadius(center, 1)
	if len(chunks) != 27 {
		t.Fatalf("len(ChunksInRadius(_, 1)) = %d, want 27", len(chunks))
	}
	found := false
	for _, c := range chunks {
		if c == center {
			found = true
		}
	}
	if !found {
		t.Error("ChunksInRadius should include the center chunk")
	}
}

func TestUnloadRemovesChunk(t *testing.T) {
	w := NewWorld(flatGenerator{fill: 1})
	w.Load(taxonomy.ChunkPos{})
	if !w.IsLoaded(taxonomy.ChunkPos{}) {
		t.Fatal("expected chunk to be loaded")
	}
	w.Unload(taxonomy.ChunkPos{})
	if w.IsLoaded(taxonomy.ChunkPos{}) {
		t.Error("expected chunk to be unloaded")
	}
}
