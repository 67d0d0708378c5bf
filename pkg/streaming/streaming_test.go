package streaming

import (
	"context"
	"errors"
	"testing"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
)

type flatGen struct{ fill taxonomy.Handle }

func (g flatGen) Generate(taxonomy.ChunkPos) [cellsPerChunk]taxonomy.Handle {
	var out [cellsPerChunk]taxonomy.Handle
	for i := range out {
		out[i] = g.fill
	}
	return out
}

type flakyGen struct {
	flatGen
	failUntil map[taxonomy.ChunkPos]int
	calls     map[taxonomy.ChunkPos]int
}

func (g *flakyGen) TryGenerate(pos taxonomy.ChunkPos) ([cellsPerChunk]taxonomy.Handle, error) {
	g.calls[pos]++
	if g.calls[pos] <= g.failUntil[pos] {
		return [cellsPerChunk]taxonomy.Handle{}, errors.New("simulated backing-store failure")
	}
	return g.Generate(pos), nil
}

func TestSyncLoadsRequiredChunks(t *testing.T) {
	w := voxel.NewWorld(flatGen{fill: 1})
	mgr := NewManager(w, flatGen{fill: 1}, 1, 3)

	if err := mgr.Sync(context.Background(), taxonomy.ChunkPos{}); err != nil {
		t.Fatalf("Sync error: %v", err)
	}

	want := voxel.ChunksInRadius(taxonomy.ChunkPos{}, 1)
	if len(w.Loaded()) != len(want) {
		t.Fatalf("loaded %d chunks, want %d", len(w.Loaded()), len(want))
	}
	for _, p := range want {
		if !w.IsLoaded(p) {
			t.Errorf("chunk %v not loaded", p)
		}
	}
}

func TestSyncUnloadsChunksOutOfRadius(t *testing.T) {
	w := voxel.NewWorld(flatGen{fill: 1})
	mgr := NewManager(w, flatGen{fill: 1}, 0, 3)

	mgr.Sync(context.Background(), taxonomy.ChunkPos{})
	if !w.IsLoaded(taxonomy.ChunkPos{}) {
		t.Fatal("expected origin chunk loaded")
	}

	mgr.Sync(context.Background(), taxonomy.ChunkPos{X: 10})
	if w.IsLoaded(taxonomy.ChunkPos{}) {
		t.Error("expected origin chunk unloaded after the center moved far away")
	}
	if !w.IsLoaded(taxonomy.ChunkPos{X: 10}) {
		t.Error("expected new center chunk loaded")
	}
}

func TestSyncRetriesBeforeEscalating(t *testing.T) {
	w := voxel.NewWorld(nil)
	gen := &flakyGen{
		flatGen:   flatGen{fill: 1},
		failUntil: map[taxonomy.ChunkPos]int{{}: 2},
		calls:     map[taxonomy.ChunkPos]int{},
	}
	mgr := NewManager(w, gen, 0, 5)

	// First two syncs fail generation but stay under MaxRetries.
	if err := mgr.Sync(context.Background(), taxonomy.ChunkPos{}); err != nil {
		t.Fatalf("unexpected escalation on attempt 1: %v", err)
	}
	if err := mgr.Sync(context.Background(), taxonomy.ChunkPos{}); err != nil {
		t.Fatalf("unexpected escalation on attempt 2: %v", err)
	}
	if w.IsLoaded(taxonomy.ChunkPos{}) {
		t.Fatal("chunk should not be loaded while generation keeps failing")
	}

	// Third attempt succeeds.
	if err := mgr.Sync(context.Background(), taxonomy.ChunkPos{}); err != nil {
		t.Fatalf("unexpected error on successful attempt: %v", err)
	}
	if !w.IsLoaded(taxonomy.ChunkPos{}) {
		t.Fatal("chunk should be loaded once generation succeeds")
	}
}

func TestSyncEscalatesAfterMaxRetries(t *testing.T) {
	w := voxel.NewWorld(nil)
	gen := &flakyGen{
		flatGen:   flatGen{fill: 1},
		failUntil: map[taxonomy.ChunkPos]int{{}: 100},
		calls:     map[taxonomy.ChunkPos]int{},
	}
	mgr := NewManager(w, gen, 0, 2)

	mgr.Sync(context.Background(), taxonomy.ChunkPos{})
	err := mgr.Sync(context.Background(), taxonomy.ChunkPos{})
	if err == nil {
		t.Fatal("expected a ChunkGenerationError once MaxRetries is exhausted")
	}
	var cge *ChunkGenerationError
	if !errors.As(err, &cge) {
		t.Fatalf("error = %v, want *ChunkGenerationError", err)
	}
}
