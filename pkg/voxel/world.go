package voxel

import (
	"sort"
	"sync"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

// Generator produces the terrain-only contents of a chunk. World depends on
// this narrow interface rather than pkg/terrain directly, so streaming/test
// code can substitute a trivial generator (the teacher's World held a
// concrete *Generator directly; here it's an interface so a flat/test world
// doesn't need the real noise machinery).
type Generator interface {
	Generate(pos taxonomy.ChunkPos) [cellsPerChunk]taxonomy.Handle
}

// Status distinguishes a loaded query result from one made against a chunk
// that isn't loaded. Per §4.C2, *Unloaded* must never be conflated with air:
// raycast/collision/conveyor code that receives it must not act.
type Status int

const (
	StatusLoaded Status = iota
	StatusUnloaded
)

// World owns every loaded chunk, keyed by chunk coordinate. It is the
// single source of truth for block state — consumers (raycast, collision,
// conveyors) never cache block data themselves.
type World struct {
	mu     sync.RWMutex
	gen    Generator
	chunks map[taxonomy.ChunkPos]*Chunk
	dirty  map[taxonomy.ChunkPos]struct{}
}

// NewWorld creates an empty World backed by the given terrain generator.
func NewWorld(gen Generator) *World {
	return &World{
		gen:    gen,
		chunks: make(map[taxonomy.ChunkPos]*Chunk),
		dirty:  make(map[taxonomy.ChunkPos]struct{}),
	}
}

// Load realizes a chunk from the generator if it isn't already loaded, and
// returns it. Called by the streaming package when a chunk enters the view
// radius; World itself never decides what should be loaded.
func (w *World) Load(pos taxonomy.ChunkPos) *Chunk {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadLocked(pos)
}

func (w *World) loadLocked(pos taxonomy.ChunkPos) *Chunk {
	if c, ok := w.chunks[pos]; ok {
		return c
	}
	c := &Chunk{Pos: pos}
	if w.gen != nil {
		c.blocks = w.gen.Generate(pos)
	}
	w.chunks[pos] = c
	return c
}

// Preload installs precomputed block data for a chunk that isn't already
// loaded. Used by the streaming package, whose worker pool computes chunk
// contents off the tick goroutine (per §5, workers never mutate World
// directly) and hands the finished array back for a single-threaded apply.
// A no-op returning the existing chunk if pos is already loaded.
func (w *World) Preload(pos taxonomy.ChunkPos, blocks [cellsPerChunk]taxonomy.Handle) *Chunk {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.chunks[pos]; ok {
		return c
	}
	c := &Chunk{Pos: pos, blocks: blocks}
	w.chunks[pos] = c
	return c
}

// Unload drops a chunk from memory. Callers are responsible for persisting
// any diff first.
func (w *World) Unload(pos taxonomy.ChunkPos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.chunks, pos)
	delete(w.dirty, pos)
}

// IsLoaded reports whether a chunk is currently resident.
func (w *World) IsLoaded(pos taxonomy.ChunkPos) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.chunks[pos]
	return ok
}

// Get returns the block at a world position and whether its chunk is
// loaded. An unloaded query returns (0, StatusUnloaded); 0 happens to equal
// taxonomy.AirHandle but callers must gate on the Status, never infer
// "unloaded" from the handle value.
func (w *World) Get(pos taxonomy.BlockPos) (taxonomy.Handle, Status) {
	cp := ChunkOf(pos)
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.chunks[cp]
	if !ok {
		return taxonomy.AirHandle, StatusUnloaded
	}
	lx, ly, lz := LocalOf(pos)
	return c.get(lx, ly, lz), StatusLoaded
}

// IsSolid reports whether the block at pos is anything other than air. The
// second return value is false if the chunk isn't loaded, in which case the
// bool return must be ignored (not treated as "not solid").
func (w *World) IsSolid(pos taxonomy.BlockPos) (solid bool, known bool) {
	h, status := w.Get(pos)
	if status == StatusUnloaded {
		return false, false
	}
	return h != taxonomy.AirHandle, true
}

// Set writes a block at a world position. A no-op (logged by the caller,
// since World has no logger of its own) if the owning chunk isn't loaded.
// Marks the owning chunk dirty, and the neighbor chunk dirty too if the
// mutation touches a chunk boundary, per §4.C2.
func (w *World) Set(pos taxonomy.BlockPos, h taxonomy.Handle) bool {
	cp := ChunkOf(pos)
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.chunks[cp]
	if !ok {
		return false
	}
	lx, ly, lz := LocalOf(pos)
	c.set(lx, ly, lz, h)
	w.dirty[cp] = struct{}{}

	for _, np := range boundaryNeighbors(lx, ly, lz, cp) {
		if _, ok := w.chunks[np]; ok {
			w.chunks[np].MarkDirty()
			w.dirty[np] = struct{}{}
		}
	}
	return true
}

// boundaryNeighbors returns the chunk coordinates of any neighbor chunks
// whose shared face a local position sits on, so edits near a chunk
// boundary invalidate both chunks' meshes.
func boundaryNeighbors(lx, ly, lz int32, cp taxonomy.ChunkPos) []taxonomy.ChunkPos {
	var out []taxonomy.ChunkPos
	if lx == 0 {
		out = append(out, taxonomy.ChunkPos{X: cp.X - 1, Y: cp.Y, Z: cp.Z})
	}
	if lx == Side-1 {
		out = append(out, taxonomy.ChunkPos{X: cp.X + 1, Y: cp.Y, Z: cp.Z})
	}
	if ly == 0 {
		out = append(out, taxonomy.ChunkPos{X: cp.X, Y: cp.Y - 1, Z: cp.Z})
	}
	if ly == Side-1 {
		out = append(out, taxonomy.ChunkPos{X: cp.X, Y: cp.Y + 1, Z: cp.Z})
	}
	if lz == 0 {
		out = append(out, taxonomy.ChunkPos{X: cp.X, Y: cp.Y, Z: cp.Z - 1})
	}
	if lz == Side-1 {
		out = append(out, taxonomy.ChunkPos{X: cp.X, Y: cp.Y, Z: cp.Z + 1})
	}
	return out
}

// ChunksInRadius returns every chunk coordinate within Chebyshev distance r
// of center, nearest first — the set the streaming package keeps loaded.
func ChunksInRadius(center taxonomy.ChunkPos, r int32) []taxonomy.ChunkPos {
	var out []taxonomy.ChunkPos
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				out = append(out, taxonomy.ChunkPos{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz})
			}
		}
	}
	dist := func(p taxonomy.ChunkPos) int32 {
		m := int32(0)
		for _, d := range [3]int32{p.X - center.X, p.Y - center.Y, p.Z - center.Z} {
			if d < 0 {
				d = -d
			}
			if d > m {
				m = d
			}
		}
		return m
	}
	sort.SliceStable(out, func(i, j int) bool { return dist(out[i]) < dist(out[j]) })
	return out
}

// TakeDirty returns every chunk coordinate mutated since the last call and
// clears the set, for a mesh builder to consume; no mesh builder in this
// module calls it.
func (w *World) TakeDirty() []taxonomy.ChunkPos {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]taxonomy.ChunkPos, 0, len(w.dirty))
	for p := range w.dirty {
		out = append(out, p)
		if c, ok := w.chunks[p]; ok {
			c.ClearDirty()
		}
	}
	w.dirty = make(map[taxonomy.ChunkPos]struct{})
	return out
}

// Loaded returns a snapshot of every currently loaded chunk coordinate.
func (w *World) Loaded() []taxonomy.ChunkPos {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]taxonomy.ChunkPos, 0, len(w.chunks))
	for p := range w.chunks {
		out = append(out, p)
	}
	return out
}

// Chunk returns the loaded chunk at pos, or nil if it isn't loaded. Used by
// pkg/save to read a chunk's contents when building a diff.
func (w *World) Chunk(pos taxonomy.ChunkPos) *Chunk {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chunks[pos]
}
