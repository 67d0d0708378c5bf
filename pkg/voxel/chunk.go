// Package voxel implements the chunked block-grid world store (spec §4.C2):
// a map of loaded chunks keyed by chunk coordinate, queried and mutated by
// world position, with dirty tracking for the mesher.
package voxel

import "github.com/foundrycraft/foundrycraft/pkg/taxonomy"

// Side is the cube edge length of a chunk, in blocks. 16 matches the
// teacher's chunk section size.
const Side = 16

// cellsPerChunk is the number of blocks in one chunk.
const cellsPerChunk = Side * Side * Side

// Chunk holds one cubic region's worth of blocks. There is exactly one
// representation per block (a flat Handle array — no parallel maps), per
// §3's "Exactly one representation per block" invariant.
type Chunk struct {
	Pos    taxonomy.ChunkPos
	blocks [cellsPerChunk]taxonomy.Handle
	// dirty is true iff a mutation has occurred since the mesher last
	// consumed this chunk.
	dirty bool
}

// localIndex converts a block's local (0..Side-1) coordinates into the
// flat block array index. Y varies slowest to keep a horizontal slice
// (a Y layer) contiguous, matching the teacher's section layout.
func localIndex(lx, ly, lz int32) int {
	return int((ly*Side+lz)*Side + lx)
}

func (c *Chunk) get(lx, ly, lz int32) taxonomy.Handle {
	return c.blocks[localIndex(lx, ly, lz)]
}

func (c *Chunk) set(lx, ly, lz int32, h taxonomy.Handle) {
	c.blocks[localIndex(lx, ly, lz)] = h
	c.dirty = true
}

// MarkDirty flags the chunk as needing a new mesh.
func (c *Chunk) MarkDirty() {
	c.dirty = true
}

// Dirty reports whether this chunk needs remeshing.
func (c *Chunk) Dirty() bool {
	return c.dirty
}

// ClearDirty resets the dirty flag; called by World.TakeDirty.
func (c *Chunk) ClearDirty() {
	c.dirty = false
}

// Blocks returns a read-only snapshot copy of the chunk's block array, used
// by pkg/save to compare a live chunk against its generated baseline.
func (c *Chunk) Blocks() [cellsPerChunk]taxonomy.Handle {
	return c.blocks
}

// ChunkOf returns the chunk coordinate containing a world position.
func ChunkOf(p taxonomy.BlockPos) taxonomy.ChunkPos {
	return taxonomy.ChunkPos{X: floorDiv(p.X, Side), Y: floorDiv(p.Y, Side), Z: floorDiv(p.Z, Side)}
}

// LocalOf returns a world position's local (within-chunk) coordinates.
func LocalOf(p taxonomy.BlockPos) (lx, ly, lz int32) {
	return floorMod(p.X, Side), floorMod(p.Y, Side), floorMod(p.Z, Side)
}

// Origin returns the world position of this chunk's (0,0,0) corner.
func Origin(c taxonomy.ChunkPos) taxonomy.BlockPos {
	return taxonomy.BlockPos{X: c.X * Side, Y: c.Y * Side, Z: c.Z * Side}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
