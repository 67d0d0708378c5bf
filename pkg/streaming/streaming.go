// Package streaming implements chunk streaming (spec §4.C4): keeping every
// chunk within the view radius of the player's current chunk loaded, and
// unloading everything outside it. Generation for newly-needed chunks runs
// concurrently on an errgroup; per §5's concurrency model, the workers only
// compute block arrays, and the results are merged back into voxel.World at
// a single point on the calling (tick) goroutine.
package streaming

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
)

// cellsPerChunk mirrors voxel's private chunk-cell count the same way
// pkg/terrain does, exploiting Go's structural array typing so this package
// can hand results straight to World.Preload without voxel exporting it.
const cellsPerChunk = voxel.Side * voxel.Side * voxel.Side

// FallibleGenerator is an optional extension a Generator may implement to
// report a transient generation failure. The built-in procedural
// terrain.Generator never fails (voxel.Generator has no error return), but
// this keeps the retry/escalation bookkeeping below real: a future
// disk-backed or networked chunk source can fail, and Manager already
// handles it without changing its Sync loop.
type FallibleGenerator interface {
	TryGenerate(pos taxonomy.ChunkPos) ([cellsPerChunk]taxonomy.Handle, error)
}

// ChunkGenerationError is returned once a chunk has failed to generate
// MaxRetries times in a row, per §7's "streaming failures retry with a
// per-chunk counter, escalate to fatal after N."
type ChunkGenerationError struct {
	Pos     taxonomy.ChunkPos
	Retries int
	Err     error
}

func (e *ChunkGenerationError) Error() string {
	return fmt.Sprintf("streaming: chunk %v failed to generate after %d attempts: %v", e.Pos, e.Retries, e.Err)
}

func (e *ChunkGenerationError) Unwrap() error { return e.Err }

// Manager tracks which chunks should be resident around the player's
// current chunk and drives loading/unloading as that chunk changes.
type Manager struct {
	World      *voxel.World
	Gen        voxel.Generator
	ViewRadius int32
	MaxRetries int

	// Limiter throttles job submission in Sync. Exported so a caller that
	// knows its worker pool's real capacity can replace it; NewManager
	// fills in a sensible default.
	Limiter *rate.Limiter

	failures map[taxonomy.ChunkPos]int
}

// NewManager builds a streaming manager for world, generating new chunks
// with gen and keeping every chunk within viewRadius (Chebyshev distance,
// matching voxel.ChunksInRadius) of the tracked center loaded.
func NewManager(world *voxel.World, gen voxel.Generator, viewRadius int32, maxRetries int) *Manager {
	// One full view-radius volume's worth of burst capacity means the
	// initial load (or any single Sync call needing at most one full
	// volume) never waits; only sustained demand beyond that — a radius
	// bump and then another before the bucket refills — gets throttled.
	volume := (2*int(viewRadius) + 1)
	volume = volume * volume * volume
	return &Manager{
		World:      world,
		Gen:        gen,
		ViewRadius: viewRadius,
		MaxRetries: maxRetries,
		Limiter:    rate.NewLimiter(rate.Limit(volume), volume),
		failures:   make(map[taxonomy.ChunkPos]int),
	}
}

// Required returns the chunk set that should be resident for center,
// nearest first.
func (m *Manager) Required(center taxonomy.ChunkPos) []taxonomy.ChunkPos {
	return voxel.ChunksInRadius(center, m.ViewRadius)
}

type chunkResult struct {
	pos    taxonomy.ChunkPos
	blocks [cellsPerChunk]taxonomy.Handle
	err    error
}

// Sync loads every chunk newly required around center and unloads every
// loaded chunk no longer within range. Generation for the newly-required
// set runs concurrently and Sync waits for all of it before applying the
// results; cancelling ctx discards in-flight results rather than applying
// them. Returns a non-nil error only once some chunk has
// exhausted MaxRetries — callers should treat that as the streaming-failure
// escalation path of §7, not a reason to stop calling Sync.
func (m *Manager) Sync(ctx context.Context, center taxonomy.ChunkPos) error {
	required := m.Required(center)
	wanted := make(map[taxonomy.ChunkPos]bool, len(required))
	var need []taxonomy.ChunkPos
	for _, p := range required {
		wanted[p] = true
		if !m.World.IsLoaded(p) {
			need = append(need, p)
		}
	}

	for _, p := range m.World.Loaded() {
		if !wanted[p] {
			m.World.Unload(p)
			delete(m.failures, p)
		}
	}

	if len(need) == 0 {
		return nil
	}

	results := make([]chunkResult, len(need))
	g, gctx := errgroup.WithContext(ctx)
	for i, pos := range need {
		i, pos := i, pos
		g.Go(func() error {
			if m.Limiter != nil {
				if err := m.Limiter.Wait(gctx); err != nil {
					return err
				}
			} else {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
			}
			results[i] = m.generate(pos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil // job discarded, not a generation failure
		}
		return err
	}

	var fatal []error
	for _, r := range results {
		if !wanted[r.pos] {
			continue // left the radius while its job was in flight
		}
		if r.err != nil {
			m.failures[r.pos]++
			if m.failures[r.pos] >= m.MaxRetries {
				fatal = append(fatal, &ChunkGenerationError{Pos: r.pos, Retries: m.failures[r.pos], Err: r.err})
			}
			continue
		}
		m.World.Preload(r.pos, r.blocks)
		delete(m.failures, r.pos)
	}

	sort.Slice(fatal, func(i, j int) bool {
		return fatal[i].(*ChunkGenerationError).Pos.X < fatal[j].(*ChunkGenerationError).Pos.X
	})
	if len(fatal) > 0 {
		return errors.Join(fatal...)
	}
	return nil
}

func (m *Manager) generate(pos taxonomy.ChunkPos) chunkResult {
	if fg, ok := m.Gen.(FallibleGenerator); ok {
		blocks, err := fg.TryGenerate(pos)
		return chunkResult{pos: pos, blocks: blocks, err: err}
	}
	return chunkResult{pos: pos, blocks: m.Gen.Generate(pos)}
}
