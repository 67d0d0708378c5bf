package taxonomy

import "fmt"

// AirHandle is Handle(0): the first registered definition is air, so a
// zero-valued Handle reads as air. Unloaded chunks are reported through
// voxel.Status, not through a Handle value.
const (
	AirHandle Handle = 0
)

// Registry is the two-way mapping between string IDs, numeric Handles, and
// Definitions. It is built once at startup and treated as read-only
// afterward, so it carries no locking of its own.
type Registry struct {
	defs    []Definition     // indexed by Handle
	byID    map[string]Handle
	drops   []Handle // indexed by Handle; AirHandle means "drops nothing"
	hasDrop []bool
}

// NewRegistry builds a Registry from an ordered list of definitions. The
// first definition's position becomes Handle(0) and must be the air
// definition (DisplayName "Air", not placeable, no drop) — callers normally
// pass DefaultDefinitions() unmodified.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{
		defs:    make([]Definition, len(defs)),
		byID:    make(map[string]Handle, len(defs)),
		drops:   make([]Handle, len(defs)),
		hasDrop: make([]bool, len(defs)),
	}
	copy(r.defs, defs)
	for i, d := range defs {
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate id %q", d.ID)
		}
		r.byID[d.ID] = Handle(i)
	}
	for i, d := range defs {
		if d.DropsID == "" {
			continue
		}
		h, ok := r.byID[d.DropsID]
		if !ok {
			return nil, fmt.Errorf("taxonomy: %q drops unknown id %q", d.ID, d.DropsID)
		}
		r.drops[i] = h
		r.hasDrop[i] = true
	}
	return r, nil
}

// NewDefaultRegistry builds the built-in catalogue. It panics on error
// because the built-in catalogue is a programming invariant, not user
// input — analogous to a package-level sync.Once init that cannot fail in
// a correctly built binary.
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup resolves a canonical string ID to its Handle.
func (r *Registry) Lookup(id string) (Handle, bool) {
	h, ok := r.byID[id]
	return h, ok
}

// MustLookup is Lookup but panics on an unknown ID; only safe for
// compile-time-known IDs (e.g. resolving DefaultDefinitions entries during
// init), never for save-file or user input.
func (r *Registry) MustLookup(id string) Handle {
	h, ok := r.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("taxonomy: unknown id %q", id))
	}
	return h
}

// Definition returns the Definition for a Handle. Panics on an
// out-of-range handle, which can only happen from memory corruption or a
// Handle minted by a different Registry.
func (r *Registry) Definition(h Handle) Definition {
	return r.defs[h]
}

// ID returns the canonical string ID for a Handle.
func (r *Registry) ID(h Handle) string {
	return r.defs[h].ID
}

// Drop returns the Handle dropped when a block of kind h breaks, and
// whether it drops anything at all.
func (r *Registry) Drop(h Handle) (Handle, bool) {
	return r.drops[h], r.hasDrop[h]
}

// Len returns the number of registered kinds, i.e. one past the highest
// valid Handle.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Handles returns every registered Handle in stable registration order —
// the order §3 requires global-inventory iteration to follow.
func (r *Registry) Handles() []Handle {
	out := make([]Handle, len(r.defs))
	for i := range out {
		out[i] = Handle(i)
	}
	return out
}
