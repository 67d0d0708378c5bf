// Package inventory implements the player's global item store (spec §4.C7):
// a single map[Handle]uint32 touched only from the simulation tick goroutine,
// so it needs no locking of its own.
package inventory

import (
	"math"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

// Changed is pushed onto the channel given to NewStore (if any) whenever Add,
// Remove or Clear writes a count. pkg/quest does not consume it; it reads
// counts through Has on every evaluation.
type Changed struct {
	Item  taxonomy.Handle
	Count uint32 // new total, not the delta
}

// Store is the player's inventory: how many of each registered item they
// hold. There is no slot model — per spec.md's "simplified, slotless"
// design note — only counts keyed by kind.
type Store struct {
	counts map[taxonomy.Handle]uint32
	order  []taxonomy.Handle // registration order, for stable Iter
	events chan<- Changed
}

// NewStore creates an empty inventory. events may be nil if nothing needs
// to observe mutations (e.g. in tests).
func NewStore(reg *taxonomy.Registry, events chan<- Changed) *Store {
	s := &Store{
		counts: make(map[taxonomy.Handle]uint32),
		events: events,
	}
	if reg != nil {
		s.order = reg.Handles()
	}
	return s
}

// Count returns how many of item the player holds.
func (s *Store) Count(item taxonomy.Handle) uint32 {
	return s.counts[item]
}

// Add increases item's count by n, saturating at math.MaxUint32 rather than
// wrapping. Returns the new total.
func (s *Store) Add(item taxonomy.Handle, n uint32) uint32 {
	cur := s.counts[item]
	next := cur + n
	if next < cur { // overflow
		next = math.MaxUint32
	}
	s.counts[item] = next
	s.emit(item, next)
	return next
}

// Remove decreases item's count by n. Returns false without mutating
// anything if the store holds fewer than n.
func (s *Store) Remove(item taxonomy.Handle, n uint32) bool {
	cur := s.counts[item]
	if cur < n {
		return false
	}
	next := cur - n
	s.counts[item] = next
	s.emit(item, next)
	return true
}

// Has reports whether the store holds at least n of item.
func (s *Store) Has(item taxonomy.Handle, n uint32) bool {
	return s.counts[item] >= n
}

func (s *Store) emit(item taxonomy.Handle, total uint32) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- Changed{Item: item, Count: total}:
	default:
		// A full channel means the consumer is behind, not that the event
		// should block the tick loop. Count/Has/Iter always report the
		// current total, so dropping this notification is safe.
	}
}

// Iter calls fn for every registered item and its count, in registry
// (stable) order, per §4.C7's "Iteration is stable by BlockType
// enumeration order".
func (s *Store) Iter(fn func(item taxonomy.Handle, count uint32)) {
	for _, h := range s.order {
		fn(h, s.counts[h])
	}
}

// Clear empties every count, used by the ClearInventory intent. Iter still
// visits every registered item afterward, just with all counts at zero.
func (s *Store) Clear() {
	for h := range s.counts {
		s.counts[h] = 0
		s.emit(h, 0)
	}
}

// Snapshot returns a copy of every nonzero count, keyed by item. Used by
// pkg/save to serialize the inventory.
func (s *Store) Snapshot() map[taxonomy.Handle]uint32 {
	out := make(map[taxonomy.Handle]uint32, len(s.counts))
	for h, c := range s.counts {
		if c > 0 {
			out[h] = c
		}
	}
	return out
}

// Restore replaces the store's contents, used when loading a save.
func (s *Store) Restore(counts map[taxonomy.Handle]uint32) {
	s.counts = make(map[taxonomy.Handle]uint32, len(counts))
	for h, c := range counts {
		s.counts[h] = c
	}
}
