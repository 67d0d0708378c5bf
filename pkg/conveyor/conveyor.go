// Package conveyor implements the logistics network (spec §4.C9): per-tile
// item queues, neighbor-driven shape inference, and the per-tick advance
// with deterministic ordering and minimum item spacing.
package conveyor

import (
	"sort"

	"github.com/google/uuid"

	"github.com/foundrycraft/foundrycraft/pkg/inventory"
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
)

// Shape is the tile's merge/branch topology, inferred from its neighbors
// except for Splitter, which is an explicit placement choice.
type Shape int

const (
	Straight Shape = iota
	CornerLeft
	CornerRight
	TJunction
	Splitter
)

func (s Shape) String() string {
	switch s {
	case Straight:
		return "straight"
	case CornerLeft:
		return "corner_left"
	case CornerRight:
		return "corner_right"
	case TJunction:
		return "t_junction"
	case Splitter:
		return "splitter"
	default:
		return "unknown"
	}
}

// Item is one item riding a conveyor, with its progress toward the tile's
// output face in [0, 1].
type Item struct {
	Type     taxonomy.Handle
	Progress float64
}

// Tile is one conveyor's full state. Items are kept head-first: Items[0] is
// nearest the output.
type Tile struct {
	// ID identifies this tile across a save/load round trip independent of
	// Pos, the same stable-identity hook machine.Machine carries.
	ID              uuid.UUID
	Pos             taxonomy.BlockPos
	Facing          taxonomy.Direction // the direction chosen at placement
	Shape           Shape
	OutputDirection taxonomy.Direction // never derived from Facing at transfer time
	Items           []Item
	Capacity        int
	ExplicitSplit   bool // true once the player configures this tile as a Splitter
	splitCounter    int  // round-robin state for Splitter, persisted across ticks
}

// MachineInput is the narrow slice of pkg/machine's manager a conveyor
// needs to attempt a hand-off into a machine's input face.
type MachineInput interface {
	TryAcceptInput(pos taxonomy.BlockPos, item taxonomy.Handle) bool
}

// Network owns every conveyor tile, keyed by position (at most one per
// block, per §3's ownership summary).
type Network struct {
	tiles map[taxonomy.BlockPos]*Tile

	World     *voxel.World
	Reg       *taxonomy.Registry
	Inventory *inventory.Store
	Machines  MachineInput

	// Speed is belt progress per tick (v in the spec); Spacing is the
	// minimum progress gap δ enforced between adjacent items.
	Speed   float64
	Spacing float64

	defaultCapacity int
}

// NewNetwork builds an empty conveyor network.
func NewNetwork(world *voxel.World, reg *taxonomy.Registry, inv *inventory.Store, machines MachineInput, speed, spacing float64, capacity int) *Network {
	return &Network{
		tiles:           make(map[taxonomy.BlockPos]*Tile),
		World:           world,
		Reg:             reg,
		Inventory:       inv,
		Machines:        machines,
		Speed:           speed,
		Spacing:         spacing,
		defaultCapacity: capacity,
	}
}

// Create adds a new conveyor tile facing the given direction and infers its
// shape from whatever neighbors already exist.
func (n *Network) Create(pos taxonomy.BlockPos, facing taxonomy.Direction) {
	t := &Tile{
		ID:              uuid.New(),
		Pos:             pos,
		Facing:          facing,
		OutputDirection: facing,
		Capacity:        n.defaultCapacity,
	}
	n.tiles[pos] = t
	n.reinferOne(pos)
}

// SetSplitter explicitly marks pos as a Splitter, overriding neighbor
// inference until the tile or a neighbor changes again.
func (n *Network) SetSplitter(pos taxonomy.BlockPos, isSplitter bool) bool {
	t, ok := n.tiles[pos]
	if !ok {
		return false
	}
	t.ExplicitSplit = isSplitter
	n.reinferOne(pos)
	return true
}

// RemoveAt deletes the tile at pos, if any, returning whether one existed.
func (n *Network) RemoveAt(pos taxonomy.BlockPos) bool {
	if _, ok := n.tiles[pos]; !ok {
		return false
	}
	delete(n.tiles, pos)
	return true
}

// Tile returns the tile at pos, or nil.
func (n *Network) Tile(pos taxonomy.BlockPos) *Tile {
	return n.tiles[pos]
}

// ReinferAround recomputes shape/output for pos and its four horizontal
// neighbors, per §4.C8's place/break contract ("re-infer shape for this
// conveyor and its four horizontal neighbors").
func (n *Network) ReinferAround(pos taxonomy.BlockPos) {
	n.reinferOne(pos)
	for _, d := range []taxonomy.Direction{taxonomy.North, taxonomy.South, taxonomy.East, taxonomy.West} {
		n.reinferOne(pos.Add(d.Offset()))
	}
}

func (n *Network) reinferOne(pos taxonomy.BlockPos) {
	t, ok := n.tiles[pos]
	if !ok {
		return
	}
	if t.ExplicitSplit {
		t.Shape = Splitter
		return
	}

	d := t.Facing
	rightIn := n.inputFrom(pos, d.Right())
	leftIn := n.inputFrom(pos, d.Left())

	switch {
	case rightIn && leftIn:
		t.Shape = TJunction
		t.OutputDirection = d
	case rightIn:
		t.Shape = CornerLeft
		t.OutputDirection = d.Left()
	case leftIn:
		t.Shape = CornerRight
		t.OutputDirection = d.Right()
	default:
		t.Shape = Straight
		t.OutputDirection = d
	}
}

// inputFrom reports whether the neighbor in horizontal direction side (from
// pos) is a conveyor whose output points back at pos.
func (n *Network) inputFrom(pos taxonomy.BlockPos, side taxonomy.Direction) bool {
	neighborPos := pos.Add(side.Offset())
	neighbor, ok := n.tiles[neighborPos]
	if !ok {
		return false
	}
	return neighbor.OutputDirection == side.Opposite()
}

// splitterOutputs returns the two candidate exits a Splitter alternates
// between: left and right of its facing.
func (t *Tile) splitterOutputs() [2]taxonomy.Direction {
	return [2]taxonomy.Direction{t.Facing.Left(), t.Facing.Right()}
}

// nextOutputDirection resolves which direction this tick's transfer should
// target, advancing the splitter's round-robin counter if applicable.
func (t *Tile) nextOutputDirection() taxonomy.Direction {
	if t.Shape != Splitter {
		return t.OutputDirection
	}
	outs := t.splitterOutputs()
	d := outs[t.splitCounter%2]
	t.splitCounter++
	return d
}

// Tick advances every conveyor by one simulation step, in a deterministic
// order: by OutputDirection first, then within one direction the tile
// furthest along that direction first (so along a straight run consumers
// update before producers within a tick), tiebroken by world position, per
// §4.C9. Tiles with different output directions are ordered by direction
// value alone.
func (n *Network) Tick() {
	order := n.tickOrder()
	for _, pos := range order {
		t := n.tiles[pos]
		n.advance(t)
	}
}

func (n *Network) tickOrder() []taxonomy.BlockPos {
	out := make([]taxonomy.BlockPos, 0, len(n.tiles))
	for pos := range n.tiles {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := n.tiles[out[i]], n.tiles[out[j]]
		if ti.OutputDirection != tj.OutputDirection {
			return ti.OutputDirection < tj.OutputDirection
		}
		o := ti.OutputDirection.Offset()
		ai := o.X*out[i].X + o.Y*out[i].Y + o.Z*out[i].Z
		aj := o.X*out[j].X + o.Y*out[j].Y + o.Z*out[j].Z
		if ai != aj {
			return ai > aj
		}
		return blockPosLess(out[i], out[j])
	})
	return out
}

func blockPosLess(a, b taxonomy.BlockPos) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// advance processes one tile's items from head to tail, per the per-tick
// advance algorithm in §4.C9.
func (n *Network) advance(t *Tile) {
	for i := 0; i < len(t.Items); i++ {
		it := &t.Items[i]

		ceiling := 1.0
		if i > 0 {
			ceiling = t.Items[i-1].Progress - n.Spacing
		}
		target := it.Progress + n.Speed
		if target > ceiling {
			target = ceiling
		}
		if target > 1.0 {
			target = 1.0
		}
		if target < it.Progress {
			target = it.Progress // never move backward
		}
		it.Progress = target

		if i == 0 && it.Progress >= 1.0 {
			n.tryTransfer(t)
		}
	}
}

// tryTransfer attempts to move the head item off t onto whatever lies in
// its (possibly splitter-resolved) output direction.
func (n *Network) tryTransfer(t *Tile) {
	if len(t.Items) == 0 {
		return
	}
	head := t.Items[0]
	outDir := t.nextOutputDirection()
	destPos := t.Pos.Add(outDir.Offset())

	if dest, ok := n.tiles[destPos]; ok {
		if n.headCapacityAvailable(dest) {
			t.Items = t.Items[1:]
			dest.Items = append(dest.Items, Item{Type: head.Type, Progress: 0})
			n.sortTailFirst(dest)
		}
		return
	}

	h, status := n.World.Get(destPos)
	if status == voxel.StatusUnloaded || h == taxonomy.AirHandle {
		return // nothing there: blocked, backpressure propagates
	}

	def := n.Reg.Definition(h)
	switch def.Category {
	case taxonomy.CategoryMachine:
		if n.Machines != nil && n.Machines.TryAcceptInput(destPos, head.Type) {
			t.Items = t.Items[1:]
		}
	case taxonomy.CategoryLogistics:
		if def.ID == "foundrycraft:delivery_platform" {
			n.Inventory.Add(head.Type, 1)
			t.Items = t.Items[1:]
		}
	}
}

// headCapacityAvailable reports whether dest has "spare head capacity":
// per §4.C9, a transfer is allowed when dest isn't at capacity and its head
// item (nearest its own output) has progress ≤ 1−δ, meaning the whole chain
// still has room to shift forward rather than being jammed at the exit.
func (n *Network) headCapacityAvailable(dest *Tile) bool {
	if len(dest.Items) >= dest.Capacity {
		return false
	}
	if len(dest.Items) == 0 {
		return true
	}
	head := dest.Items[0]
	return head.Progress <= 1.0-n.Spacing
}

// sortTailFirst keeps Items ordered head-first (ascending progress from the
// tail to 1.0 at the head) after an insertion at the tail.
func (n *Network) sortTailFirst(t *Tile) {
	sort.Slice(t.Items, func(i, j int) bool {
		return t.Items[i].Progress > t.Items[j].Progress
	})
}

// Record is the persisted shape of one conveyor tile, used by pkg/save.
type Record struct {
	ID              uuid.UUID
	Pos             taxonomy.BlockPos
	Facing          taxonomy.Direction
	Shape           Shape
	OutputDirection taxonomy.Direction
	ExplicitSplit   bool
	SplitCounter    int
	Items           []Item
}

// Snapshot returns every tile's persisted state, in deterministic position
// order.
func (n *Network) Snapshot() []Record {
	out := make([]Record, 0, len(n.tiles))
	for _, t := range n.tiles {
		out = append(out, Record{
			ID:              t.ID,
			Pos:             t.Pos,
			Facing:          t.Facing,
			Shape:           t.Shape,
			OutputDirection: t.OutputDirection,
			ExplicitSplit:   t.ExplicitSplit,
			SplitCounter:    t.splitCounter,
			Items:           append([]Item(nil), t.Items...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return blockPosLess(out[i].Pos, out[j].Pos) })
	return out
}

// Restore replaces every tile with the persisted record set. Shapes are
// taken as given rather than re-inferred, since a record already reflects
// whatever its neighbors were when saved.
func (n *Network) Restore(records []Record) {
	n.tiles = make(map[taxonomy.BlockPos]*Tile, len(records))
	for _, r := range records {
		id := r.ID
		if id == uuid.Nil {
			id = uuid.New() // pre-UUID saves carry no identity; mint one on load
		}
		n.tiles[r.Pos] = &Tile{
			ID:              id,
			Pos:             r.Pos,
			Facing:          r.Facing,
			Shape:           r.Shape,
			OutputDirection: r.OutputDirection,
			Capacity:        n.defaultCapacity,
			ExplicitSplit:   r.ExplicitSplit,
			splitCounter:    r.SplitCounter,
			Items:           append([]Item(nil), r.Items...),
		}
	}
}

// Enqueue places a new item at the tail of the tile at pos (progress 0),
// used by miners/machines emitting onto an adjacent conveyor. Returns false
// if pos has no tile or the tile lacks spare head capacity (see
// headCapacityAvailable).
func (n *Network) Enqueue(pos taxonomy.BlockPos, item taxonomy.Handle) bool {
	t, ok := n.tiles[pos]
	if !ok || !n.headCapacityAvailable(t) {
		return false
	}
	t.Items = append(t.Items, Item{Type: item, Progress: 0})
	n.sortTailFirst(t)
	return true
}
