// Package building implements the block break/place pipeline (spec §4.C8),
// generalized from the teacher's handleBlockBreak/handleBlockPlacement:
// write the block, then (for a multi-record structure — here a machine or
// conveyor rather than a door half) create or remove its bookkeeping record.
// Break broadcasts its event before mutating world state; Place broadcasts
// after the block and its record are written.
package building

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/foundrycraft/foundrycraft/pkg/inventory"
	"github.com/foundrycraft/foundrycraft/pkg/kinematics"
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
)

// Sentinel failures, wrapped with github.com/pkg/errors at the call site so
// callers can errors.Is against the sentinel while the debug log still gets
// a stack trace.
var (
	ErrOutOfReach         = errors.New("building: target out of reach")
	ErrNotLoaded          = errors.New("building: target chunk not loaded")
	ErrOccupied           = errors.New("building: target position is not air")
	ErrNotPlaceable       = errors.New("building: item is not placeable")
	ErrInsufficientItems  = errors.New("building: insufficient items held")
	ErrCollidesWithPlayer = errors.New("building: placement collides with the player")
	ErrTargetNotBreakable = errors.New("building: target block cannot be broken")
)

// EventKind distinguishes the two effects the pipeline emits.
type EventKind int

const (
	BlockBroken EventKind = iota
	BlockPlaced
)

// Event is pushed to Pipeline's Events channel (if set) once per successful
// mutation, for the console collaborator / future renderer to react to.
type Event struct {
	Kind   EventKind
	Pos    taxonomy.BlockPos
	Block  taxonomy.Handle
	Facing taxonomy.Direction
}

// MachineRegistry is the slice of pkg/machine's manager that building needs,
// kept as an interface so building never imports machine.
type MachineRegistry interface {
	Create(pos taxonomy.BlockPos, kind taxonomy.Handle, facing taxonomy.Direction)
	RemoveAt(pos taxonomy.BlockPos) bool
}

// ConveyorRegistry is the equivalent narrow slice of pkg/conveyor's network.
type ConveyorRegistry interface {
	Create(pos taxonomy.BlockPos, facing taxonomy.Direction)
	RemoveAt(pos taxonomy.BlockPos) bool
	ReinferAround(pos taxonomy.BlockPos)
}

// Pipeline wires together everything Break/Place need to validate and apply
// a mutation.
type Pipeline struct {
	World     *voxel.World
	Reg       *taxonomy.Registry
	Inventory *inventory.Store
	Machines  MachineRegistry
	Conveyors ConveyorRegistry
	Events    chan<- Event

	ReachDistance float32
}

func (p *Pipeline) emit(e Event) {
	if p.Events == nil {
		return
	}
	select {
	case p.Events <- e:
	default:
	}
}

func withinReach(playerPos mgl32.Vec3, target taxonomy.BlockPos, reach float32) bool {
	center := mgl32.Vec3{float32(target.X) + 0.5, float32(target.Y) + 0.5, float32(target.Z) + 0.5}
	d := center.Sub(playerPos)
	return d.Len() <= reach
}

// Break validates and applies breaking the block at pos. creative suppresses
// the item drop (matches the teacher's "in creative mode, don't give items
// on break"). Returns the handle that was broken and any drop produced.
func (p *Pipeline) Break(playerPos mgl32.Vec3, pos taxonomy.BlockPos, creative bool) (broken taxonomy.Handle, drop taxonomy.Handle, dropped bool, err error) {
	if !withinReach(playerPos, pos, p.ReachDistance) {
		return 0, 0, false, errors.WithStack(ErrOutOfReach)
	}

	h, status := p.World.Get(pos)
	if status == voxel.StatusUnloaded {
		return 0, 0, false, errors.WithStack(ErrNotLoaded)
	}
	if h == taxonomy.AirHandle {
		return 0, 0, false, errors.WithStack(ErrTargetNotBreakable)
	}

	def := p.Reg.Definition(h)

	// Broadcast before mutating, so any listener still observes the
	// pre-break block at this position — ported verbatim from the
	// teacher's ordering rationale in handleBlockBreak.
	p.emit(Event{Kind: BlockBroken, Pos: pos, Block: h})

	p.World.Set(pos, taxonomy.AirHandle)

	switch {
	case def.Category == taxonomy.CategoryMachine:
		p.Machines.RemoveAt(pos)
	case def.ID == "foundrycraft:conveyor":
		p.Conveyors.RemoveAt(pos)
		p.Conveyors.ReinferAround(pos)
	}

	if creative {
		return h, 0, false, nil
	}
	if d, ok := p.Reg.Drop(h); ok {
		p.Inventory.Add(d, 1)
		return h, d, true, nil
	}
	return h, 0, false, nil
}

// Place validates and applies placing item at placePos, facing derived from
// the player's yaw for machines and conveyors.
func (p *Pipeline) Place(playerPos mgl32.Vec3, placePos taxonomy.BlockPos, item taxonomy.Handle, yaw float64) error {
	if !withinReach(playerPos, placePos, p.ReachDistance) {
		return errors.WithStack(ErrOutOfReach)
	}

	h, status := p.World.Get(placePos)
	if status == voxel.StatusUnloaded {
		return errors.WithStack(ErrNotLoaded)
	}
	if h != taxonomy.AirHandle {
		return errors.WithStack(ErrOccupied)
	}

	def := p.Reg.Definition(item)
	if !def.Placeable {
		return errors.WithStack(ErrNotPlaceable)
	}
	if !p.Inventory.Has(item, 1) {
		return errors.WithStack(ErrInsufficientItems)
	}
	if aabbIntersectsBlock(playerPos, placePos) {
		return errors.WithStack(ErrCollidesWithPlayer)
	}

	p.Inventory.Remove(item, 1)
	p.World.Set(placePos, item)

	facing := taxonomy.DirectionFromYaw(yaw)

	switch {
	case def.Category == taxonomy.CategoryMachine:
		p.Machines.Create(placePos, item, facing)
	case def.ID == "foundrycraft:conveyor":
		p.Conveyors.Create(placePos, facing)
		p.Conveyors.ReinferAround(placePos)
	}

	p.emit(Event{Kind: BlockPlaced, Pos: placePos, Block: item, Facing: facing})
	return nil
}

// aabbIntersectsBlock reports whether the player's AABB (centered
// horizontally on playerPos, resting on it vertically) overlaps the unit
// cube at pos.
func aabbIntersectsBlock(playerPos mgl32.Vec3, pos taxonomy.BlockPos) bool {
	minX := float64(playerPos[0]) - kinematics.PlayerWidth/2
	maxX := float64(playerPos[0]) + kinematics.PlayerWidth/2
	minY := float64(playerPos[1])
	maxY := float64(playerPos[1]) + kinematics.PlayerHeight
	minZ := float64(playerPos[2]) - kinematics.PlayerWidth/2
	maxZ := float64(playerPos[2]) + kinematics.PlayerWidth/2

	bx0, bx1 := float64(pos.X), float64(pos.X)+1
	by0, by1 := float64(pos.Y), float64(pos.Y)+1
	bz0, bz1 := float64(pos.Z), float64(pos.Z)+1

	return overlaps(minX, maxX, bx0, bx1) && overlaps(minY, maxY, by0, by1) && overlaps(minZ, maxZ, bz0, bz1)
}

func overlaps(aMin, aMax, bMin, bMax float64) bool {
	return aMin < bMax && aMax > bMin
}
