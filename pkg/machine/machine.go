// Package machine implements the three crafting/extraction machines (spec
// §4.C10): Miner, Furnace, and Crusher. All three share one Manager and one
// per-tick output contract (TryTransferToOutput), resolving spec.md §9's
// Open Question in favor of uniform handling rather than three bespoke
// emit paths.
package machine

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/terrain"
)

// Role distinguishes the three machine kinds a Manager tracks. Delivery
// platforms have no slots or tick behavior of their own; pkg/conveyor
// applies their received items straight to the global inventory, so they
// never appear here.
type Role int

const (
	RoleMiner Role = iota
	RoleFurnace
	RoleCrusher
)

func (r Role) String() string {
	switch r {
	case RoleMiner:
		return "miner"
	case RoleFurnace:
		return "furnace"
	case RoleCrusher:
		return "crusher"
	default:
		return "unknown"
	}
}

// State is a machine's recoverable tick-to-tick condition. None of these
// are errors: a Blocked machine just waits for its condition to clear,
// matching §7's "machine/conveyor transient failures are pure state, never
// logged at tick frequency."
type State int

const (
	Idle State = iota
	Working
	Blocked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Working:
		return "working"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Machine is the mutable state of one placed miner, furnace, or crusher.
// Miner fields (Buffer, MineProgress) and crafter fields (Input/Fuel/Output
// slots, SmeltProgress, FuelRemaining) are both present on every Machine
// rather than split into separate types, since the Manager dispatches on
// Role and this keeps Snapshot/Restore for persistence a single shape.
type Machine struct {
	// ID identifies this machine across a save/load round trip independent
	// of Pos, so a future diff or log correlation can refer to "this miner"
	// even if position keying alone would be ambiguous after a move.
	ID     uuid.UUID
	Pos    taxonomy.BlockPos
	Role   Role
	Facing taxonomy.Direction
	State  State

	// Miner-only.
	Buffer       []taxonomy.Handle
	BufferCap    int
	MineProgress int

	// Furnace/Crusher slots.
	Input         taxonomy.Handle
	InputCount    uint32
	Fuel          taxonomy.Handle
	FuelCount     uint32
	Output        taxonomy.Handle
	OutputCount   uint32
	SmeltProgress float64
	FuelRemaining float64
}

// BiomeSource is the narrow slice of pkg/terrain's Generator a miner needs
// to resolve its footprint's biome. Kept as an interface so machine never
// depends on the concrete noise channels, only on the biome lookup.
type BiomeSource interface {
	Biome(x, z int) terrain.Kind
}

// ConveyorTarget is the narrow slice of pkg/conveyor's Network a machine
// needs to hand an item to the belt at position+facing.
type ConveyorTarget interface {
	Enqueue(pos taxonomy.BlockPos, item taxonomy.Handle) bool
}

// Interaction records which machine's UI is currently open, per §4.C10's
// "at most one machine may be interacted with at a time."
type Interaction struct {
	Pos  taxonomy.BlockPos
	Role Role
}

// Manager owns every placed miner/furnace/crusher, keyed by position.
type Manager struct {
	machines map[taxonomy.BlockPos]*Machine
	open     *Interaction

	Reg       *taxonomy.Registry
	Recipes   *taxonomy.RecipeBook
	Biome     BiomeSource
	Conveyors ConveyorTarget

	minerHandle, furnaceHandle, crusherHandle taxonomy.Handle

	TMine     int // ticks between ore rolls, T_mine
	BufferCap int // miner internal buffer size
}

// NewManager builds an empty machine manager. tMine and bufferCap come
// from internal/config so Scenario A's tick counts stay tunable in one
// place rather than hard-coded here.
func NewManager(reg *taxonomy.Registry, recipes *taxonomy.RecipeBook, biome BiomeSource, conveyors ConveyorTarget, tMine, bufferCap int) *Manager {
	miner, _ := reg.Lookup("foundrycraft:miner")
	furnace, _ := reg.Lookup("foundrycraft:furnace")
	crusher, _ := reg.Lookup("foundrycraft:crusher")
	return &Manager{
		machines:      make(map[taxonomy.BlockPos]*Machine),
		Reg:           reg,
		Recipes:       recipes,
		Biome:         biome,
		Conveyors:     conveyors,
		minerHandle:   miner,
		furnaceHandle: furnace,
		crusherHandle: crusher,
		TMine:         tMine,
		BufferCap:     bufferCap,
	}
}

func (mgr *Manager) roleOf(kind taxonomy.Handle) Role {
	switch kind {
	case mgr.furnaceHandle:
		return RoleFurnace
	case mgr.crusherHandle:
		return RoleCrusher
	default:
		return RoleMiner
	}
}

func (mgr *Manager) recipeKind(role Role) taxonomy.MachineKind {
	if role == RoleCrusher {
		return taxonomy.MachineCrusher
	}
	return taxonomy.MachineFurnace
}

// Create registers a new machine record, satisfying pkg/building's
// MachineRegistry interface. facing determines both the miner's emit side
// and the furnace/crusher's output side.
func (mgr *Manager) Create(pos taxonomy.BlockPos, kind taxonomy.Handle, facing taxonomy.Direction) {
	mgr.machines[pos] = &Machine{
		ID:        uuid.New(),
		Pos:       pos,
		Role:      mgr.roleOf(kind),
		Facing:    facing,
		BufferCap: mgr.BufferCap,
	}
}

// RemoveAt deletes the machine at pos, closing its interaction if it was
// the one open. Satisfies pkg/building's MachineRegistry interface.
func (mgr *Manager) RemoveAt(pos taxonomy.BlockPos) bool {
	if _, ok := mgr.machines[pos]; !ok {
		return false
	}
	delete(mgr.machines, pos)
	if mgr.open != nil && mgr.open.Pos == pos {
		mgr.open = nil
	}
	return true
}

// Machine returns the machine at pos, if any.
func (mgr *Manager) Machine(pos taxonomy.BlockPos) (*Machine, bool) {
	m, ok := mgr.machines[pos]
	return m, ok
}

// Open marks pos as the single currently-interacted-with machine, closing
// whatever was open before it.
func (mgr *Manager) Open(pos taxonomy.BlockPos) (Interaction, bool) {
	m, ok := mgr.machines[pos]
	if !ok {
		return Interaction{}, false
	}
	mgr.open = &Interaction{Pos: pos, Role: m.Role}
	return *mgr.open, true
}

// Close clears whatever interaction is open, restoring gameplay cursor
// state per §4.C10.
func (mgr *Manager) Close() {
	mgr.open = nil
}

// Interacting reports the currently open interaction, if any.
func (mgr *Manager) Interacting() (Interaction, bool) {
	if mgr.open == nil {
		return Interaction{}, false
	}
	return *mgr.open, true
}

// TryAcceptInput hands item into pos's input slot from an adjacent
// conveyor. Satisfies pkg/conveyor's MachineInput interface. Miners have no
// input face and always refuse.
func (mgr *Manager) TryAcceptInput(pos taxonomy.BlockPos, item taxonomy.Handle) bool {
	m, ok := mgr.machines[pos]
	if !ok || m.Role == RoleMiner {
		return false
	}
	if _, ok := mgr.Recipes.Lookup(mgr.recipeKind(m.Role), item); !ok {
		return false
	}
	return mgr.fill(&m.Input, &m.InputCount, item)
}

// LoadFuel hands item into pos's fuel slot, for the dedicated "place into
// fuel slot" UI intent of §4.C10 (never reachable from a conveyor). The
// caller is responsible for having already removed item from wherever it
// came from; LoadFuel only reports whether the slot accepted it.
func (mgr *Manager) LoadFuel(pos taxonomy.BlockPos, item taxonomy.Handle) bool {
	m, ok := mgr.machines[pos]
	if !ok || m.Role == RoleMiner {
		return false
	}
	if _, ok := taxonomy.FuelValue(mgr.Reg, item); !ok {
		return false
	}
	return mgr.fill(&m.Fuel, &m.FuelCount, item)
}

// fill is the shared "add one unit of item to this slot" check: the slot
// must be empty or already hold item, and adding one more must not exceed
// the item's stack size.
func (mgr *Manager) fill(slot *taxonomy.Handle, count *uint32, item taxonomy.Handle) bool {
	if *count > 0 && *slot != item {
		return false
	}
	def := mgr.Reg.Definition(item)
	next := uint64(*count) + 1
	if next > uint64(def.StackSize) {
		return false
	}
	*slot = item
	*count = uint32(next)
	return true
}

// Tick advances every machine by one simulation step, in deterministic
// position order so machine interactions (shared conveyor targets) resolve
// the same way every run given the same seed and intent stream.
func (mgr *Manager) Tick() {
	order := make([]taxonomy.BlockPos, 0, len(mgr.machines))
	for pos := range mgr.machines {
		order = append(order, pos)
	}
	sort.Slice(order, func(i, j int) bool { return blockPosLess(order[i], order[j]) })

	for _, pos := range order {
		m := mgr.machines[pos]
		switch m.Role {
		case RoleMiner:
			mgr.tickMiner(m)
		default:
			mgr.tickCrafter(m)
		}
	}
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

// tickMiner implements §4.C10's miner behavior: every TMine ticks, roll the
// footprint biome's dominant ore into the buffer; every tick, attempt to
// emit the buffer's head item onto the conveyor at position+facing.
func (mgr *Manager) tickMiner(m *Machine) {
	m.MineProgress++
	if m.MineProgress >= mgr.TMine {
		m.MineProgress = 0
		if oreID, ok := terrain.DominantOre(mgr.Biome.Biome(int(m.Pos.X), int(m.Pos.Z))); ok {
			if handle, ok := mgr.Reg.Lookup(oreID); ok && len(m.Buffer) < m.BufferCap {
				m.Buffer = append(m.Buffer, handle)
			}
		}
	}

	if len(m.Buffer) == 0 {
		m.State = Idle
	} else if len(m.Buffer) >= m.BufferCap {
		m.State = Blocked
	} else {
		m.State = Working
	}

	if len(m.Buffer) == 0 {
		return
	}
	mgr.TryTransferToOutput(m, m.Buffer[0], func() {
		m.Buffer = m.Buffer[1:]
	})
}

// tickCrafter implements the furnace/crusher behavior shared by both
// recipe-driven machines, per §4.C10's per-tick pseudocode.
func (mgr *Manager) tickCrafter(m *Machine) {
	kind := mgr.recipeKind(m.Role)
	recipe, hasRecipe := mgr.Recipes.Lookup(kind, m.Input)

	// Re-evaluate the start/resume condition whenever there's no work in
	// progress yet, or whenever the machine is sitting Blocked: a Blocked
	// machine with partial SmeltProgress must keep re-checking (rather than
	// rely on the Working branch below, which never runs while Blocked) so
	// that reloading fuel via LoadFuel can bring it back to Working instead
	// of deadlocking with SmeltProgress stuck above zero forever.
	if m.SmeltProgress == 0 || m.State == Blocked {
		switch {
		case !hasRecipe || m.InputCount == 0:
			m.State = Idle
		case recipe.RequiresFuel && m.FuelRemaining <= 0 && !mgr.consumeFuel(m):
			m.State = Blocked
		default:
			m.State = Working
		}
	}

	if m.State == Working && hasRecipe {
		if recipe.RequiresFuel {
			if m.FuelRemaining <= 0 && !mgr.consumeFuel(m) {
				m.State = Blocked
			} else {
				m.FuelRemaining--
			}
		}
		if m.State == Working {
			m.SmeltProgress++
			if m.SmeltProgress >= recipe.Time {
				if mgr.completeRecipe(m, recipe) {
					m.SmeltProgress = 0
				} else {
					m.SmeltProgress = recipe.Time // halt at completion, retain partial state
					m.State = Blocked
				}
			}
		}
	}

	if m.OutputCount == 0 {
		return
	}
	mgr.TryTransferToOutput(m, m.Output, func() {
		m.OutputCount--
		if m.OutputCount == 0 {
			m.Output = 0
		}
	})
}

// consumeFuel burns one unit from the fuel slot, refilling FuelRemaining.
// Reports false if the slot is empty or holds something that isn't fuel.
func (mgr *Manager) consumeFuel(m *Machine) bool {
	if m.FuelCount == 0 {
		return false
	}
	value, ok := taxonomy.FuelValue(mgr.Reg, m.Fuel)
	if !ok {
		return false
	}
	m.FuelCount--
	if m.FuelCount == 0 {
		m.Fuel = 0
	}
	m.FuelRemaining = value
	return true
}

// completeRecipe applies a finished craft to the output slot: it must be
// empty or already hold the recipe's output, and the addition must not
// overflow a uint32 count, otherwise the machine halts with partial
// progress retained (InventoryFull).
func (mgr *Manager) completeRecipe(m *Machine, recipe taxonomy.Recipe) bool {
	if m.OutputCount > 0 && m.Output != recipe.Output {
		return false
	}
	next := uint64(m.OutputCount) + uint64(recipe.OutputCount)
	if next > math.MaxUint32 {
		return false
	}
	m.InputCount--
	if m.InputCount == 0 {
		m.Input = 0
	}
	m.Output = recipe.Output
	m.OutputCount = uint32(next)
	return true
}

// Record is the persisted shape of one machine, used by pkg/save. It
// carries every field regardless of Role; unused fields for a given role
// (e.g. a miner's Input/Output slots) are simply left at their zero value.
type Record struct {
	ID            uuid.UUID
	Pos           taxonomy.BlockPos
	Role          Role
	Facing        taxonomy.Direction
	Buffer        []taxonomy.Handle
	MineProgress  int
	Input         taxonomy.Handle
	InputCount    uint32
	Fuel          taxonomy.Handle
	FuelCount     uint32
	Output        taxonomy.Handle
	OutputCount   uint32
	SmeltProgress float64
	FuelRemaining float64
}

// Snapshot returns every machine's persisted state, in deterministic
// position order.
func (mgr *Manager) Snapshot() []Record {
	out := make([]Record, 0, len(mgr.machines))
	for _, m := range mgr.machines {
		out = append(out, Record{
			ID:            m.ID,
			Pos:           m.Pos,
			Role:          m.Role,
			Facing:        m.Facing,
			Buffer:        append([]taxonomy.Handle(nil), m.Buffer...),
			MineProgress:  m.MineProgress,
			Input:         m.Input,
			InputCount:    m.InputCount,
			Fuel:          m.Fuel,
			FuelCount:     m.FuelCount,
			Output:        m.Output,
			OutputCount:   m.OutputCount,
			SmeltProgress: m.SmeltProgress,
			FuelRemaining: m.FuelRemaining,
		})
	}
	sort.Slice(out, func(i, j int) bool { return blockPosLess(out[i].Pos, out[j].Pos) })
	return out
}

// Restore replaces every machine with the persisted record set, discarding
// whatever was previously loaded (and any open interaction, since its
// target may no longer exist).
func (mgr *Manager) Restore(records []Record) {
	mgr.machines = make(map[taxonomy.BlockPos]*Machine, len(records))
	mgr.open = nil
	for _, r := range records {
		id := r.ID
		if id == uuid.Nil {
			id = uuid.New() // pre-UUID saves carry no identity; mint one on load
		}
		mgr.machines[r.Pos] = &Machine{
			ID:            id,
			Pos:           r.Pos,
			Role:          r.Role,
			Facing:        r.Facing,
			Buffer:        append([]taxonomy.Handle(nil), r.Buffer...),
			BufferCap:     mgr.BufferCap,
			MineProgress:  r.MineProgress,
			Input:         r.Input,
			InputCount:    r.InputCount,
			Fuel:          r.Fuel,
			FuelCount:     r.FuelCount,
			Output:        r.Output,
			OutputCount:   r.OutputCount,
			SmeltProgress: r.SmeltProgress,
			FuelRemaining: r.FuelRemaining,
		}
	}
}

// TryTransferToOutput is the one emit path every machine kind shares
// (resolving spec.md §9's Open Question in favor of uniform handling): it
// attempts to hand item onto the conveyor at m.Pos+m.Facing, calling onSent
// to remove it from the machine's own slot only if the belt accepted it.
func (mgr *Manager) TryTransferToOutput(m *Machine, item taxonomy.Handle, onSent func()) bool {
	target := m.Pos.Add(m.Facing.Offset())
	if !mgr.Conveyors.Enqueue(target, item) {
		return false
	}
	onSent()
	return true
}
