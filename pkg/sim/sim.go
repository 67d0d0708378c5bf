// Package sim implements the intent dispatcher and tick orchestrator (spec
// §4.C13, §5): a per-tick queue of intents from external collaborators,
// applied in a fixed phase order, followed by the fixed system order that
// advances every other subsystem one step.
package sim

import (
	"context"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/foundrycraft/foundrycraft/pkg/building"
	"github.com/foundrycraft/foundrycraft/pkg/conveyor"
	"github.com/foundrycraft/foundrycraft/pkg/inventory"
	"github.com/foundrycraft/foundrycraft/pkg/kinematics"
	"github.com/foundrycraft/foundrycraft/pkg/machine"
	"github.com/foundrycraft/foundrycraft/pkg/quest"
	"github.com/foundrycraft/foundrycraft/pkg/raycast"
	"github.com/foundrycraft/foundrycraft/pkg/save"
	"github.com/foundrycraft/foundrycraft/pkg/simlog"
	"github.com/foundrycraft/foundrycraft/pkg/streaming"
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/terrain"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
)

// ErrUnknownItem is the one user-intent failure §7 names that isn't already
// a building.Err* sentinel: an intent referencing a string ID the registry
// doesn't know.
var ErrUnknownItem = errors.New("sim: unknown item id")

// Kind discriminates one queued intent's shape and determines its dispatch
// phase (see phaseOf).
type Kind int

const (
	KindSaveGame Kind = iota
	KindLoadGame
	KindTeleport
	KindLook
	KindGiveItem
	KindClearInventory
	KindSetBlock
	KindSpawnMachine
	KindBreak
	KindPlace
	KindToggleCreative
	KindToggleInventoryUI
	KindOpenMachineUI
	KindCloseUI
	KindClaimQuestReward
)

// Intent is one externally-submitted request, carrying every field any Kind
// might need. Unused fields are left at their zero value.
type Intent struct {
	Kind Kind

	Pos        taxonomy.BlockPos  // SetBlock / SpawnMachine / Break / Place / OpenMachineUI target
	X, Y, Z    float64            // Teleport
	Pitch, Yaw float64            // Look, degrees

	Item  string // SetBlock / Place / GiveItem canonical item id ("" or air id clears SetBlock)
	Count uint32 // GiveItem

	SpawnKind string             // SpawnMachine kind ("miner"/"furnace"/"crusher")
	Facing    taxonomy.Direction // SpawnMachine facing

	Slot string // SaveGame / LoadGame
}

// phaseOf maps a Kind to its fixed dispatch phase, per §4.C13: (0) save/load,
// (1) teleport/look, (2) inventory mutations, (3) setblock, (4)
// spawn-machine, (5) break, (6) place. Kinds the spec's phase list doesn't
// name (pure UI-state toggles and the quest claim) don't race with world or
// inventory mutation ordering, so they run in an extension phase (7) after
// the named seven.
func phaseOf(k Kind) int {
	switch k {
	case KindSaveGame, KindLoadGame:
		return 0
	case KindTeleport, KindLook:
		return 1
	case KindGiveItem, KindClearInventory:
		return 2
	case KindSetBlock:
		return 3
	case KindSpawnMachine:
		return 4
	case KindBreak:
		return 5
	case KindPlace:
		return 6
	default:
		return 7
	}
}

const numPhases = 8

func (k Kind) String() string {
	switch k {
	case KindSaveGame:
		return "save_game"
	case KindLoadGame:
		return "load_game"
	case KindTeleport:
		return "teleport"
	case KindLook:
		return "look"
	case KindGiveItem:
		return "give_item"
	case KindClearInventory:
		return "clear_inventory"
	case KindSetBlock:
		return "set_block"
	case KindSpawnMachine:
		return "spawn_machine"
	case KindBreak:
		return "break"
	case KindPlace:
		return "place"
	case KindToggleCreative:
		return "toggle_creative"
	case KindToggleInventoryUI:
		return "toggle_inventory_ui"
	case KindOpenMachineUI:
		return "open_machine_ui"
	case KindCloseUI:
		return "close_ui"
	case KindClaimQuestReward:
		return "claim_quest_reward"
	default:
		return "unknown"
	}
}

// LoadResult records the outcome of the most recently processed LoadGame
// intent, surfaced through Observation per §7's "persistence failures...
// surfaced to the user via the observation surface."
type LoadResult struct {
	Slot     string
	Warnings []string
	Err      error
}

// Observation is the read surface §6 names: everything a HUD, console
// collaborator, or telemetry consumer polls once per tick.
type Observation struct {
	PlayerPos   mgl32.Vec3
	PlayerYaw   float32
	PlayerPitch float32
	Mode        kinematics.Mode

	Inventory map[string]uint32

	TargetBlock  *taxonomy.BlockPos
	TargetPlace  *taxonomy.BlockPos

	ActiveQuest     string
	ActiveQuestDone bool

	OpenMachine *machine.Interaction

	Biome string

	InventoryUIOpen bool

	LastLoad *LoadResult
	LastSave error
}

// Simulation bundles every subsystem spec.md names and the fixed-phase
// intent queue that drives them, per §4.C13 and §5.
type Simulation struct {
	World     *voxel.World
	Reg       *taxonomy.Registry
	Recipes   *taxonomy.RecipeBook
	Gen       *terrain.Generator
	Inventory *inventory.Store
	Machines  *machine.Manager
	Conveyors *conveyor.Network
	Quests    *quest.Tracker
	Streaming *streaming.Manager
	Building  *building.Pipeline
	Player    *kinematics.Player

	Log *zap.Logger

	ReachDistance float32
	SaveDir       string

	// AutosaveEvery ticks a save to "autosave" is written; 0 disables it.
	// This is the §5 tick-order's trailing "persistence-on-demand" system,
	// distinct from C13's user-triggered SaveGame/LoadGame intents.
	AutosaveEvery int

	// Movement is the current tick's player input, set by the collaborator
	// before calling Tick; kinematics.Tick consumes it every tick regardless
	// of whether any intent was submitted.
	Movement kinematics.Intent

	InventoryUIOpen bool
	LastLoad        *LoadResult
	LastSave        error

	tickCount int
	queue     [numPhases][]Intent
}

// New builds a Simulation over already-constructed subsystems; callers
// (cmd/foundrycraftd) are responsible for wiring each subsystem's own
// cross-dependencies (e.g. Conveyors.Inventory, Machines.Conveyors) before
// passing them in.
func New(world *voxel.World, reg *taxonomy.Registry, recipes *taxonomy.RecipeBook, gen *terrain.Generator, inv *inventory.Store, machines *machine.Manager, conveyors *conveyor.Network, quests *quest.Tracker, streamer *streaming.Manager, pipeline *building.Pipeline, player *kinematics.Player, log *zap.Logger, reachDistance float32, saveDir string, autosaveEvery int) *Simulation {
	return &Simulation{
		World:         world,
		Reg:           reg,
		Recipes:       recipes,
		Gen:           gen,
		Inventory:     inv,
		Machines:      machines,
		Conveyors:     conveyors,
		Quests:        quests,
		Streaming:     streamer,
		Building:      pipeline,
		Player:        player,
		Log:           log,
		ReachDistance: reachDistance,
		SaveDir:       saveDir,
		AutosaveEvery: autosaveEvery,
	}
}

// Submit enqueues an intent for the next Tick's dispatch, rejecting NaN or
// infinite numeric fields at the boundary per §7's numeric-boundary-failure
// class. Submission order within a phase is preserved (FIFO), but phases
// themselves always apply in the fixed order above.
func (s *Simulation) Submit(in Intent) error {
	for _, v := range [...]float64{in.X, in.Y, in.Z, in.Pitch, in.Yaw} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("sim: rejected intent with NaN or infinite numeric field")
		}
	}
	phase := phaseOf(in.Kind)
	s.queue[phase] = append(s.queue[phase], in)
	return nil
}

// Tick drains the intent queue in fixed phase order, then advances every
// other system in the fixed order §5 specifies: player kinematics, conveyor
// advance, machine tick, quest evaluation, chunk streaming, and finally
// persistence-on-demand. Returns a non-nil error only for an unrecoverable
// streaming escalation (§7); callers should treat that as exit code 2 after
// attempting a crash save.
func (s *Simulation) Tick(ctx context.Context) error {
	for phase := 0; phase < numPhases; phase++ {
		for _, in := range s.queue[phase] {
			if err := s.apply(in); err != nil {
				simlog.IntentRejected(s.Log, in.Kind.String(), err)
			}
		}
		s.queue[phase] = s.queue[phase][:0]
	}

	kinematics.Tick(s.Player, s.World, s.Movement)
	s.Conveyors.Tick()
	s.Machines.Tick()
	// Inventory settlement: Add/Remove already mutate the store synchronously
	// from the phases above and from the conveyor/machine ticks just run, so
	// by this point in the tick it already reflects every mutation — no
	// separate step is needed to "settle" it.
	s.Quests.Evaluate()

	center := voxel.ChunkOf(taxonomy.BlockPos{
		X: int32(math.Floor(float64(s.Player.Pos[0]))),
		Y: int32(math.Floor(float64(s.Player.Pos[1]))),
		Z: int32(math.Floor(float64(s.Player.Pos[2]))),
	})
	if err := s.Streaming.Sync(ctx, center); err != nil {
		simlog.StreamingFailed(s.Log, err)
		return err
	}

	s.tickCount++
	if s.AutosaveEvery > 0 && s.tickCount%s.AutosaveEvery == 0 {
		if err := s.saveToSlot("autosave"); err != nil {
			s.LastSave = err
		}
	}

	return nil
}

func (s *Simulation) apply(in Intent) error {
	switch in.Kind {
	case KindSaveGame:
		err := s.saveToSlot(slotOrDefault(in.Slot))
		s.LastSave = err
		return err
	case KindLoadGame:
		return s.applyLoad(slotOrDefault(in.Slot))
	case KindTeleport:
		s.Player.Pos[0] = float32(in.X)
		s.Player.Pos[1] = float32(in.Y)
		s.Player.Pos[2] = float32(in.Z)
		return nil
	case KindLook:
		s.Player.Pitch = clampPitch(float32(in.Pitch * math.Pi / 180))
		s.Player.Yaw = float32(in.Yaw * math.Pi / 180)
		return nil
	case KindGiveItem:
		h, err := s.resolveItem(in.Item)
		if err != nil {
			return err
		}
		s.Inventory.Add(h, in.Count)
		return nil
	case KindClearInventory:
		s.Inventory.Clear()
		return nil
	case KindSetBlock:
		return s.applySetBlock(in)
	case KindSpawnMachine:
		return s.applySpawnMachine(in)
	case KindBreak:
		return s.applyBreak(in)
	case KindPlace:
		return s.applyPlace(in)
	case KindToggleCreative:
		if s.Player.Mode == kinematics.Creative {
			s.Player.Mode = kinematics.Survival
		} else {
			s.Player.Mode = kinematics.Creative
		}
		return nil
	case KindToggleInventoryUI:
		s.InventoryUIOpen = !s.InventoryUIOpen
		return nil
	case KindOpenMachineUI:
		_, ok := s.Machines.Open(in.Pos)
		if !ok {
			return errors.New("sim: no machine at the given position")
		}
		return nil
	case KindCloseUI:
		s.Machines.Close()
		s.InventoryUIOpen = false
		return nil
	case KindClaimQuestReward:
		if !s.Quests.Claim() {
			return errors.New("sim: active quest is not yet completable")
		}
		return nil
	default:
		return errors.Errorf("sim: unknown intent kind %d", in.Kind)
	}
}

// resolveItem looks up a canonical item ID, wrapping a miss as
// ErrUnknownItem so it's classified with the rest of §7's user-intent
// failures.
func (s *Simulation) resolveItem(id string) (taxonomy.Handle, error) {
	h, ok := s.Reg.Lookup(id)
	if !ok {
		return 0, errors.WithMessagef(ErrUnknownItem, "id %q", id)
	}
	return h, nil
}

func (s *Simulation) applySetBlock(in Intent) error {
	if in.Item == "" || in.Item == "foundrycraft:air" {
		s.World.Set(in.Pos, taxonomy.AirHandle)
		return nil
	}
	h, err := s.resolveItem(in.Item)
	if err != nil {
		return err
	}
	if !s.World.Set(in.Pos, h) {
		return errors.WithStack(building.ErrNotLoaded)
	}
	return nil
}

func (s *Simulation) applySpawnMachine(in Intent) error {
	id := "foundrycraft:" + in.SpawnKind
	h, err := s.resolveItem(id)
	if err != nil {
		return err
	}
	if !s.World.Set(in.Pos, h) {
		return errors.WithStack(building.ErrNotLoaded)
	}
	s.Machines.Create(in.Pos, h, in.Facing)
	return nil
}

func (s *Simulation) applyBreak(in Intent) error {
	_, _, _, err := s.Building.Break(s.Player.Pos, in.Pos, s.Player.Mode == kinematics.Creative)
	return err
}

func (s *Simulation) applyPlace(in Intent) error {
	h, err := s.resolveItem(in.Item)
	if err != nil {
		return err
	}
	return s.Building.Place(s.Player.Pos, in.Pos, h, float64(s.Player.Yaw))
}

func slotOrDefault(slot string) string {
	if slot == "" {
		return "default"
	}
	return slot
}

func (s *Simulation) sources() *save.Sources {
	return &save.Sources{
		Player:    s.Player,
		Reg:       s.Reg,
		Inventory: s.Inventory,
		World:     s.World,
		Gen:       s.Gen,
		Machines:  s.Machines,
		Conveyors: s.Conveyors,
		Quests:    s.Quests,
		Seed:      s.Gen.Seed,
	}
}

func (s *Simulation) slotPath(slot string) string {
	return filepath.Join(s.SaveDir, slot+".save")
}

func (s *Simulation) saveToSlot(slot string) error {
	env := save.Build(s.sources())
	f, err := os.Create(s.slotPath(slot))
	if err != nil {
		return errors.Wrap(err, "sim: save")
	}
	defer f.Close()
	if err := save.Encode(f, env, false); err != nil {
		return errors.Wrap(err, "sim: save")
	}
	return nil
}

// CrashSave writes an immediate, uncompressed snapshot to path. Used by the
// CLI driver's unrecoverable-error path, per §7's "an unrecoverable
// simulation error... exit code 2 after a final persistence attempt to a
// crash.save file."
func (s *Simulation) CrashSave(path string) error {
	env := save.Build(s.sources())
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "sim: crash save")
	}
	defer f.Close()
	return save.Encode(f, env, false)
}

func (s *Simulation) applyLoad(slot string) error {
	f, err := os.Open(s.slotPath(slot))
	if err != nil {
		res := &LoadResult{Slot: slot, Err: err}
		s.LastLoad = res
		return errors.Wrap(err, "sim: load")
	}
	defer f.Close()

	env, err := save.Decode(f, s.Reg)
	if err != nil {
		res := &LoadResult{Slot: slot, Err: err}
		s.LastLoad = res
		return errors.Wrap(err, "sim: load")
	}

	warnings := save.Apply(env, s.sources())
	s.LastLoad = &LoadResult{Slot: slot, Warnings: warnings}
	return nil
}

// Observe builds the read surface §6 names, targeting the block in front of
// the player via raycast the same way the teacher's client picks the
// highlighted block.
func (s *Simulation) Observe() Observation {
	obs := Observation{
		PlayerPos:       s.Player.Pos,
		PlayerYaw:       s.Player.Yaw,
		PlayerPitch:     s.Player.Pitch,
		Mode:            s.Player.Mode,
		Inventory:       make(map[string]uint32),
		InventoryUIOpen: s.InventoryUIOpen,
		LastLoad:        s.LastLoad,
		LastSave:        s.LastSave,
	}

	s.Inventory.Iter(func(item taxonomy.Handle, count uint32) {
		if count == 0 {
			return
		}
		obs.Inventory[s.Reg.ID(item)] = count
	})

	dir := lookDir(s.Player.Yaw, s.Player.Pitch)
	eye := s.Player.Pos.Add(mgl32.Vec3{0, kinematics.PlayerHeight * 0.9, 0})
	if hit, ok := raycast.Cast(s.World, eye, dir, s.ReachDistance); ok {
		block, place := hit.Block, hit.PlacePos
		obs.TargetBlock = &block
		obs.TargetPlace = &place
	}

	if q, ok := s.Quests.Active(); ok {
		obs.ActiveQuest = q.ID
		obs.ActiveQuestDone = q.Status != quest.Active
	}

	if in, ok := s.Machines.Interacting(); ok {
		obs.OpenMachine = &in
	}

	bx := int(math.Floor(float64(s.Player.Pos[0])))
	bz := int(math.Floor(float64(s.Player.Pos[2])))
	obs.Biome = s.Gen.Biome(bx, bz).String()

	return obs
}

func lookDir(yaw, pitch float32) mgl32.Vec3 {
	cosPitch := float32(math.Cos(float64(pitch)))
	return mgl32.Vec3{
		-float32(math.Sin(float64(yaw))) * cosPitch,
		float32(math.Sin(float64(pitch))),
		float32(math.Cos(float64(yaw))) * cosPitch,
	}
}

func clampPitch(p float32) float32 {
	const limit = math.Pi/2 - 1e-3
	switch {
	case p > limit:
		return limit
	case p < -limit:
		return -limit
	default:
		return p
	}
}
