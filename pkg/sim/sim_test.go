package sim

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/foundrycraft/foundrycraft/pkg/building"
	"github.com/foundrycraft/foundrycraft/pkg/conveyor"
	"github.com/foundrycraft/foundrycraft/pkg/inventory"
	"github.com/foundrycraft/foundrycraft/pkg/kinematics"
	"github.com/foundrycraft/foundrycraft/pkg/machine"
	"github.com/foundrycraft/foundrycraft/pkg/quest"
	"github.com/foundrycraft/foundrycraft/pkg/streaming"
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/terrain"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
)

func newTestSim(t *testing.T, dir string) (*Simulation, *taxonomy.Registry) {
	t.Helper()
	reg := taxonomy.NewDefaultRegistry()
	recipes := taxonomy.NewDefaultRecipeBook(reg)
	gen := terrain.NewGenerator(7, reg)
	world := voxel.NewWorld(gen)
	world.Load(taxonomy.ChunkPos{})

	inv := inventory.NewStore(reg, nil)
	conv := conveyor.NewNetwork(world, reg, nil, nil, 0.05, 0.25, 4)
	conv.Inventory = inv
	mach := machine.NewManager(reg, recipes, gen, conv, 60, 4)
	conv.Machines = mach

	stone := reg.MustLookup("foundrycraft:stone")
	quests := quest.NewTracker([]quest.Quest{
		{ID: "deliver_stone", Required: map[taxonomy.Handle]uint32{stone: 10}},
	}, inv, nil)

	streamer := streaming.NewManager(world, gen, 2, 3)
	pipeline := &building.Pipeline{
		World:         world,
		Reg:           reg,
		Inventory:     inv,
		Machines:      mach,
		Conveyors:     conv,
		ReachDistance: 5,
	}
	player := &kinematics.Player{Pos: mgl32.Vec3{0, 0, 0}, Mode: kinematics.Survival}

	s := New(world, reg, recipes, gen, inv, mach, conv, quests, streamer, pipeline, player, zap.NewNop(), 5, dir, 0)
	return s, reg
}

func TestTickAppliesFixedPhaseOrderRegardlessOfSubmitOrder(t *testing.T) {
	s, reg := newTestSim(t, t.TempDir())
	stone := reg.MustLookup("foundrycraft:stone")
	pos := taxonomy.BlockPos{X: 3, Y: 0, Z: 0}
	s.World.Set(pos, stone)
	s.Inventory.Add(stone, 1)

	// Place is submitted before SetBlock, but §4.C13 fixes setblock (phase 3)
	// ahead of place (phase 6): the cell must be cleared to air before the
	// placement can land, no matter which order the intents arrived in.
	if err := s.Submit(Intent{Kind: KindPlace, Pos: pos, Item: "foundrycraft:stone"}); err != nil {
		t.Fatalf("Submit(Place): %v", err)
	}
	if err := s.Submit(Intent{Kind: KindSetBlock, Pos: pos, Item: "foundrycraft:air"}); err != nil {
		t.Fatalf("Submit(SetBlock): %v", err)
	}

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if h, _ := s.World.Get(pos); h != stone {
		t.Errorf("World.Get(pos) = %v, want stone (setblock must run before place)", h)
	}
}

func TestSubmitRejectsNaN(t *testing.T) {
	s, _ := newTestSim(t, t.TempDir())
	err := s.Submit(Intent{Kind: KindTeleport, X: math.NaN(), Y: 0, Z: 0})
	if err == nil {
		t.Fatal("expected an error submitting a NaN teleport intent")
	}
}

func TestSubmitRejectsInfinity(t *testing.T) {
	s, _ := newTestSim(t, t.TempDir())
	err := s.Submit(Intent{Kind: KindLook, Pitch: math.Inf(1), Yaw: 0})
	if err == nil {
		t.Fatal("expected an error submitting an infinite look intent")
	}
}

func TestGiveAndClearInventory(t *testing.T) {
	s, reg := newTestSim(t, t.TempDir())
	stone := reg.MustLookup("foundrycraft:stone")

	s.Submit(Intent{Kind: KindGiveItem, Item: "foundrycraft:stone", Count: 5})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := s.Inventory.Count(stone); got != 5 {
		t.Fatalf("inventory stone count = %d, want 5", got)
	}

	s.Submit(Intent{Kind: KindClearInventory})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := s.Inventory.Count(stone); got != 0 {
		t.Errorf("inventory stone count after clear = %d, want 0", got)
	}
}

func TestBreakOutOfReachLeavesWorldAndInventoryUnchanged(t *testing.T) {
	s, reg := newTestSim(t, t.TempDir())
	stone := reg.MustLookup("foundrycraft:stone")
	pos := taxonomy.BlockPos{X: 10, Y: 0, Z: 0}
	s.World.Set(pos, stone)

	s.Submit(Intent{Kind: KindBreak, Pos: pos})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if h, _ := s.World.Get(pos); h != stone {
		t.Error("out-of-reach break must not remove the block")
	}
	if s.Inventory.Count(stone) != 0 {
		t.Error("out-of-reach break must not add a drop to inventory")
	}
}

func TestGiveUnknownItemIsRejectedWithoutMutatingInventory(t *testing.T) {
	s, _ := newTestSim(t, t.TempDir())
	s.Submit(Intent{Kind: KindGiveItem, Item: "modpack:unobtainium", Count: 1})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(s.Observe().Inventory) != 0 {
		t.Errorf("Observe().Inventory = %v, want empty after an unknown-item give", s.Observe().Inventory)
	}
}

func TestClaimQuestRewardRequiresCompletable(t *testing.T) {
	s, _ := newTestSim(t, t.TempDir())
	s.Submit(Intent{Kind: KindClaimQuestReward})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if q, ok := s.Quests.Active(); !ok || q.Status == quest.Claimed {
		t.Error("claiming an unsatisfied quest must not advance it")
	}
}

func TestSaveLoadRoundTripThroughIntents(t *testing.T) {
	dir := t.TempDir()
	a, reg := newTestSim(t, dir)
	stone := reg.MustLookup("foundrycraft:stone")
	a.Inventory.Add(stone, 9)

	a.Submit(Intent{Kind: KindSaveGame, Slot: "slot1"})
	if err := a.Tick(context.Background()); err != nil {
		t.Fatalf("Tick (save): %v", err)
	}
	if a.LastSave != nil {
		t.Fatalf("LastSave = %v, want nil", a.LastSave)
	}

	b, _ := newTestSim(t, dir)
	b.Submit(Intent{Kind: KindLoadGame, Slot: "slot1"})
	if err := b.Tick(context.Background()); err != nil {
		t.Fatalf("Tick (load): %v", err)
	}
	if b.LastLoad == nil || b.LastLoad.Err != nil {
		t.Fatalf("LastLoad = %+v, want a clean load", b.LastLoad)
	}
	if got := b.Inventory.Count(stone); got != 9 {
		t.Errorf("restored stone count = %d, want 9", got)
	}
}

func TestToggleCreativeFlipsMode(t *testing.T) {
	s, _ := newTestSim(t, t.TempDir())
	s.Submit(Intent{Kind: KindToggleCreative})
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.Player.Mode != kinematics.Creative {
		t.Errorf("Player.Mode = %v, want creative after one toggle", s.Player.Mode)
	}
}
