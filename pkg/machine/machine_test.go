package machine

import (
	"testing"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/terrain"
)

type fixedBiome struct{ k terrain.Kind }

func (f fixedBiome) Biome(x, z int) terrain.Kind { return f.k }

type fakeBelt struct {
	accept bool
	sent   []taxonomy.Handle
	dest   []taxonomy.BlockPos
}

func (b *fakeBelt) Enqueue(pos taxonomy.BlockPos, item taxonomy.Handle) bool {
	if !b.accept {
		return false
	}
	b.sent = append(b.sent, item)
	b.dest = append(b.dest, pos)
	return true
}

func newTestManager(t *testing.T, biome terrain.Kind, acceptBelt bool) (*Manager, *taxonomy.Registry, *fakeBelt) {
	t.Helper()
	reg := taxonomy.NewDefaultRegistry()
	recipes := taxonomy.NewDefaultRecipeBook(reg)
	belt := &fakeBelt{accept: acceptBelt}
	mgr := NewManager(reg, recipes, fixedBiome{biome}, belt, 60, 4)
	return mgr, reg, belt
}

func TestMinerProducesDominantOreEveryTMine(t *testing.T) {
	mgr, reg, belt := newTestManager(t, terrain.BiomeIron, true)
	minerID := reg.MustLookup("foundrycraft:miner")
	ironOre := reg.MustLookup("foundrycraft:iron_ore")

	pos := taxonomy.BlockPos{X: 0, Y: 8, Z: 0}
	mgr.Create(pos, minerID, taxonomy.North)

	for i := 0; i < 60; i++ {
		mgr.Tick()
	}

	if len(belt.sent) != 1 || belt.sent[0] != ironOre {
		t.Fatalf("after 60 ticks, belt.sent = %v, want one iron ore", belt.sent)
	}
	want := pos.Add(taxonomy.North.Offset())
	if belt.dest[0] != want {
		t.Errorf("emit destination = %v, want %v", belt.dest[0], want)
	}
}

func TestMinerBlocksWhenBufferFull(t *testing.T) {
	mgr, reg, _ := newTestManager(t, terrain.BiomeIron, false) // belt refuses everything
	minerID := reg.MustLookup("foundrycraft:miner")

	pos := taxonomy.BlockPos{X: 0, Y: 8, Z: 0}
	mgr.Create(pos, minerID, taxonomy.North)

	for i := 0; i < 60*5; i++ {
		mgr.Tick()
	}

	m, _ := mgr.Machine(pos)
	if m.State != Blocked {
		t.Errorf("State = %v, want Blocked once the buffer fills", m.State)
	}
	if len(m.Buffer) != m.BufferCap {
		t.Errorf("Buffer len = %d, want BufferCap %d", len(m.Buffer), m.BufferCap)
	}
}

func TestMinerOnUnmineableBiomeNeverProduces(t *testing.T) {
	mgr, reg, belt := newTestManager(t, terrain.BiomeUnmineable, true)
	minerID := reg.MustLookup("foundrycraft:miner")

	pos := taxonomy.BlockPos{X: 0, Y: 8, Z: 0}
	mgr.Create(pos, minerID, taxonomy.North)

	for i := 0; i < 600; i++ {
		mgr.Tick()
	}

	if len(belt.sent) != 0 {
		t.Errorf("unmineable biome produced %d ore, want 0", len(belt.sent))
	}
}

func TestFurnaceSmeltsWithFuelAndEmitsIngot(t *testing.T) {
	mgr, reg, belt := newTestManager(t, terrain.BiomeIron, true)
	furnaceID := reg.MustLookup("foundrycraft:furnace")
	ironOre := reg.MustLookup("foundrycraft:iron_ore")
	coal := reg.MustLookup("foundrycraft:coal_ore")
	ironIngot := reg.MustLookup("foundrycraft:iron_ingot")

	pos := taxonomy.BlockPos{X: 0, Y: 8, Z: 2}
	mgr.Create(pos, furnaceID, taxonomy.North)

	if !mgr.TryAcceptInput(pos, ironOre) {
		t.Fatal("expected input slot to accept iron ore")
	}
	if !mgr.LoadFuel(pos, coal) {
		t.Fatal("expected fuel slot to accept coal")
	}

	for i := 0; i < 120; i++ {
		mgr.Tick()
	}

	if len(belt.sent) != 1 || belt.sent[0] != ironIngot {
		t.Fatalf("after T_smelt ticks, belt.sent = %v, want one iron ingot", belt.sent)
	}
}

func TestFurnaceIdlesWithoutFuel(t *testing.T) {
	mgr, reg, belt := newTestManager(t, terrain.BiomeIron, true)
	furnaceID := reg.MustLookup("foundrycraft:furnace")
	ironOre := reg.MustLookup("foundrycraft:iron_ore")

	pos := taxonomy.BlockPos{X: 0, Y: 8, Z: 2}
	mgr.Create(pos, furnaceID, taxonomy.North)
	mgr.TryAcceptInput(pos, ironOre)

	for i := 0; i < 120; i++ {
		mgr.Tick()
	}

	if len(belt.sent) != 0 {
		t.Errorf("furnace without fuel emitted %v, want nothing", belt.sent)
	}
	m, _ := mgr.Machine(pos)
	if m.State != Blocked {
		t.Errorf("State = %v, want Blocked (NoFuel)", m.State)
	}
}

func TestCrusherDoublesOutputAndNeedsNoFuel(t *testing.T) {
	mgr, reg, belt := newTestManager(t, terrain.BiomeIron, true)
	crusherID := reg.MustLookup("foundrycraft:crusher")
	ironOre := reg.MustLookup("foundrycraft:iron_ore")
	ironDust := reg.MustLookup("foundrycraft:iron_dust")

	pos := taxonomy.BlockPos{X: 0, Y: 8, Z: 3}
	mgr.Create(pos, crusherID, taxonomy.North)
	mgr.TryAcceptInput(pos, ironOre)

	// The recipe completes on tick 90 and emits its first unit that tick;
	// the second unit goes out on tick 91.
	for i := 0; i < 91; i++ {
		mgr.Tick()
	}

	if len(belt.sent) != 2 {
		t.Fatalf("crusher should emit recipe.OutputCount (2) units one at a time, got %v", belt.sent)
	}
	for _, h := range belt.sent {
		if h != ironDust {
			t.Errorf("emitted %v, want iron dust", h)
		}
	}
}

func TestInteractionIsExclusive(t *testing.T) {
	mgr, reg, _ := newTestManager(t, terrain.BiomeIron, true)
	furnaceID := reg.MustLookup("foundrycraft:furnace")

	a := taxonomy.BlockPos{X: 0, Y: 8, Z: 0}
	b := taxonomy.BlockPos{X: 1, Y: 8, Z: 0}
	mgr.Create(a, furnaceID, taxonomy.North)
	mgr.Create(b, furnaceID, taxonomy.North)

	mgr.Open(a)
	mgr.Open(b)

	it, ok := mgr.Interacting()
	if !ok || it.Pos != b {
		t.Errorf("Interacting() = (%v, %v), want (pos b, true) since opening b should close a", it, ok)
	}

	mgr.Close()
	if _, ok := mgr.Interacting(); ok {
		t.Error("expected no open interaction after Close")
	}
}

func TestTryAcceptInputRejectsMismatchedRunningRecipe(t *testing.T) {
	mgr, reg, _ := newTestManager(t, terrain.BiomeIron, true)
	furnaceID := reg.MustLookup("foundrycraft:furnace")
	ironOre := reg.MustLookup("foundrycraft:iron_ore")
	copperOre := reg.MustLookup("foundrycraft:copper_ore")

	pos := taxonomy.BlockPos{X: 0, Y: 8, Z: 0}
	mgr.Create(pos, furnaceID, taxonomy.North)

	if !mgr.TryAcceptInput(pos, ironOre) {
		t.Fatal("expected first input to be accepted")
	}
	if mgr.TryAcceptInput(pos, copperOre) {
		t.Error("expected a differing input type to be rejected while the slot is occupied")
	}
}
