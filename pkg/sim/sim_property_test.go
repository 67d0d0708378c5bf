package sim

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

// TestRandomizedGiveClearSequenceKeepsInventoryConsistent replays a seeded
// random sequence of GiveItem/ClearInventory intents and checks, after every
// tick, that the tracked model and the live store agree — invariant 1's
// non-negativity always holds structurally (Store.Count is a uint32), so
// the interesting failure mode this guards is a give or clear silently
// landing against the wrong item or being dropped.
func TestRandomizedGiveClearSequenceKeepsInventoryConsistent(t *testing.T) {
	s, reg := newTestSim(t, t.TempDir())
	items := []taxonomy.Handle{
		reg.MustLookup("foundrycraft:stone"),
		reg.MustLookup("foundrycraft:iron_ore"),
		reg.MustLookup("foundrycraft:copper_ore"),
	}

	rng := rand.New(rand.NewSource(1))
	model := make(map[taxonomy.Handle]uint32)

	for step := 0; step < 200; step++ {
		if rng.Intn(10) == 0 {
			for h := range model {
				model[h] = 0
			}
			require.NoError(t, s.Submit(Intent{Kind: KindClearInventory}))
		} else {
			h := items[rng.Intn(len(items))]
			n := uint32(rng.Intn(5) + 1)
			require.NoError(t, s.Submit(Intent{Kind: KindGiveItem, Item: reg.ID(h), Count: n}))
			model[h] += n
		}

		require.NoError(t, s.Tick(context.Background()))

		for h, want := range model {
			got := s.Inventory.Count(h)
			require.GreaterOrEqualf(t, got, uint32(0), "step %d: item %v count went negative", step, h)
			require.Equalf(t, want, got, "step %d: item %v count = %d, want %d", step, h, got, want)
		}
	}
}

// TestRandomizedBreakPlaceSequenceNeverPanics replays a seeded random
// sequence of Break/Place intents against a single in-reach cell and checks
// the cell always ends each tick holding either air or stone — never a
// partial or corrupted state — regardless of which order the two intents
// raced in, per §4.C13's fixed phase ordering (invariant 4's shape, applied
// to a single cell instead of a belt).
func TestRandomizedBreakPlaceSequenceNeverPanics(t *testing.T) {
	s, reg := newTestSim(t, t.TempDir())
	stone := reg.MustLookup("foundrycraft:stone")
	pos := taxonomy.BlockPos{X: 3, Y: 0, Z: 0}
	s.Inventory.Add(stone, 1000)

	rng := rand.New(rand.NewSource(2))

	for step := 0; step < 200; step++ {
		if rng.Intn(2) == 0 {
			require.NoError(t, s.Submit(Intent{Kind: KindBreak, Pos: pos}))
		} else {
			require.NoError(t, s.Submit(Intent{Kind: KindPlace, Pos: pos, Item: "foundrycraft:stone"}))
		}
		require.NoError(t, s.Tick(context.Background()))

		h, _ := s.World.Get(pos)
		require.Containsf(t, []taxonomy.Handle{taxonomy.AirHandle, stone}, h, "step %d: cell holds unexpected handle %v", step, h)
	}
}
