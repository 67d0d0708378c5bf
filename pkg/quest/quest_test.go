package quest

import (
	"testing"

	"github.com/foundrycraft/foundrycraft/pkg/inventory"
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
)

func newTestInventory(t *testing.T) (*inventory.Store, *taxonomy.Registry) {
	t.Helper()
	reg := taxonomy.NewDefaultRegistry()
	return inventory.NewStore(reg, nil), reg
}

func TestEvaluateMarksCompletableWhenSatisfied(t *testing.T) {
	inv, reg := newTestInventory(t)
	ingot := reg.MustLookup("foundrycraft:iron_ingot")

	tr := NewTracker([]Quest{
		{ID: "q1", Required: map[taxonomy.Handle]uint32{ingot: 5}, Reward: map[taxonomy.Handle]uint32{}},
	}, inv, nil)

	tr.Evaluate()
	q, _ := tr.Active()
	if q.Status != Active {
		t.Fatalf("Status = %v, want Active before inventory is satisfied", q.Status)
	}

	inv.Add(ingot, 5)
	tr.Evaluate()
	if q.Status != Completable {
		t.Errorf("Status = %v, want Completable", q.Status)
	}
}

func TestClaimSubtractsRequiredAndCreditsReward(t *testing.T) {
	inv, reg := newTestInventory(t)
	ingot := reg.MustLookup("foundrycraft:iron_ingot")
	dust := reg.MustLookup("foundrycraft:iron_dust")
	inv.Add(ingot, 5)

	tr := NewTracker([]Quest{
		{ID: "q1", Required: map[taxonomy.Handle]uint32{ingot: 5}, Reward: map[taxonomy.Handle]uint32{dust: 10}},
	}, inv, nil)
	tr.Evaluate()

	if !tr.Claim() {
		t.Fatal("expected Claim to succeed on a Completable quest")
	}
	if inv.Count(ingot) != 0 {
		t.Errorf("ingot count = %d, want 0 after claim", inv.Count(ingot))
	}
	if inv.Count(dust) != 10 {
		t.Errorf("dust count = %d, want 10 reward credited", inv.Count(dust))
	}
}

func TestClaimFailsBeforeCompletable(t *testing.T) {
	inv, reg := newTestInventory(t)
	ingot := reg.MustLookup("foundrycraft:iron_ingot")

	tr := NewTracker([]Quest{
		{ID: "q1", Required: map[taxonomy.Handle]uint32{ingot: 5}},
	}, inv, nil)

	if tr.Claim() {
		t.Fatal("expected Claim to fail while the quest is still Active")
	}
}

func TestClaimAdvancesAndEmitsAllQuestsDone(t *testing.T) {
	inv, reg := newTestInventory(t)
	stone := reg.MustLookup("foundrycraft:stone")
	inv.Add(stone, 100)

	events := make(chan Event, 8)
	tr := NewTracker([]Quest{
		{ID: "q1", Required: map[taxonomy.Handle]uint32{stone: 1}},
		{ID: "q2", Required: map[taxonomy.Handle]uint32{stone: 1}},
	}, inv, events)

	tr.Evaluate()
	tr.Claim()
	q, ok := tr.Active()
	if !ok || q.ID != "q2" {
		t.Fatalf("expected active quest to advance to q2, got %v, ok=%v", q, ok)
	}

	tr.Evaluate()
	tr.Claim()
	if _, ok := tr.Active(); ok {
		t.Fatal("expected no active quest once the list is exhausted")
	}

	var sawAllDone bool
	for len(events) > 0 {
		if e := <-events; e.Kind == EventAllQuestsDone {
			sawAllDone = true
		}
	}
	if !sawAllDone {
		t.Error("expected an AllQuestsDone event after claiming the last quest")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	inv, reg := newTestInventory(t)
	stone := reg.MustLookup("foundrycraft:stone")
	inv.Add(stone, 10)

	tr := NewTracker([]Quest{
		{ID: "q1", Required: map[taxonomy.Handle]uint32{stone: 1}},
		{ID: "q2", Required: map[taxonomy.Handle]uint32{stone: 1}},
	}, inv, nil)
	tr.Evaluate()
	tr.Claim()

	snap := tr.Snapshot()

	tr2 := NewTracker([]Quest{
		{ID: "q1", Required: map[taxonomy.Handle]uint32{stone: 1}},
		{ID: "q2", Required: map[taxonomy.Handle]uint32{stone: 1}},
	}, inv, nil)
	tr2.Restore(snap)

	q, ok := tr2.Active()
	if !ok || q.ID != "q2" {
		t.Fatalf("restored active quest = %v, ok=%v, want q2", q, ok)
	}
}
