// Package quest implements the active-quest list (spec §4.C11): a bounded
// ordered vector, progress polled from the global inventory once per tick,
// and a claim intent that subtracts the requirement, credits the reward,
// and advances.
package quest

import "github.com/foundrycraft/foundrycraft/pkg/taxonomy"

// Status is a quest's place in its Active -> Completable -> Claimed
// progression.
type Status int

const (
	Active Status = iota
	Completable
	Claimed
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Completable:
		return "completable"
	case Claimed:
		return "claimed"
	default:
		return "unknown"
	}
}

// Quest is one entry in the active list: what must be held to complete it,
// and what it pays out on claim.
type Quest struct {
	ID       string
	Required map[taxonomy.Handle]uint32
	Reward   map[taxonomy.Handle]uint32
	Status   Status
}

// Inventory is the narrow slice of pkg/inventory's Store a quest tracker
// needs, kept as an interface so quest never imports inventory's event
// plumbing.
type Inventory interface {
	Has(item taxonomy.Handle, n uint32) bool
	Remove(item taxonomy.Handle, n uint32) bool
	Add(item taxonomy.Handle, n uint32) uint32
}

// EventKind distinguishes the three effects a Tracker emits.
type EventKind int

const (
	EventCompletable EventKind = iota
	EventClaimed
	EventAllQuestsDone
)

// Event is pushed to Tracker's Events channel (if set) whenever a quest's
// status changes, or once every quest has been claimed.
type Event struct {
	Kind    EventKind
	QuestID string
}

// Progress is the persisted (id, status) pair §4.C12 lists for save files.
type Progress struct {
	ID     string
	Status Status
}

// Tracker walks a fixed, ordered quest list one at a time: only the quest
// at the current index is ever evaluated or claimable.
type Tracker struct {
	quests    []*Quest
	idx       int
	Inventory Inventory
	Events    chan<- Event
}

// NewTracker builds a tracker over quests in the given order. events may be
// nil if nothing needs to observe quest transitions (e.g. in tests).
func NewTracker(quests []Quest, inv Inventory, events chan<- Event) *Tracker {
	qs := make([]*Quest, len(quests))
	for i := range quests {
		q := quests[i]
		qs[i] = &q
	}
	return &Tracker{quests: qs, Inventory: inv, Events: events}
}

// Active returns the current quest, or (nil, false) once every quest has
// been claimed.
func (t *Tracker) Active() (*Quest, bool) {
	if t.idx >= len(t.quests) {
		return nil, false
	}
	return t.quests[t.idx], true
}

// Evaluate checks the active quest's requirement against inventory and
// marks it Completable if satisfied. Called once per tick, after C10's
// machine tick has settled (§5 ordering), so it always sees the current
// tick's final inventory state.
func (t *Tracker) Evaluate() {
	q, ok := t.Active()
	if !ok || q.Status != Active {
		return
	}
	if t.satisfied(q) {
		q.Status = Completable
		t.emit(Event{Kind: EventCompletable, QuestID: q.ID})
	}
}

func (t *Tracker) satisfied(q *Quest) bool {
	for item, n := range q.Required {
		if !t.Inventory.Has(item, n) {
			return false
		}
	}
	return true
}

// Claim applies the active quest's reward, if it is Completable: subtracts
// Required, credits Reward, marks it Claimed, and advances to the next
// quest (emitting AllQuestsDone if none remain). Returns false without
// mutating anything if the active quest isn't Completable yet.
func (t *Tracker) Claim() bool {
	q, ok := t.Active()
	if !ok || q.Status != Completable {
		return false
	}

	for item, n := range q.Required {
		t.Inventory.Remove(item, n)
	}
	for item, n := range q.Reward {
		t.Inventory.Add(item, n)
	}
	q.Status = Claimed
	t.emit(Event{Kind: EventClaimed, QuestID: q.ID})

	t.idx++
	if t.idx >= len(t.quests) {
		t.emit(Event{Kind: EventAllQuestsDone})
	}
	return true
}

func (t *Tracker) emit(e Event) {
	if t.Events == nil {
		return
	}
	select {
	case t.Events <- e:
	default:
	}
}

// Snapshot returns every quest's (id, status) pair, in list order, for
// pkg/save to serialize.
func (t *Tracker) Snapshot() []Progress {
	out := make([]Progress, len(t.quests))
	for i, q := range t.quests {
		out[i] = Progress{ID: q.ID, Status: q.Status}
	}
	return out
}

// Restore applies persisted statuses and repositions the active index at
// the first quest that isn't Claimed (or past the end if all are).
func (t *Tracker) Restore(progress []Progress) {
	byID := make(map[string]Status, len(progress))
	for _, p := range progress {
		byID[p.ID] = p.Status
	}

	t.idx = len(t.quests)
	for i, q := range t.quests {
		if s, ok := byID[q.ID]; ok {
			q.Status = s
		}
		if q.Status != Claimed && i < t.idx {
			t.idx = i
		}
	}
}
