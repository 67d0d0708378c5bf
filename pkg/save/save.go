// Package save implements the versioned save-file envelope (spec §4.C12):
// a self-describing JSON document, with per-chunk world diffs packed into
// a compact pkg/wire binary blob rather than a JSON object array. Loading
// is transactional — Decode fully parses and validates into a detached
// Envelope before Apply ever touches live state, so a malformed file never
// partially mutates a running simulation.
package save

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/foundrycraft/foundrycraft/pkg/conveyor"
	"github.com/foundrycraft/foundrycraft/pkg/inventory"
	"github.com/foundrycraft/foundrycraft/pkg/kinematics"
	"github.com/foundrycraft/foundrycraft/pkg/machine"
	"github.com/foundrycraft/foundrycraft/pkg/quest"
	"github.com/foundrycraft/foundrycraft/pkg/taxonomy"
	"github.com/foundrycraft/foundrycraft/pkg/terrain"
	"github.com/foundrycraft/foundrycraft/pkg/voxel"
	"github.com/foundrycraft/foundrycraft/pkg/wire"
)

// CurrentVersion is written by Encode and is the version Decode produces
// after migrating anything older. Versions below MinSupportedVersion are
// rejected outright, per §4.C12 ("earlier versions are rejected").
const (
	CurrentVersion      = 2
	MinSupportedVersion = 1
)

// zstdMagic is the four-byte frame magic github.com/klauspost/compress/zstd
// writes; Decode sniffs it to tell a compressed file from a plain one
// without the caller needing to remember how a save was written.
var zstdMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

// Vec3 is a plain JSON-friendly 3-vector, used for the player's position.
type Vec3 struct {
	X, Y, Z float64
}

// PlayerState is the `player` envelope field.
type PlayerState struct {
	Position Vec3    `json:"position"`
	Yaw      float64 `json:"yaw"`
	Pitch    float64 `json:"pitch"`
	Mode     string  `json:"mode"`
}

// ItemCount is one `inventory` entry: a canonical item ID and its count.
type ItemCount struct {
	Item  string `json:"item"`
	Count uint32 `json:"count"`
}

// ChunkDiff is one `world.chunks` entry. Diff is a base64 encoding of a
// pkg/wire VarInt stream of (local index, canonical block ID) pairs,
// relative to what terrain.Generator would produce for Pos unassisted.
type ChunkDiff struct {
	Pos  [3]int32 `json:"pos"`
	Diff string   `json:"diff"`
}

// WorldState is the `world` envelope field.
type WorldState struct {
	Seed   int64       `json:"seed"`
	Chunks []ChunkDiff `json:"chunks"`
}

// MachineRecord is one `machines` entry, a JSON-friendly mirror of
// machine.Record with canonical string IDs in place of Handles.
type MachineRecord struct {
	ID            string   `json:"id,omitempty"`
	Pos           [3]int32 `json:"pos"`
	Role          string   `json:"role"`
	Facing        string   `json:"facing"`
	Buffer        []string `json:"buffer,omitempty"`
	MineProgress  int      `json:"mine_progress,omitempty"`
	Input         string   `json:"input,omitempty"`
	InputCount    uint32   `json:"input_count,omitempty"`
	Fuel          string   `json:"fuel,omitempty"`
	FuelCount     uint32   `json:"fuel_count,omitempty"`
	Output        string   `json:"output,omitempty"`
	OutputCount   uint32   `json:"output_count,omitempty"`
	SmeltProgress float64  `json:"smelt_progress,omitempty"`
	FuelRemaining float64  `json:"fuel_remaining,omitempty"`
}

// ConveyorItemRecord is one item riding a conveyor tile.
type ConveyorItemRecord struct {
	Item     string  `json:"item"`
	Progress float64 `json:"progress"`
}

// ConveyorRecord is one `conveyors` entry.
type ConveyorRecord struct {
	ID              string               `json:"id,omitempty"`
	Pos             [3]int32             `json:"pos"`
	Facing          string               `json:"facing"`
	Shape           string               `json:"shape"`
	OutputDirection string               `json:"output_direction"`
	ExplicitSplit   bool                 `json:"explicit_split,omitempty"`
	SplitCounter    int                  `json:"split_counter,omitempty"`
	Items           []ConveyorItemRecord `json:"items,omitempty"`
}

// QuestRecord is one `quests` entry: (id, status).
type QuestRecord struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Envelope is the full save-file document.
type Envelope struct {
	Version   int             `json:"version"`
	Player    PlayerState     `json:"player"`
	Inventory []ItemCount     `json:"inventory"`
	World     WorldState      `json:"world"`
	Machines  []MachineRecord `json:"machines"`
	Conveyors []ConveyorRecord `json:"conveyors"`
	Quests    []QuestRecord   `json:"quests"`
}

// Sources bundles every live piece of simulation state Build reads from
// and Apply writes back into.
type Sources struct {
	Player    *kinematics.Player
	Reg       *taxonomy.Registry
	Inventory *inventory.Store
	World     *voxel.World
	Gen       *terrain.Generator
	Machines  *machine.Manager
	Conveyors *conveyor.Network
	Quests    *quest.Tracker
	Seed      int64
}

// Build constructs an Envelope from the current live state. It never
// mutates src.
func Build(src *Sources) *Envelope {
	env := &Envelope{
		Version: CurrentVersion,
		Player: PlayerState{
			Position: Vec3{X: float64(src.Player.Pos[0]), Y: float64(src.Player.Pos[1]), Z: float64(src.Player.Pos[2])},
			Yaw:      float64(src.Player.Yaw),
			Pitch:    float64(src.Player.Pitch),
			Mode:     src.Player.Mode.String(),
		},
		World: WorldState{Seed: src.Seed},
	}

	src.Inventory.Iter(func(item taxonomy.Handle, count uint32) {
		if count == 0 {
			return
		}
		env.Inventory = append(env.Inventory, ItemCount{Item: src.Reg.ID(item), Count: count})
	})

	for _, pos := range sortedChunks(src.World.Loaded()) {
		diff := buildChunkDiff(src.World.Chunk(pos), src.Gen, src.Reg)
		if diff == "" {
			continue // matches generator output exactly: omit, per §4.C12
		}
		env.World.Chunks = append(env.World.Chunks, ChunkDiff{Pos: [3]int32{pos.X, pos.Y, pos.Z}, Diff: diff})
	}

	for _, m := range src.Machines.Snapshot() {
		env.Machines = append(env.Machines, machineRecordToJSON(m, src.Reg))
	}
	for _, c := range src.Conveyors.Snapshot() {
		env.Conveyors = append(env.Conveyors, conveyorRecordToJSON(c, src.Reg))
	}
	for _, q := range src.Quests.Snapshot() {
		env.Quests = append(env.Quests, QuestRecord{ID: q.ID, Status: q.Status.String()})
	}

	return env
}

// Apply installs env into the live state referenced by src. Callers should
// only ever reach this after Decode has returned env successfully — that
// ordering is what makes loading transactional: a malformed envelope never
// gets here at all, and the live state passed in is left untouched until
// every field below is ready to write.
func Apply(env *Envelope, src *Sources) (warnings []string) {
	mode := kinematics.Survival
	if env.Player.Mode == "creative" {
		mode = kinematics.Creative
	}
	src.Player.Pos[0] = float32(env.Player.Position.X)
	src.Player.Pos[1] = float32(env.Player.Position.Y)
	src.Player.Pos[2] = float32(env.Player.Position.Z)
	src.Player.Yaw = float32(env.Player.Yaw)
	src.Player.Pitch = float32(env.Player.Pitch)
	src.Player.Mode = mode

	counts := make(map[taxonomy.Handle]uint32, len(env.Inventory))
	for _, ic := range env.Inventory {
		h, ok := src.Reg.Lookup(ic.Item)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("save: unknown item id %q in inventory, skipped", ic.Item))
			continue
		}
		counts[h] += ic.Count
	}
	src.Inventory.Restore(counts)

	for _, cd := range env.World.Chunks {
		pos := taxonomy.ChunkPos{X: cd.Pos[0], Y: cd.Pos[1], Z: cd.Pos[2]}
		src.World.Load(pos)
		diffWarnings := applyChunkDiff(cd.Diff, src.Reg, src.World, pos)
		warnings = append(warnings, diffWarnings...)
	}

	var machines []machine.Record
	for _, mr := range env.Machines {
		rec, warn, ok := machineRecordFromJSON(mr, src.Reg)
		if warn != "" {
			warnings = append(warnings, warn)
		}
		if ok {
			machines = append(machines, rec)
		}
	}
	src.Machines.Restore(machines)

	var conveyors []conveyor.Record
	for _, cr := range env.Conveyors {
		rec, warn, ok := conveyorRecordFromJSON(cr, src.Reg)
		if warn != "" {
			warnings = append(warnings, warn)
		}
		if ok {
			conveyors = append(conveyors, rec)
		}
	}
	src.Conveyors.Restore(conveyors)

	var progress []quest.Progress
	for _, qr := range env.Quests {
		progress = append(progress, quest.Progress{ID: qr.ID, Status: parseQuestStatus(qr.Status)})
	}
	src.Quests.Restore(progress)

	return warnings
}

func sortedChunks(chunks []taxonomy.ChunkPos) []taxonomy.ChunkPos {
	out := append([]taxonomy.ChunkPos(nil), chunks...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// buildChunkDiff compares a loaded chunk's live blocks against a freshly
// regenerated baseline and packs every differing cell into a wire blob.
// Returns "" if nothing differs, so the caller can omit the chunk entirely.
func buildChunkDiff(c *voxel.Chunk, gen *terrain.Generator, reg *taxonomy.Registry) string {
	if c == nil {
		return ""
	}
	baseline := gen.Generate(c.Pos)
	live := c.Blocks()

	type cell struct {
		idx int
		id  string
	}
	var diffs []cell
	for i := range live {
		if live[i] == baseline[i] {
			continue
		}
		diffs = append(diffs, cell{idx: i, id: reg.ID(live[i])})
	}
	if len(diffs) == 0 {
		return ""
	}

	w := wire.NewWriter()
	w.PutVarInt(int32(len(diffs)))
	for _, d := range diffs {
		w.PutUint16(uint16(d.idx))
		w.PutString(d.id)
	}
	return base64.StdEncoding.EncodeToString(w.Bytes())
}

// applyChunkDiff decodes a wire blob and writes each differing cell onto an
// already-loaded chunk at pos.
func applyChunkDiff(encoded string, reg *taxonomy.Registry, w *voxel.World, pos taxonomy.ChunkPos) (warnings []string) {
	if encoded == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return []string{fmt.Sprintf("save: chunk %v has malformed diff, skipped: %v", pos, err)}
	}
	r := wire.NewReader(raw)
	count, err := r.VarInt()
	if err != nil {
		return []string{fmt.Sprintf("save: chunk %v has malformed diff header, skipped: %v", pos, err)}
	}
	for i := int32(0); i < count; i++ {
		idx, err := r.Uint16()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("save: chunk %v diff truncated, stopped early: %v", pos, err))
			break
		}
		id, err := r.String()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("save: chunk %v diff truncated, stopped early: %v", pos, err))
			break
		}
		h, ok := reg.Lookup(id)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("save: chunk %v references unknown block id %q, skipped", pos, id))
			continue
		}
		lx, ly, lz := localOfIndex(int(idx))
		blockPos := taxonomy.BlockPos{X: pos.X*voxel.Side + lx, Y: pos.Y*voxel.Side + ly, Z: pos.Z*voxel.Side + lz}
		w.Set(blockPos, h)
	}
	return warnings
}

// localOfIndex inverts voxel's localIndex packing (Y slowest, then Z, then
// X), so a diff entry's flat index can be turned back into local
// coordinates without voxel exporting the packing function itself.
func localOfIndex(idx int) (lx, ly, lz int32) {
	const side = voxel.Side
	x := idx % side
	rest := idx / side
	z := rest % side
	y := rest / side
	return int32(x), int32(y), int32(z)
}

func machineRecordToJSON(m machine.Record, reg *taxonomy.Registry) MachineRecord {
	out := MachineRecord{
		ID:            m.ID.String(),
		Pos:           [3]int32{m.Pos.X, m.Pos.Y, m.Pos.Z},
		Role:          m.Role.String(),
		Facing:        m.Facing.String(),
		MineProgress:  m.MineProgress,
		InputCount:    m.InputCount,
		FuelCount:     m.FuelCount,
		OutputCount:   m.OutputCount,
		SmeltProgress: m.SmeltProgress,
		FuelRemaining: m.FuelRemaining,
	}
	for _, h := range m.Buffer {
		out.Buffer = append(out.Buffer, reg.ID(h))
	}
	if m.InputCount > 0 {
		out.Input = reg.ID(m.Input)
	}
	if m.FuelCount > 0 {
		out.Fuel = reg.ID(m.Fuel)
	}
	if m.OutputCount > 0 {
		out.Output = reg.ID(m.Output)
	}
	return out
}

func machineRecordFromJSON(mr MachineRecord, reg *taxonomy.Registry) (rec machine.Record, warning string, ok bool) {
	rec.ID = parseUUID(mr.ID)
	rec.Pos = taxonomy.BlockPos{X: mr.Pos[0], Y: mr.Pos[1], Z: mr.Pos[2]}
	rec.Role = parseRole(mr.Role)
	rec.Facing = parseDirection(mr.Facing)
	rec.MineProgress = mr.MineProgress
	rec.InputCount = mr.InputCount
	rec.FuelCount = mr.FuelCount
	rec.OutputCount = mr.OutputCount
	rec.SmeltProgress = mr.SmeltProgress
	rec.FuelRemaining = mr.FuelRemaining

	for _, id := range mr.Buffer {
		h, ok := reg.Lookup(id)
		if !ok {
			return machine.Record{}, fmt.Sprintf("save: machine at %v has unknown buffer item %q, record skipped", rec.Pos, id), false
		}
		rec.Buffer = append(rec.Buffer, h)
	}
	if mr.Input != "" {
		h, ok := reg.Lookup(mr.Input)
		if !ok {
			return machine.Record{}, fmt.Sprintf("save: machine at %v has unknown input item %q, record skipped", rec.Pos, mr.Input), false
		}
		rec.Input = h
	}
	if mr.Fuel != "" {
		h, ok := reg.Lookup(mr.Fuel)
		if !ok {
			return machine.Record{}, fmt.Sprintf("save: machine at %v has unknown fuel item %q, record skipped", rec.Pos, mr.Fuel), false
		}
		rec.Fuel = h
	}
	if mr.Output != "" {
		h, ok := reg.Lookup(mr.Output)
		if !ok {
			return machine.Record{}, fmt.Sprintf("save: machine at %v has unknown output item %q, record skipped", rec.Pos, mr.Output), false
		}
		rec.Output = h
	}
	return rec, "", true
}

func conveyorRecordToJSON(t conveyor.Record, reg *taxonomy.Registry) ConveyorRecord {
	out := ConveyorRecord{
		ID:              t.ID.String(),
		Pos:             [3]int32{t.Pos.X, t.Pos.Y, t.Pos.Z},
		Facing:          t.Facing.String(),
		Shape:           t.Shape.String(),
		OutputDirection: t.OutputDirection.String(),
		ExplicitSplit:   t.ExplicitSplit,
		SplitCounter:    t.SplitCounter,
	}
	for _, it := range t.Items {
		out.Items = append(out.Items, ConveyorItemRecord{Item: reg.ID(it.Type), Progress: it.Progress})
	}
	return out
}

func conveyorRecordFromJSON(cr ConveyorRecord, reg *taxonomy.Registry) (rec conveyor.Record, warning string, ok bool) {
	rec.ID = parseUUID(cr.ID)
	rec.Pos = taxonomy.BlockPos{X: cr.Pos[0], Y: cr.Pos[1], Z: cr.Pos[2]}
	rec.Facing = parseDirection(cr.Facing)
	rec.Shape = parseShape(cr.Shape)
	rec.OutputDirection = parseDirection(cr.OutputDirection)
	rec.ExplicitSplit = cr.ExplicitSplit
	rec.SplitCounter = cr.SplitCounter

	for _, it := range cr.Items {
		h, ok := reg.Lookup(it.Item)
		if !ok {
			return conveyor.Record{}, fmt.Sprintf("save: conveyor at %v has unknown item %q, record skipped", rec.Pos, it.Item), false
		}
		rec.Items = append(rec.Items, conveyor.Item{Type: h, Progress: it.Progress})
	}
	return rec, "", true
}

// parseUUID returns the zero UUID for an empty or malformed string rather
// than erroring the whole record: the owning Restore call mints a fresh one
// for any record that arrives without a usable identity, which covers both
// a V1 save (no id field existed yet) and plain corruption.
func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func parseRole(s string) machine.Role {
	switch s {
	case "furnace":
		return machine.RoleFurnace
	case "crusher":
		return machine.RoleCrusher
	default:
		return machine.RoleMiner
	}
}

func parseDirection(s string) taxonomy.Direction {
	switch s {
	case "south":
		return taxonomy.South
	case "east":
		return taxonomy.East
	case "west":
		return taxonomy.West
	default:
		return taxonomy.North
	}
}

func parseShape(s string) conveyor.Shape {
	switch s {
	case "corner_left":
		return conveyor.CornerLeft
	case "corner_right":
		return conveyor.CornerRight
	case "t_junction":
		return conveyor.TJunction
	case "splitter":
		return conveyor.Splitter
	default:
		return conveyor.Straight
	}
}

func parseQuestStatus(s string) quest.Status {
	switch s {
	case "completable":
		return quest.Completable
	case "claimed":
		return quest.Claimed
	default:
		return quest.Active
	}
}

// Encode marshals env to JSON and writes it to w, optionally wrapped in a
// zstd frame when compress is true (factory saves accumulate large
// conveyor-item logs that compress well). The simulation's own saves and
// the CLI's migrate-save pass false; no CLI flag sets it.
func Encode(w io.Writer, env *Envelope, compress bool) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("save: encode: %w", err)
	}
	if !compress {
		_, err := w.Write(data)
		return err
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("save: zstd writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return fmt.Errorf("save: zstd write: %w", err)
	}
	return zw.Close()
}

// Decode fully parses r into a detached Envelope, migrating a version 1
// document in place, and rejects anything older. It performs no writes to
// any live state — see Apply for that step. reg is only consulted to
// resolve V1's positional item codes back to canonical string IDs; a V2
// document never touches it.
func Decode(r io.Reader, reg *taxonomy.Registry) (*Envelope, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("save: read: %w", err)
	}
	if len(raw) >= 4 && [4]byte(raw[:4]) == zstdMagic {
		zr, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("save: zstd reader: %w", err)
		}
		defer zr.Close()
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("save: zstd read: %w", err)
		}
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("save: malformed envelope: %w", err)
	}
	if probe.Version < MinSupportedVersion {
		return nil, fmt.Errorf("save: version %d is older than the oldest supported version %d", probe.Version, MinSupportedVersion)
	}
	if probe.Version > CurrentVersion {
		return nil, fmt.Errorf("save: version %d is newer than this build supports (%d)", probe.Version, CurrentVersion)
	}

	if probe.Version == 1 {
		return migrateV1(raw, reg)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("save: malformed envelope: %w", err)
	}
	return &env, nil
}

// v1Envelope is the version 1 save format: items are addressed by their
// positional Handle value rather than a canonical string ID. That made a
// V1 file fragile against any reordering of taxonomy.DefaultDefinitions
// between releases, which is exactly what V2's string-keyed format fixes;
// migrateV1 below is the one-time bridge for files written before the
// change.
type v1Envelope struct {
	Version   int            `json:"version"`
	Player    v1Player       `json:"player"`
	Inventory []v1ItemCount  `json:"inventory"`
	World     v1World        `json:"world"`
	Machines  []v1Machine    `json:"machines"`
	Conveyors []v1Conveyor   `json:"conveyors"`
	Quests    []v1Quest      `json:"quests"`
}

type v1Player struct {
	Position Vec3    `json:"position"`
	Yaw      float64 `json:"yaw"`
	Pitch    float64 `json:"pitch"`
	Creative bool    `json:"creative"`
}

type v1ItemCount struct {
	Item  int    `json:"item"`
	Count uint32 `json:"count"`
}

type v1ChunkDiff struct {
	Pos  [3]int32 `json:"pos"`
	Diff string   `json:"diff"`
}

type v1World struct {
	Seed   int64         `json:"seed"`
	Chunks []v1ChunkDiff `json:"chunks"`
}

type v1Machine struct {
	Pos           [3]int32 `json:"pos"`
	Role          int      `json:"role"`
	Facing        int      `json:"facing"`
	Buffer        []int    `json:"buffer,omitempty"`
	MineProgress  int      `json:"mine_progress,omitempty"`
	Input         int      `json:"input,omitempty"`
	InputCount    uint32   `json:"input_count,omitempty"`
	Fuel          int      `json:"fuel,omitempty"`
	FuelCount     uint32   `json:"fuel_count,omitempty"`
	Output        int      `json:"output,omitempty"`
	OutputCount   uint32   `json:"output_count,omitempty"`
	SmeltProgress float64  `json:"smelt_progress,omitempty"`
	FuelRemaining float64  `json:"fuel_remaining,omitempty"`
}

type v1ConveyorItem struct {
	Item     int     `json:"item"`
	Progress float64 `json:"progress"`
}

type v1Conveyor struct {
	Pos             [3]int32         `json:"pos"`
	Facing          int              `json:"facing"`
	Shape           int              `json:"shape"`
	OutputDirection int              `json:"output_direction"`
	ExplicitSplit   bool             `json:"explicit_split,omitempty"`
	SplitCounter    int              `json:"split_counter,omitempty"`
	Items           []v1ConveyorItem `json:"items,omitempty"`
}

type v1Quest struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
}

// migrateV1 parses a version 1 document and rewrites it as a version 2
// Envelope, resolving every positional item code against reg (V1's codes
// were raw taxonomy.Handle values from whatever registration order was
// live when the file was written; since DefaultDefinitions has never
// reordered or removed an entry, today's registry resolves them exactly).
// A code outside the registry's range is rendered as an unresolvable
// synthetic ID instead, so it still surfaces through Apply's normal
// unknown-ID warning path rather than silently vanishing.
func migrateV1(raw []byte, reg *taxonomy.Registry) (*Envelope, error) {
	var v1 v1Envelope
	if err := json.Unmarshal(raw, &v1); err != nil {
		return nil, fmt.Errorf("save: malformed v1 envelope: %w", err)
	}

	env := &Envelope{
		Version: CurrentVersion,
		Player: PlayerState{
			Position: v1.Player.Position,
			Yaw:      v1.Player.Yaw,
			Pitch:    v1.Player.Pitch,
			Mode:     kinematics.Survival.String(),
		},
		World: WorldState{Seed: v1.World.Seed},
	}
	if v1.Player.Creative {
		env.Player.Mode = kinematics.Creative.String()
	}

	for _, ic := range v1.Inventory {
		env.Inventory = append(env.Inventory, ItemCount{Item: v1ItemID(reg, ic.Item), Count: ic.Count})
	}

	for _, cd := range v1.World.Chunks {
		env.World.Chunks = append(env.World.Chunks, ChunkDiff{Pos: cd.Pos, Diff: migrateV1ChunkDiff(cd.Diff, reg)})
	}

	for _, m := range v1.Machines {
		mr := MachineRecord{
			Pos:           m.Pos,
			Role:          v1Role(m.Role),
			Facing:        v1Direction(m.Facing),
			MineProgress:  m.MineProgress,
			InputCount:    m.InputCount,
			FuelCount:     m.FuelCount,
			OutputCount:   m.OutputCount,
			SmeltProgress: m.SmeltProgress,
			FuelRemaining: m.FuelRemaining,
		}
		for _, item := range m.Buffer {
			mr.Buffer = append(mr.Buffer, v1ItemID(reg, item))
		}
		if m.InputCount > 0 {
			mr.Input = v1ItemID(reg, m.Input)
		}
		if m.FuelCount > 0 {
			mr.Fuel = v1ItemID(reg, m.Fuel)
		}
		if m.OutputCount > 0 {
			mr.Output = v1ItemID(reg, m.Output)
		}
		env.Machines = append(env.Machines, mr)
	}

	for _, c := range v1.Conveyors {
		cr := ConveyorRecord{
			Pos:             c.Pos,
			Facing:          v1Direction(c.Facing),
			Shape:           v1Shape(c.Shape),
			OutputDirection: v1Direction(c.OutputDirection),
			ExplicitSplit:   c.ExplicitSplit,
			SplitCounter:    c.SplitCounter,
		}
		for _, it := range c.Items {
			cr.Items = append(cr.Items, ConveyorItemRecord{Item: v1ItemID(reg, it.Item), Progress: it.Progress})
		}
		env.Conveyors = append(env.Conveyors, cr)
	}

	for _, q := range v1.Quests {
		env.Quests = append(env.Quests, QuestRecord{ID: q.ID, Status: v1QuestStatus(q.Status)})
	}

	return env, nil
}

// v1ItemID resolves a V1 positional item code against reg, the way it
// always would have been looked up at runtime: the code is a raw Handle
// value. A code outside reg's range renders as a synthetic ID that Apply's
// Lookup will predictably fail on, the same as any other unknown ID.
func v1ItemID(reg *taxonomy.Registry, code int) string {
	if code < 0 || code >= reg.Len() {
		return fmt.Sprintf("foundrycraft:legacy_unknown_%d", code)
	}
	return reg.ID(taxonomy.Handle(code))
}

func migrateV1ChunkDiff(encoded string, reg *taxonomy.Registry) string {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	r := wire.NewReader(raw)
	count, err := r.VarInt()
	if err != nil {
		return ""
	}
	out := wire.NewWriter()
	out.PutVarInt(count)
	for i := int32(0); i < count; i++ {
		idx, err := r.Uint16()
		if err != nil {
			break
		}
		legacyID, err := r.Int32()
		if err != nil {
			break
		}
		out.PutUint16(idx)
		out.PutString(v1ItemID(reg, int(legacyID)))
	}
	return base64.StdEncoding.EncodeToString(out.Bytes())
}

func v1Role(code int) string {
	switch code {
	case 1:
		return "furnace"
	case 2:
		return "crusher"
	default:
		return "miner"
	}
}

func v1Direction(code int) string {
	switch code {
	case 1:
		return "south"
	case 2:
		return "east"
	case 3:
		return "west"
	default:
		return "north"
	}
}

func v1Shape(code int) string {
	switch code {
	case 1:
		return "corner_left"
	case 2:
		return "corner_right"
	case 3:
		return "t_junction"
	case 4:
		return "splitter"
	default:
		return "straight"
	}
}

func v1QuestStatus(code int) string {
	switch code {
	case 1:
		return "completable"
	case 2:
		return "claimed"
	default:
		return "active"
	}
}
