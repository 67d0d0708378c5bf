// Package taxonomy holds the closed set of block/item kinds the simulation
// knows about: display data, stack sizes, categories, and break drops.
//
// Per the registry-over-enum design, a BlockKind constant is only a
// convenient Go-side literal. The numeric identity a chunk or inventory
// actually stores is a Handle, resolved from the registry at init time, and
// the identity that survives a save file is the string ID. This keeps save
// compatibility stable even if BlockKind constants are reordered, and
// leaves room for a future modding registration path without committing to
// one now.
package taxonomy

// Handle is the internal numeric identity of a registered kind. Zero is
// always Air.
type Handle uint16

// Category groups kinds for UI and recipe lookups.
type Category int

const (
	CategoryTerrain Category = iota
	CategoryOre
	CategoryProcessed
	CategoryMachine
	CategoryLogistics
	CategoryTool
)

func (c Category) String() string {
	switch c {
	case CategoryTerrain:
		return "terrain"
	case CategoryOre:
		return "ore"
	case CategoryProcessed:
		return "processed"
	case CategoryMachine:
		return "machine"
	case CategoryLogistics:
		return "logistics"
	case CategoryTool:
		return "tool"
	default:
		return "unknown"
	}
}

// Definition is the immutable data carried by every registered kind.
type Definition struct {
	ID          string // canonical save-file string ID
	DisplayName string
	ShortName   string
	Color       string // hex fallback-rendering color, e.g. "#8a8a8a"
	Category    Category
	StackSize   uint32
	Placeable   bool
	Hardness    float64
	DropsID     string // canonical ID of the dropped kind, "" for none
}

// BlockKind is a convenient compile-time reference to a well-known
// definition. Its integer value has no meaning outside this package; always
// resolve it to a Handle through a Registry before storing it anywhere.
type BlockKind int

const (
	Air BlockKind = iota
	Stone
	Dirt
	Grass
	IronOre
	CopperOre
	CoalOre
	IronIngot
	CopperIngot
	IronDust
	CopperDust
	Miner
	Furnace
	Crusher
	Conveyor
	DeliveryPlatform
)

// DefaultDefinitions returns the built-in catalogue in registration order.
// Order matters: it determines the Handle values NewDefaultRegistry assigns,
// which in turn determines stable inventory iteration order (§3 "Global
// inventory... Iteration is stable by BlockType enumeration order").
func DefaultDefinitions() []Definition {
	return []Definition{
		{ID: "foundrycraft:air", DisplayName: "Air", ShortName: "air", Color: "#000000", Category: CategoryTerrain, StackSize: 0, Placeable: false, Hardness: 0},
		{ID: "foundrycraft:stone", DisplayName: "Stone", ShortName: "stone", Color: "#7a7a7a", Category: CategoryTerrain, StackSize: 64, Placeable: true, Hardness: 1.5, DropsID: "foundrycraft:stone"},
		{ID: "foundrycraft:dirt", DisplayName: "Dirt", ShortName: "dirt", Color: "#6b4a2c", Category: CategoryTerrain, StackSize: 64, Placeable: true, Hardness: 0.5, DropsID: "foundrycraft:dirt"},
		{ID: "foundrycraft:grass", DisplayName: "Grass Block", ShortName: "grass", Color: "#4b8f2d", Category: CategoryTerrain, StackSize: 64, Placeable: true, Hardness: 0.6, DropsID: "foundrycraft:dirt"},
		{ID: "foundrycraft:iron_ore", DisplayName: "Iron Ore", ShortName: "iron_ore", Color: "#d8c7b6", Category: CategoryOre, StackSize: 64, Placeable: true, Hardness: 3.0, DropsID: "foundrycraft:iron_ore"},
		{ID: "foundrycraft:copper_ore", DisplayName: "Copper Ore", ShortName: "copper_ore", Color: "#c6753d", Category: CategoryOre, StackSize: 64, Placeable: true, Hardness: 3.0, DropsID: "foundrycraft:copper_ore"},
		{ID: "foundrycraft:coal_ore", DisplayName: "Coal Ore", ShortName: "coal_ore", Color: "#2b2b2b", Category: CategoryOre, StackSize: 64, Placeable: true, Hardness: 3.0, DropsID: "foundrycraft:coal_ore"},
		{ID: "foundrycraft:iron_ingot", DisplayName: "Iron Ingot", ShortName: "iron_ingot", Color: "#e4e4e4", Category: CategoryProcessed, StackSize: 64, Placeable: false, Hardness: 0},
		{ID: "foundrycraft:copper_ingot", DisplayName: "Copper Ingot", ShortName: "copper_ingot", Color: "#e8833e", Category: CategoryProcessed, StackSize: 64, Placeable: false, Hardness: 0},
		{ID: "foundrycraft:iron_dust", DisplayName: "Iron Dust", ShortName: "iron_dust", Color: "#9c8a7a", Category: CategoryProcessed, StackSize: 64, Placeable: false, Hardness: 0},
		{ID: "foundrycraft:copper_dust", DisplayName: "Copper Dust", ShortName: "copper_dust", Color: "#b8754a", Category: CategoryProcessed, StackSize: 64, Placeable: false, Hardness: 0},
		{ID: "foundrycraft:miner", DisplayName: "Miner", ShortName: "miner", Color: "#5a5a7a", Category: CategoryMachine, StackSize: 1, Placeable: true, Hardness: 2.5, DropsID: "foundrycraft:miner"},
		{ID: "foundrycraft:furnace", DisplayName: "Furnace", ShortName: "furnace", Color: "#555555", Category: CategoryMachine, StackSize: 1, Placeable: true, Hardness: 2.5, DropsID: "foundrycraft:furnace"},
		{ID: "foundrycraft:crusher", DisplayName: "Crusher", ShortName: "crusher", Color: "#445544", Category: CategoryMachine, StackSize: 1, Placeable: true, Hardness: 2.5, DropsID: "foundrycraft:crusher"},
		{ID: "foundrycraft:conveyor", DisplayName: "Conveyor", ShortName: "conveyor", Color: "#777733", Category: CategoryLogistics, StackSize: 64, Placeable: true, Hardness: 0.8, DropsID: "foundrycraft:conveyor"},
		{ID: "foundrycraft:delivery_platform", DisplayName: "Delivery Platform", ShortName: "delivery", Color: "#336699", Category: CategoryLogistics, StackSize: 1, Placeable: true, Hardness: 2.0, DropsID: "foundrycraft:delivery_platform"},
	}
}
