package taxonomy

// MachineKind distinguishes the recipe tables of the three crafting
// machines. Miners don't craft (they have no recipe table); delivery
// platforms never craft either.
type MachineKind int

const (
	MachineFurnace MachineKind = iota
	MachineCrusher
)

func (k MachineKind) String() string {
	switch k {
	case MachineFurnace:
		return "furnace"
	case MachineCrusher:
		return "crusher"
	default:
		return "unknown"
	}
}

// Recipe describes a single-input, single-output transformation.
type Recipe struct {
	Input        Handle
	Output       Handle
	OutputCount  uint32
	Time         float64 // ticks to complete
	RequiresFuel bool
}

// recipeKey keys the recipe table by machine kind and input.
type recipeKey struct {
	Kind  MachineKind
	Input Handle
}

// RecipeBook is a keyed lookup table of Recipes, built once from a
// Registry so recipe inputs/outputs are resolved to Handles up front rather
// than re-resolved on every machine tick.
type RecipeBook struct {
	recipes map[recipeKey]Recipe
}

// NewDefaultRecipeBook builds the recipe table for the built-in catalogue:
// ores smelt into ingots in a furnace, and ores crush into dusts (2x yield)
// in a crusher, matching spec.md §9's "crusher doubles output" note.
func NewDefaultRecipeBook(reg *Registry) *RecipeBook {
	b := &RecipeBook{recipes: make(map[recipeKey]Recipe)}

	ironOre := reg.MustLookup("foundrycraft:iron_ore")
	copperOre := reg.MustLookup("foundrycraft:copper_ore")
	ironIngot := reg.MustLookup("foundrycraft:iron_ingot")
	copperIngot := reg.MustLookup("foundrycraft:copper_ingot")
	ironDust := reg.MustLookup("foundrycraft:iron_dust")
	copperDust := reg.MustLookup("foundrycraft:copper_dust")

	b.add(MachineFurnace, Recipe{Input: ironOre, Output: ironIngot, OutputCount: 1, Time: 120, RequiresFuel: true})
	b.add(MachineFurnace, Recipe{Input: copperOre, Output: copperIngot, OutputCount: 1, Time: 120, RequiresFuel: true})
	b.add(MachineCrusher, Recipe{Input: ironOre, Output: ironDust, OutputCount: 2, Time: 90, RequiresFuel: false})
	b.add(MachineCrusher, Recipe{Input: copperOre, Output: copperDust, OutputCount: 2, Time: 90, RequiresFuel: false})

	return b
}

func (b *RecipeBook) add(kind MachineKind, r Recipe) {
	b.recipes[recipeKey{kind, r.Input}] = r
}

// Lookup returns the recipe for a given machine kind and input, if any.
func (b *RecipeBook) Lookup(kind MachineKind, input Handle) (Recipe, bool) {
	r, ok := b.recipes[recipeKey{kind, input}]
	return r, ok
}

// FuelValue returns how many ticks of smelt progress one unit of the given
// fuel item provides, and whether it is a valid fuel at all. Coal is the
// only fuel in the default catalogue; matches Scenario A's T_fuel = 480.
func FuelValue(reg *Registry, item Handle) (float64, bool) {
	coal, ok := reg.Lookup("foundrycraft:coal_ore")
	if ok && item == coal {
		return 480, true
	}
	return 0, false
}
