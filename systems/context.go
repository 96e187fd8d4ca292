package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/config"
)

// PlantLookup resolves plant refs against the start-of-tick state.
type PlantLookup interface {
	Plant(ref components.EntityRef) (components.Plant, bool)
}

// AgentLookup resolves agents against the start-of-tick state.
type AgentLookup interface {
	Agent(e ecs.Entity) (components.Position, components.Agent, bool)
}

// SearchTable holds the radius fallback sequence for each task kind.
type SearchTable [components.TileStore + 1][]int

// Radii returns the search radii tried, in order, for kind.
func (t *SearchTable) Radii(kind components.TileKind) []int {
	if int(kind) >= len(t) {
		return nil
	}
	return t[kind]
}

// NewSearchTable builds radii from the planner config for a board width.
func NewSearchTable(cfg config.PlannerConfig, width int) SearchTable {
	var t SearchTable
	t[components.TileRock] = searchRadii(cfg.Rock, width)
	t[components.TileTilled] = searchRadii(cfg.Tilled, width)
	t[components.TilePlant] = searchRadii(cfg.Plant, width)
	t[components.TileHarvest] = searchRadii(cfg.Harvest, width)
	t[components.TileStore] = searchRadii(cfg.Store, width)
	return t
}

func searchRadii(sc config.SearchConfig, width int) []int {
	base := int(sc.Fraction * float64(width))
	if base < 1 {
		base = 1
	}
	radii := []int{base}
	for _, m := range sc.Retries {
		r := int(float64(base) * m)
		if r > radii[len(radii)-1] {
			radii = append(radii, r)
		}
	}
	if sc.FullBoard && radii[len(radii)-1] < width {
		radii = append(radii, width)
	}
	return radii
}

// TickContext is the read-only view workers get for one tick.
type TickContext struct {
	Grid   *Grid
	Plants PlantLookup
	Agents AgentLookup
	Search SearchTable

	FarmerTasks []components.TileKind

	DT          float32
	Tolerance   float32
	MaxGrowth   float32
	CarryHeight float32
	Tick        int32
	Seed        uint64
}

// NewTickContext builds the tick-invariant part of the context from config.
func NewTickContext(cfg *config.Config, grid *Grid, seed int64) *TickContext {
	ctx := &TickContext{
		Grid:        grid,
		Search:      NewSearchTable(cfg.Planner, grid.Width()),
		DT:          cfg.Derived.DT32,
		Tolerance:   cfg.Derived.Tolerance32,
		MaxGrowth:   cfg.Derived.MaxGrowth32,
		CarryHeight: cfg.Derived.CarryHeight32,
		Seed:        uint64(seed),
	}
	for _, name := range cfg.Agents.FarmerTasks {
		if kind, ok := components.ParseTaskKind(name); ok {
			ctx.FarmerTasks = append(ctx.FarmerTasks, kind)
		}
	}
	return ctx
}
