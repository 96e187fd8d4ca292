package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
)

// newEntities creates n live entities to use as handles in tests.
func newEntities(t *testing.T, n int) []ecs.Entity {
	t.Helper()
	world := ecs.NewWorld()
	mapper := ecs.NewMap1[components.Rock](world)
	out := make([]ecs.Entity, n)
	for i := range out {
		out[i] = mapper.NewEntity(&components.Rock{})
	}
	return out
}

type fakePlants map[components.EntityRef]components.Plant

func (f fakePlants) Plant(ref components.EntityRef) (components.Plant, bool) {
	p, ok := f[ref]
	return p, ok
}

type agentEntry struct {
	pos   components.Position
	agent components.Agent
}

type fakeAgents map[ecs.Entity]agentEntry

func (f fakeAgents) Agent(e ecs.Entity) (components.Position, components.Agent, bool) {
	a, ok := f[e]
	return a.pos, a.agent, ok
}

// newTestContext returns a context over an empty grid of the given width
// with dt 0.1 and tolerance 0.2.
func newTestContext(width int) *TickContext {
	grid := NewGrid(width)
	full := []int{width}
	var search SearchTable
	for k := range search {
		search[k] = full
	}
	return &TickContext{
		Grid:        grid,
		Plants:      fakePlants{},
		Agents:      fakeAgents{},
		Search:      search,
		FarmerTasks: []components.TileKind{components.TileRock, components.TileTilled, components.TilePlant, components.TileHarvest},
		DT:          0.1,
		Tolerance:   0.2,
		MaxGrowth:   1,
		CarryHeight: 1,
		Seed:        7,
	}
}

func at(row, col int) components.GridCoord {
	return components.GridCoord{Row: row, Col: col}
}

func approx(a, b float32) bool {
	return absf(a-b) < 1e-4
}
