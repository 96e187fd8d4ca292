package systems

import (
	"testing"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/config"
)

func TestChooseTask(t *testing.T) {
	ctx := newTestContext(8)

	drone := components.Agent{Kind: components.KindDrone}
	if got := ChooseTask(ctx, &drone); got != components.TileHarvest {
		t.Errorf("fresh drone task = %v, want harvest", got)
	}
	drone.Intent.Kind = components.TileHarvest
	if got := ChooseTask(ctx, &drone); got != components.TileStore {
		t.Errorf("drone after harvest = %v, want store", got)
	}
	drone.Intent.Kind = components.TileStore
	if got := ChooseTask(ctx, &drone); got != components.TileHarvest {
		t.Errorf("drone after store = %v, want harvest", got)
	}

	farmer := components.Agent{Kind: components.KindFarmer, ID: 3, Intent: components.Intent{Kind: components.TileHarvest}}
	if got := ChooseTask(ctx, &farmer); got != components.TileStore {
		t.Errorf("farmer after harvest = %v, want store", got)
	}

	farmer.Intent.Kind = components.TileRock
	seen := make(map[components.TileKind]bool)
	for tick := int32(0); tick < 200; tick++ {
		ctx.Tick = tick
		kind := ChooseTask(ctx, &farmer)
		if kind == components.TileStore || kind == components.TileEmpty {
			t.Fatalf("farmer picked %v outside the menu", kind)
		}
		seen[kind] = true
		if again := ChooseTask(ctx, &farmer); again != kind {
			t.Fatalf("choice not deterministic at tick %d: %v then %v", tick, kind, again)
		}
	}
	if len(seen) != 4 {
		t.Errorf("farmer picked %d distinct tasks over 200 ticks, want 4", len(seen))
	}
}

// A rock on the straight route redirects the farmer to mine it.
func TestDispatchRockRedirectStraight(t *testing.T) {
	ctx := newTestContext(8)
	ents := newEntities(t, 2)
	farmer, rock := ents[0], ents[1]
	rockRef := components.EntityRef{Entity: rock}
	ctx.Grid.Insert(at(2, 0), components.Cell{Kind: components.TileRock, Occupant: rockRef})

	pos := components.Position{X: 0.5, Z: 0.5}
	a := components.Agent{Kind: components.KindFarmer}
	var out Requests
	Dispatch(ctx, farmer, &pos, &a, components.TileTilled, at(4, 0), &out)

	if a.Intent.Kind != components.TileRock || a.Intent.Claimed != rockRef {
		t.Errorf("intent = %+v, want rock claim", a.Intent)
	}
	if a.Target != (components.Position{X: 2.5, Z: 0.5}) {
		t.Errorf("target = %+v, want rock center", a.Target)
	}
	if a.HasWaypoint {
		t.Error("rock in the same column should clear the waypoint")
	}
	if len(out.Claims) != 1 || out.Claims[0].Cell != at(2, 0) || out.Claims[0].Expect != components.TileRock {
		t.Errorf("claims = %+v", out.Claims)
	}
	if s, ok := lastAgentState(t, &out); !ok || s != components.Moving {
		t.Errorf("state = %v, want moving", s)
	}
	if out.Stats.RockRedirects != 1 {
		t.Errorf("rock redirects = %d, want 1", out.Stats.RockRedirects)
	}
}

func TestDispatchRockRedirectOffAxis(t *testing.T) {
	ctx := newTestContext(8)
	ents := newEntities(t, 2)
	ctx.Grid.Insert(at(2, 3), components.Cell{Kind: components.TileRock, Occupant: components.EntityRef{Entity: ents[1]}})

	pos := components.Position{X: 0.5, Z: 0.5}
	a := components.Agent{Kind: components.KindFarmer}
	var out Requests
	// Route bends at (0,3): Z first since |dz|=3 < |dx|=4
	Dispatch(ctx, ents[0], &pos, &a, components.TileTilled, at(4, 3), &out)

	if a.Intent.Kind != components.TileRock {
		t.Fatalf("intent = %v, want rock", a.Intent.Kind)
	}
	if !a.HasWaypoint {
		t.Fatal("off-axis rock should get a fresh waypoint")
	}
	want, _ := Waypoint(pos, components.Position{X: 2.5, Z: 3.5})
	if a.Waypoint != want {
		t.Errorf("waypoint = %+v, want %+v", a.Waypoint, want)
	}
}

func TestDispatchInterruptedStoreDropsCargo(t *testing.T) {
	ctx := newTestContext(8)
	ents := newEntities(t, 3)
	cargo := components.EntityRef{Entity: ents[2], Gen: 4}
	ctx.Grid.Insert(at(0, 2), components.Cell{Kind: components.TileRock, Occupant: components.EntityRef{Entity: ents[1]}})
	ctx.Grid.Insert(at(0, 5), components.Cell{Kind: components.TileStore})

	pos := components.Position{X: 0.5, Z: 0.5}
	a := components.Agent{Kind: components.KindFarmer, Carrying: cargo, Intent: components.Intent{Kind: components.TileHarvest}}
	var out Requests
	Dispatch(ctx, ents[0], &pos, &a, components.TileStore, at(0, 5), &out)

	found := false
	for _, tr := range out.Transitions {
		if tr.Subject == SubjectPlant && tr.Plant == cargo && tr.PlantState == components.PlantMarkedDeleted {
			found = true
		}
	}
	if !found {
		t.Errorf("carried plant not marked deleted: %+v", out.Transitions)
	}
	if out.Stats.AbandonedCargo != 1 {
		t.Errorf("abandoned cargo = %d, want 1", out.Stats.AbandonedCargo)
	}
}

func TestDispatchDroneFliesOverRocks(t *testing.T) {
	ctx := newTestContext(8)
	ents := newEntities(t, 2)
	ctx.Grid.Insert(at(2, 0), components.Cell{Kind: components.TileRock, Occupant: components.EntityRef{Entity: ents[1]}})
	ctx.Grid.Insert(at(4, 0), components.Cell{Kind: components.TileStore})

	pos := components.Position{X: 0.5, Z: 0.5}
	a := components.Agent{Kind: components.KindDrone}
	var out Requests
	Dispatch(ctx, ents[0], &pos, &a, components.TileStore, at(4, 0), &out)

	if a.Intent.Kind != components.TileStore {
		t.Errorf("drone intent = %v, want store", a.Intent.Kind)
	}
	if len(out.Claims) != 0 {
		t.Errorf("store trip made claims: %+v", out.Claims)
	}
}

func TestDispatchClaims(t *testing.T) {
	ents := newEntities(t, 3)
	plantRef := components.EntityRef{Entity: ents[1], Gen: 2}
	rockRef := components.EntityRef{Entity: ents[2]}

	tests := []struct {
		name      string
		kind      components.TileKind
		cell      components.Cell
		growth    float32
		wantClaim bool
		expect    components.TileKind
		moving    bool
	}{
		{"till has no claim", components.TileTilled, components.Cell{}, 0, false, 0, true},
		{"rock claims its own target", components.TileRock, components.Cell{Kind: components.TileRock, Occupant: rockRef}, 0, true, components.TileRock, true},
		{"plant claims tilled", components.TilePlant, components.Cell{Kind: components.TileTilled}, 0, true, components.TileTilled, true},
		{"harvest claims mature plant", components.TileHarvest, components.Cell{Kind: components.TilePlant, Occupant: plantRef}, 1, true, components.TilePlant, true},
		{"harvest skips immature plant", components.TileHarvest, components.Cell{Kind: components.TilePlant, Occupant: plantRef}, 0.5, false, 0, false},
		{"store has no claim", components.TileStore, components.Cell{Kind: components.TileStore}, 0, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(8)
			ctx.Plants = fakePlants{plantRef: {Growth: tt.growth}}
			target := at(0, 3)
			if tt.cell.Kind != components.TileEmpty {
				ctx.Grid.Insert(target, tt.cell)
			}

			pos := components.Position{X: 0.5, Z: 0.5}
			a := components.Agent{Kind: components.KindFarmer}
			var out Requests
			Dispatch(ctx, ents[0], &pos, &a, tt.kind, target, &out)

			if got := len(out.Claims) == 1; got != tt.wantClaim {
				t.Fatalf("claims = %+v, want claim %v", out.Claims, tt.wantClaim)
			}
			if tt.wantClaim && out.Claims[0].Expect != tt.expect {
				t.Errorf("claim expects %v, want %v", out.Claims[0].Expect, tt.expect)
			}
			_, moved := lastAgentState(t, &out)
			if moved != tt.moving {
				t.Errorf("moving = %v, want %v", moved, tt.moving)
			}
			if tt.moving && a.Target != target.Center() {
				t.Errorf("target = %+v, want cell center", a.Target)
			}
			if out.Stats.RockRedirects != 0 {
				t.Errorf("rock redirects = %d, want 0", out.Stats.RockRedirects)
			}
			if tt.kind == components.TileRock && a.Intent.Claimed != rockRef {
				t.Errorf("claimed = %+v, want the target rock", a.Intent.Claimed)
			}
		})
	}
}

func TestPlanTaskRadiusFallback(t *testing.T) {
	ctx := newTestContext(16)
	ctx.FarmerTasks = []components.TileKind{components.TilePlant}
	ctx.Search[components.TilePlant] = []int{2, 6}
	ctx.Grid.Insert(at(5, 5), components.Cell{Kind: components.TileTilled})

	e := newEntities(t, 1)[0]
	pos := components.Position{X: 0.5, Z: 0.5}
	a := components.Agent{Kind: components.KindFarmer}
	var out Requests
	PlanTask(ctx, e, &pos, &a, &out)

	if a.Intent.Kind != components.TilePlant || a.Target != at(5, 5).Center() {
		t.Errorf("intent %v target %+v, want plant at (5.5,5.5)", a.Intent.Kind, a.Target)
	}

	// Only the base radius: nothing in reach
	ctx.Search[components.TilePlant] = []int{2}
	b := components.Agent{Kind: components.KindFarmer}
	var miss Requests
	PlanTask(ctx, e, &pos, &b, &miss)
	if miss.Stats.PlanningMisses != 1 || len(miss.Transitions) != 0 {
		t.Errorf("expected a planning miss, got %+v", miss)
	}
}

func TestPlanTaskDroneFindsMaturePlant(t *testing.T) {
	ctx := newTestContext(10)
	ents := newEntities(t, 2)
	plantRef := components.EntityRef{Entity: ents[1], Gen: 1}
	ctx.Plants = fakePlants{plantRef: {Growth: 1, State: components.PlantDormant}}
	ctx.Search[components.TileHarvest] = []int{5}
	ctx.Grid.Insert(at(4, 4), components.Cell{Kind: components.TilePlant, Occupant: plantRef})

	pos := components.Position{X: 1.5, Z: 1.5}
	a := components.Agent{Kind: components.KindDrone}
	var out Requests
	PlanTask(ctx, ents[0], &pos, &a, &out)

	if a.Intent.Kind != components.TileHarvest || a.Intent.Claimed != plantRef {
		t.Fatalf("intent = %+v, want harvest of plant", a.Intent)
	}
	if len(out.Claims) != 1 || out.Claims[0].Cell != at(4, 4) {
		t.Errorf("claims = %+v", out.Claims)
	}
}

func TestNewSearchTable(t *testing.T) {
	radii := searchRadii(config.SearchConfig{Fraction: 0.25, Retries: []float64{3}, FullBoard: true}, 64)
	want := []int{16, 48, 64}
	if len(radii) != len(want) {
		t.Fatalf("radii = %v, want %v", radii, want)
	}
	for i := range want {
		if radii[i] != want[i] {
			t.Errorf("radii[%d] = %d, want %d", i, radii[i], want[i])
		}
	}
}

func TestSearchRadiiSmallBoard(t *testing.T) {
	// Retries that don't grow the radius are dropped
	radii := searchRadii(config.SearchConfig{Fraction: 0.1, Retries: []float64{1}, FullBoard: true}, 4)
	if len(radii) != 2 || radii[0] != 1 || radii[1] != 4 {
		t.Errorf("radii = %v, want [1 4]", radii)
	}
}
