package systems

import (
	"testing"

	"github.com/pthm-cable/colony/components"
)

func TestUpdatePlantGrowthClamped(t *testing.T) {
	ctx := newTestContext(8)
	ctx.DT = 0.3
	e := newEntities(t, 1)[0]
	p := components.Plant{State: components.PlantGrowing}
	pos := components.Position{}
	ref := p.Ref(e)

	prev := p.Growth
	for i := 0; i < 10; i++ {
		var out Requests
		UpdatePlant(ctx, ref, &pos, &p, &out)
		if p.Growth < prev {
			t.Fatalf("growth decreased: %v -> %v", prev, p.Growth)
		}
		if p.Growth > ctx.MaxGrowth {
			t.Fatalf("growth %v above max %v", p.Growth, ctx.MaxGrowth)
		}
		prev = p.Growth
	}
	if p.State != components.PlantDormant || p.Growth != ctx.MaxGrowth {
		t.Errorf("plant = %+v, want dormant at max growth", p)
	}
}

func TestUpdatePlantFollowsCarrier(t *testing.T) {
	ctx := newTestContext(8)
	ents := newEntities(t, 2)
	carrier, plantE := ents[0], ents[1]
	p := components.Plant{Gen: 2, State: components.PlantReserved, Growth: 1, Carrier: carrier}
	ref := p.Ref(plantE)

	ctx.Agents = fakeAgents{carrier: {
		pos: components.Position{X: 2.5, Z: 3.0},
		agent: components.Agent{
			Carrying: ref,
			Target:   components.Position{X: 6.5, Z: 3.5},
			Intent:   components.Intent{Kind: components.TileStore},
		},
	}}

	pos := components.Position{X: 2.5, Z: 2.5}
	var out Requests
	UpdatePlant(ctx, ref, &pos, &p, &out)

	if p.State != components.PlantFollowing {
		t.Errorf("state = %v, want following", p.State)
	}
	if pos != (components.Position{X: 2.5, Y: 1, Z: 3.0}) {
		t.Errorf("pos = %+v, want carrier position lifted", pos)
	}
	if len(out.Spawns) != 0 || len(out.Transitions) != 0 {
		t.Errorf("unexpected requests before arrival: %+v", out)
	}
}

func TestUpdatePlantSale(t *testing.T) {
	ctx := newTestContext(10)
	ents := newEntities(t, 2)
	carrier, plantE := ents[0], ents[1]
	p := components.Plant{Gen: 1, State: components.PlantFollowing, Growth: 1, Carrier: carrier}
	ref := p.Ref(plantE)

	store := components.Position{X: 8.5, Z: 8.5}
	ctx.Agents = fakeAgents{carrier: {
		pos:   components.Position{X: 8.5, Z: 8.45},
		agent: components.Agent{Carrying: ref, Target: store, Intent: components.Intent{Kind: components.TileStore}},
	}}

	pos := components.Position{}
	var out Requests
	UpdatePlant(ctx, ref, &pos, &p, &out)

	if len(out.Spawns) != 1 {
		t.Fatalf("spawns = %+v, want one sale", out.Spawns)
	}
	s := out.Spawns[0]
	if s.Kind != SpawnFarmer || !s.Sale || s.Cell != at(8, 8) {
		t.Errorf("sale spawn = %+v", s)
	}
	if len(out.Transitions) != 1 || out.Transitions[0].PlantState != components.PlantMarkedDeleted {
		t.Errorf("transitions = %+v, want marked deleted", out.Transitions)
	}
}

func TestUpdatePlantOrphaned(t *testing.T) {
	ctx := newTestContext(8)
	ents := newEntities(t, 2)
	p := components.Plant{Gen: 1, State: components.PlantFollowing, Carrier: ents[0]}
	ref := p.Ref(ents[1])
	// Carrier exists but carries something else
	ctx.Agents = fakeAgents{ents[0]: {agent: components.Agent{}}}

	pos := components.Position{}
	var out Requests
	UpdatePlant(ctx, ref, &pos, &p, &out)

	if len(out.Transitions) != 1 || out.Transitions[0].PlantState != components.PlantMarkedDeleted {
		t.Errorf("transitions = %+v, want marked deleted", out.Transitions)
	}
}

func TestUpdatePlantMarkedDeleted(t *testing.T) {
	ctx := newTestContext(8)
	e := newEntities(t, 1)[0]
	p := components.Plant{Gen: 5, State: components.PlantMarkedDeleted}
	ref := p.Ref(e)

	pos := components.Position{}
	var out Requests
	UpdatePlant(ctx, ref, &pos, &p, &out)

	if len(out.Destroys) != 1 || out.Destroys[0].Kind != DestroyPlant || out.Destroys[0].Ref != ref {
		t.Errorf("destroys = %+v", out.Destroys)
	}
}

func TestUpdatePlantIdleStates(t *testing.T) {
	for _, state := range []components.PlantState{components.PlantSeeded, components.PlantDormant, components.PlantPooled} {
		ctx := newTestContext(8)
		e := newEntities(t, 1)[0]
		p := components.Plant{State: state, Growth: 0.4}
		pos := components.Position{}
		var out Requests
		UpdatePlant(ctx, p.Ref(e), &pos, &p, &out)
		if p.State != state || p.Growth != 0.4 {
			t.Errorf("%v plant changed: %+v", state, p)
		}
	}
}
