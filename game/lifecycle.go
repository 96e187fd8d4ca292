package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
)

// spawnAgent creates a farmer or drone at pos, already in NeedsTask.
func (g *Game) spawnAgent(kind components.AgentKind, pos components.Position) ecs.Entity {
	id := g.nextID
	g.nextID++

	speed := g.cfg.Derived.FarmerSpeed32
	vk := components.VisualFarmer
	if kind == components.KindDrone {
		speed = g.cfg.Derived.DroneSpeed32
		vk = components.VisualDrone
	}

	agent := components.Agent{
		ID:    id,
		Kind:  kind,
		State: components.NeedsTask,
		Speed: speed,
	}
	vis := components.Visual{Handle: g.visuals.InstantiateVisualEntity(vk, pos)}

	e := g.agentMap.NewEntity(&pos, &agent, &vis)
	g.ledger.Register(id, kind, g.tick)
	return e
}

// placeStore marks a store cell.
func (g *Game) placeStore(c components.GridCoord) {
	g.grid.Insert(c, components.Cell{Kind: components.TileStore})
	g.visuals.SetTileVisual(c, components.TileStore)
}

// placeRock creates a rock entity and its grid record.
func (g *Game) placeRock(c components.GridCoord) ecs.Entity {
	rock := components.Rock{Cell: c}
	vis := components.Visual{Handle: g.visuals.InstantiateVisualEntity(components.VisualRock, c.Center())}
	e := g.rockMap.NewEntity(&rock, &vis)
	g.grid.Insert(c, components.Cell{Kind: components.TileRock, Occupant: components.EntityRef{Entity: e}})
	return e
}

// destroyRock removes a mined rock. The grid record went with its claim.
func (g *Game) destroyRock(e ecs.Entity) bool {
	if !g.world.Alive(e) {
		return false
	}
	_, vis := g.rockMap.Get(e)
	g.visuals.DestroyVisualEntity(vis.Handle)
	g.world.RemoveEntity(e)
	return true
}

// allocPlant takes a plant from the free-list, or creates one, and seeds it
// at cell. The plant stays hidden until it is planted.
func (g *Game) allocPlant(cell components.GridCoord) components.EntityRef {
	var e ecs.Entity
	if n := len(g.freePlants); n > 0 {
		e = g.freePlants[n-1]
		g.freePlants = g.freePlants[:n-1]
	} else {
		pos := components.Position{}
		plant := components.Plant{State: components.PlantPooled}
		vis := components.Visual{}
		e = g.plantMap.NewEntity(&pos, &plant, &vis)
	}

	pos, plant, _ := g.plantMap.Get(e)
	*pos = cell.Center()
	plant.State = components.PlantSeeded
	plant.Growth = 0
	plant.Cell = cell
	plant.Carrier = ecs.Entity{}
	plant.Claimer = ecs.Entity{}
	return plant.Ref(e)
}

// activatePlant turns a seeded plant into a growing one and shows it.
func (g *Game) activatePlant(ref components.EntityRef) bool {
	pos, plant, vis, ok := g.plantRecord(ref)
	if !ok || plant.State != components.PlantSeeded {
		return false
	}
	plant.State = components.PlantGrowing
	*pos = plant.Cell.Center()
	vis.Handle = g.visuals.InstantiateVisualEntity(components.VisualPlant, *pos)
	return true
}

// releasePlant returns a plant to the free-list. Bumping the generation
// invalidates every ref still held to it.
func (g *Game) releasePlant(ref components.EntityRef) bool {
	_, plant, vis, ok := g.plantRecord(ref)
	if !ok || plant.State != components.PlantMarkedDeleted {
		return false
	}

	if vis.Handle != 0 {
		g.visuals.DestroyVisualEntity(vis.Handle)
		vis.Handle = 0
	}
	if plant.Carrier != (ecs.Entity{}) {
		g.unlinkCarrier(plant.Carrier, ref)
	}
	if cell, found := g.grid.Get(plant.Cell); found && cell.Kind == components.TilePlant && cell.Occupant == ref {
		g.grid.Remove(plant.Cell)
		g.setTileOnce(plant.Cell, components.TileEmpty)
	}

	plant.State = components.PlantPooled
	plant.Gen++
	plant.Growth = 0
	plant.Carrier = ecs.Entity{}
	plant.Claimer = ecs.Entity{}
	g.freePlants = append(g.freePlants, ref.Entity)
	return true
}

// plantRecord resolves a generation-checked plant ref to its components.
func (g *Game) plantRecord(ref components.EntityRef) (*components.Position, *components.Plant, *components.Visual, bool) {
	if !ref.Valid() || !g.world.Alive(ref.Entity) {
		return nil, nil, nil, false
	}
	pos, plant, vis := g.plantMap.Get(ref.Entity)
	if plant.Gen != ref.Gen {
		return nil, nil, nil, false
	}
	return pos, plant, vis, true
}

// agentRecord resolves an agent entity to its components.
func (g *Game) agentRecord(e ecs.Entity) (*components.Position, *components.Agent, bool) {
	if e == (ecs.Entity{}) || !g.world.Alive(e) {
		return nil, nil, false
	}
	pos, agent, _ := g.agentMap.Get(e)
	return pos, agent, true
}

// unlinkCarrier clears an agent's cargo if it still points at ref.
func (g *Game) unlinkCarrier(e ecs.Entity, ref components.EntityRef) {
	if _, agent, ok := g.agentRecord(e); ok && agent.Carrying == ref {
		agent.Carrying = components.NoRef
	}
}

// violation logs and counts a request that breaks a simulation invariant.
// The request is dropped.
func (g *Game) violation(msg string, args ...any) {
	g.violations++
	g.collector.RecordInvariantViolation()
	slog.Warn("invariant_violation", append([]any{"tick", g.tick, "reason", msg}, args...)...)
}
