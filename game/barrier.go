package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/systems"
)

// drain applies a tick's deferred requests. Order is fixed: write-back,
// transitions, claims, visuals, economy, then remaining spawns and destroys.
func (g *Game) drain(req *systems.Requests) {
	g.writeBack()
	g.applyTransitions(req.Transitions)
	g.applyClaims(req.Claims)
	g.flushVisuals(req.Visuals)
	g.settleEconomy(req.Spawns)
	g.applySpawns(req.Spawns)
	g.applyDestroys(req.Destroys)

	for _, c := range req.Completions {
		if _, agent, ok := g.agentRecord(c.Agent); ok {
			g.ledger.RecordTask(agent.ID, c.Kind)
		}
	}
	g.collector.RecordWork(req.Stats)
}

// writeBack copies the workers' private records into the world.
func (g *Game) writeBack() {
	p := g.parallel

	for i := range p.agentNext {
		u := &p.agentNext[i]
		pos, agent, vis := g.agentMap.Get(u.Entity)
		moved := *pos != u.Pos
		*pos = u.Pos
		*agent = u.Agent
		if moved {
			g.visuals.MoveVisualEntity(vis.Handle, u.Pos, 1)
		}
	}

	for i := range p.plantNext {
		u := &p.plantNext[i]
		pos, plant, vis := g.plantMap.Get(u.Entity)
		changed := *pos != u.Pos || plant.Growth != u.Plant.Growth
		*pos = u.Pos
		*plant = u.Plant
		if changed && vis.Handle != 0 {
			g.visuals.MoveVisualEntity(vis.Handle, u.Pos, g.plantScale(plant.Growth))
		}
	}
}

func (g *Game) plantScale(growth float32) float32 {
	if g.cfg.Derived.MaxGrowth32 <= 0 {
		return 1
	}
	return growth / g.cfg.Derived.MaxGrowth32
}

// applyTransitions applies state changes in FIFO order.
func (g *Game) applyTransitions(ts []systems.Transition) {
	for _, t := range ts {
		if t.Subject == systems.SubjectAgent {
			_, agent, ok := g.agentRecord(t.Agent)
			if !ok {
				g.violation("transition for missing agent", "agent", t.Agent)
				continue
			}
			agent.State = t.AgentState
			continue
		}

		_, plant, _, ok := g.plantRecord(t.Plant)
		if !ok {
			g.violation("transition for stale plant", "state", t.PlantState.String())
			continue
		}

		switch t.PlantState {
		case components.PlantReserved:
			if plant.State != components.PlantDormant || plant.Claimer != t.By {
				g.violation("reserve without claim", "plant_state", plant.State.String())
				continue
			}
			_, carrier, ok := g.agentRecord(t.By)
			if !ok {
				g.violation("reserve by missing agent")
				continue
			}
			plant.State = components.PlantReserved
			plant.Carrier = t.By
			plant.Claimer = ecs.Entity{}
			carrier.Carrying = t.Plant

		case components.PlantMarkedDeleted:
			if plant.State == components.PlantMarkedDeleted {
				continue
			}
			if plant.Carrier != (ecs.Entity{}) {
				g.unlinkCarrier(plant.Carrier, t.Plant)
			}
			plant.State = components.PlantMarkedDeleted
			plant.Carrier = ecs.Entity{}
			plant.Claimer = ecs.Entity{}

		default:
			plant.State = t.PlantState
		}
	}
}

// applyClaims removes claimed cells, first valid claim per cell wins.
// A Tilled claim turns straight into a seeded plant so the planter has
// something to plant on arrival.
func (g *Game) applyClaims(claims []systems.ClaimRemoval) {
	for _, c := range claims {
		cell, found := g.grid.Get(c.Cell)
		if !found || cell.Kind != c.Expect || (c.Occupant.Valid() && cell.Occupant != c.Occupant) {
			g.rejectClaim(c)
			continue
		}

		switch c.Expect {
		case components.TileTilled:
			g.grid.Remove(c.Cell)
			ref := g.allocPlant(c.Cell)
			g.grid.Insert(c.Cell, components.Cell{Kind: components.TilePlant, Occupant: ref})
			// Fetched after the alloc, which may have added an entity
			if _, agent, ok := g.agentRecord(c.Requester); ok {
				agent.Intent.Claimed = ref
			} else {
				g.violation("tilled claim by missing agent")
			}

		case components.TileRock:
			g.grid.Remove(c.Cell)

		case components.TilePlant:
			_, plant, _, ok := g.plantRecord(cell.Occupant)
			if !ok || plant.State != components.PlantDormant {
				g.violation("harvest claim on unavailable plant", "cell", c.Cell)
				g.resetAgent(c.Requester)
				continue
			}
			g.grid.Remove(c.Cell)
			plant.Claimer = c.Requester

		default:
			g.violation("claim of unclaimable kind", "kind", c.Expect.String())
			g.resetAgent(c.Requester)
		}
	}
}

// rejectClaim sends the loser of a claim back to planning.
func (g *Game) rejectClaim(c systems.ClaimRemoval) {
	g.resetAgent(c.Requester)
	g.collector.RecordClaimConflict()
	slog.Debug("claim_conflict", "tick", g.tick, "cell", c.Cell, "kind", c.Expect.String())
}

func (g *Game) resetAgent(e ecs.Entity) {
	_, agent, ok := g.agentRecord(e)
	if !ok {
		return
	}
	agent.State = components.NeedsTask
	agent.Intent = components.Intent{}
	agent.Waypoint, agent.HasWaypoint = components.Position{}, false
}

// flushVisuals forwards tile updates, one per coordinate. The last kind
// written wins; coordinates keep first-seen order.
func (g *Game) flushVisuals(updates []systems.VisualUpdate) {
	clear(g.visualSeen)
	g.visualBatch = g.visualBatch[:0]

	for _, v := range updates {
		if i, seen := g.visualSeen[v.Cell]; seen {
			g.visualBatch[i].Kind = v.Kind
			continue
		}
		g.visualSeen[v.Cell] = len(g.visualBatch)
		g.visualBatch = append(g.visualBatch, v)
	}

	for _, v := range g.visualBatch {
		g.visuals.SetTileVisual(v.Cell, v.Kind)
	}
}

// setTileOnce writes a tile visual unless the coordinate was already
// written this tick.
func (g *Game) setTileOnce(c components.GridCoord, kind components.TileKind) {
	if _, seen := g.visualSeen[c]; seen {
		return
	}
	g.visualSeen[c] = -1
	g.visuals.SetTileVisual(c, kind)
}

// settleEconomy books the tick's sales and buys at most one farmer and one
// drone.
func (g *Game) settleEconomy(spawns []systems.SpawnRequest) {
	sales := 0
	var salePos components.Position

	for _, s := range spawns {
		switch s.Kind {
		case systems.SpawnFarmer:
			if !s.Sale {
				g.violation("farmer spawn without sale")
				continue
			}
			if sales == 0 {
				salePos = s.Pos
			}
			sales++
			if _, agent, ok := g.agentRecord(s.Requester); ok {
				g.ledger.RecordSale(agent.ID)
			}
			g.collector.RecordSale()
		case systems.SpawnDrone:
			g.violation("drone spawn request")
		}
	}

	g.economy.Deposit(sales)
	farmer, drone := g.economy.Settle()

	if farmer {
		pos := salePos
		if sales == 0 {
			pos = g.randomCell().Center()
		}
		g.spawnAgent(components.KindFarmer, pos)
		g.collector.RecordSpawn(components.KindFarmer)
		slog.Debug("economy_spawn", "tick", g.tick, "kind", "farmer", "economy", g.economy.Snapshot())
	}
	if drone {
		g.spawnAgent(components.KindDrone, g.randomCell().Center())
		g.collector.RecordSpawn(components.KindDrone)
		slog.Debug("economy_spawn", "tick", g.tick, "kind", "drone", "economy", g.economy.Snapshot())
	}
}

// applySpawns plants seeded plants. Agent spawns went through the economy.
func (g *Game) applySpawns(spawns []systems.SpawnRequest) {
	for _, s := range spawns {
		if s.Kind != systems.SpawnPlant {
			continue
		}
		_, plant, _, ok := g.plantRecord(s.Plant)
		if !ok || plant.Cell != s.Cell {
			g.violation("plant spawn without seeded cell", "cell", s.Cell)
			continue
		}
		if !g.activatePlant(s.Plant) {
			g.violation("plant spawn on unseeded plant", "state", plant.State.String())
			continue
		}
		g.collector.RecordPlanted()
	}
}

// applyDestroys removes mined rocks and pools deleted plants.
func (g *Game) applyDestroys(destroys []systems.DestroyRequest) {
	for _, d := range destroys {
		switch d.Kind {
		case systems.DestroyRock:
			if !g.destroyRock(d.Ref.Entity) {
				g.violation("destroy of missing rock")
				continue
			}
			g.collector.RecordRockMined()
		case systems.DestroyPlant:
			if !g.releasePlant(d.Ref) {
				g.violation("destroy of live plant")
			}
		}
	}
}
