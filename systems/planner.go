package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
)

// ChooseTask picks the next task kind for an agent in NeedsTask.
// Drones alternate harvest and store. Farmers pick at random from the
// configured menu, except that a harvest is always followed by a store trip.
func ChooseTask(ctx *TickContext, a *components.Agent) components.TileKind {
	if a.Kind == components.KindDrone {
		if a.Intent.Kind == components.TileHarvest {
			return components.TileStore
		}
		return components.TileHarvest
	}
	if a.Intent.Kind == components.TileHarvest {
		return components.TileStore
	}
	if len(ctx.FarmerTasks) == 0 {
		return components.TileEmpty
	}
	pick := Hash(ctx.Seed, uint64(a.ID), uint64(ctx.Tick)) % uint64(len(ctx.FarmerTasks))
	return ctx.FarmerTasks[pick]
}

// FindTarget runs the radius fallback search for a task kind.
func FindTarget(ctx *TickContext, origin components.GridCoord, kind components.TileKind) (components.GridCoord, bool) {
	for _, r := range ctx.Search.Radii(kind) {
		var (
			c  components.GridCoord
			ok bool
		)
		switch kind {
		case components.TileHarvest:
			c, ok = ctx.Grid.FindMaturePlant(origin, r, ctx.Plants, ctx.MaxGrowth)
		case components.TileTilled:
			// Tilling needs bare ground
			c, ok = ctx.Grid.Search(origin, r, components.TileEmpty)
		case components.TilePlant:
			// Planting needs tilled ground
			c, ok = ctx.Grid.Search(origin, r, components.TileTilled)
		default:
			c, ok = ctx.Grid.Search(origin, r, kind)
		}
		if ok {
			return c, true
		}
	}
	return components.GridCoord{}, false
}

// PlanTask chooses a task for an agent in NeedsTask and routes it. pos and
// a are the worker's private copies; everything else goes through out.
// A miss leaves the agent in NeedsTask for the next tick.
func PlanTask(ctx *TickContext, e ecs.Entity, pos *components.Position, a *components.Agent, out *Requests) {
	kind := ChooseTask(ctx, a)
	if kind == components.TileEmpty {
		out.Stats.PlanningMisses++
		return
	}

	target, ok := FindTarget(ctx, components.CoordOf(*pos), kind)
	if !ok {
		out.Stats.PlanningMisses++
		return
	}
	Dispatch(ctx, e, pos, a, kind, target, out)
}

// Dispatch routes an agent toward target for a task of the given kind.
// Farmers probe the route for rocks and mine the first one they would
// walk into instead. A rock task's own target is not a detour.
func Dispatch(ctx *TickContext, e ecs.Entity, pos *components.Position, a *components.Agent, kind components.TileKind, target components.GridCoord, out *Requests) {
	origin := components.CoordOf(*pos)
	dest := target.Center()
	wp, hasWP := Waypoint(*pos, dest)

	if a.Kind == components.KindFarmer {
		rockCell, hit := ctx.Grid.FindRockOnPath(origin, components.CoordOf(wp), hasWP, target)
		if hit && !(kind == components.TileRock && rockCell == target) {
			redirectToRock(ctx, e, pos, a, origin, rockCell, out)
			return
		}
	}

	cell, _ := ctx.Grid.View(target)
	claimed := components.NoRef
	switch kind {
	case components.TileRock:
		claimed = cell.Occupant
		out.Claim(ClaimRemoval{Cell: target, Expect: components.TileRock, Occupant: cell.Occupant, Requester: e})
	case components.TilePlant:
		out.Claim(ClaimRemoval{Cell: target, Expect: components.TileTilled, Requester: e})
	case components.TileHarvest:
		p, ok := ctx.Plants.Plant(cell.Occupant)
		if cell.Kind != components.TilePlant || !ok || p.Growth < ctx.MaxGrowth {
			out.Stats.PlanningMisses++
			return
		}
		claimed = cell.Occupant
		out.Claim(ClaimRemoval{Cell: target, Expect: components.TilePlant, Occupant: cell.Occupant, Requester: e})
	}

	if kind != components.TileStore {
		abandonCargo(e, a, out)
	}

	a.Target = dest
	a.Waypoint, a.HasWaypoint = wp, hasWP
	a.Intent = components.Intent{Kind: kind, Claimed: claimed}
	out.SetAgentState(e, components.Moving)
}

// redirectToRock retargets a farmer at a rock found on its route.
func redirectToRock(ctx *TickContext, e ecs.Entity, pos *components.Position, a *components.Agent, origin, rockCell components.GridCoord, out *Requests) {
	rock, _ := ctx.Grid.View(rockCell)

	// A store trip cut short loses its cargo
	abandonCargo(e, a, out)

	a.Target = rockCell.Center()
	if rockCell.Row == origin.Row || rockCell.Col == origin.Col {
		a.Waypoint, a.HasWaypoint = components.Position{}, false
	} else {
		a.Waypoint, a.HasWaypoint = Waypoint(*pos, a.Target)
	}
	a.Intent = components.Intent{Kind: components.TileRock, Claimed: rock.Occupant}

	out.Claim(ClaimRemoval{Cell: rockCell, Expect: components.TileRock, Occupant: rock.Occupant, Requester: e})
	out.SetAgentState(e, components.Moving)
	out.Stats.RockRedirects++
}

func abandonCargo(e ecs.Entity, a *components.Agent, out *Requests) {
	if !a.Carrying.Valid() {
		return
	}
	out.SetPlantState(a.Carrying, components.PlantMarkedDeleted, e)
	out.Stats.AbandonedCargo++
}
