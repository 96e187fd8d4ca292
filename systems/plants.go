package systems

import (
	"github.com/pthm-cable/colony/components"
)

// UpdatePlant advances one plant. pos and p are the worker's private copies.
func UpdatePlant(ctx *TickContext, ref components.EntityRef, pos *components.Position, p *components.Plant, out *Requests) {
	switch p.State {
	case components.PlantGrowing:
		p.Growth += ctx.DT
		if p.Growth >= ctx.MaxGrowth {
			p.Growth = ctx.MaxGrowth
			p.State = components.PlantDormant
		}

	case components.PlantReserved:
		// Picked up by the harvester standing on it
		p.State = components.PlantFollowing
		followCarrier(ctx, ref, pos, p, out)

	case components.PlantFollowing:
		followCarrier(ctx, ref, pos, p, out)

	case components.PlantMarkedDeleted:
		out.Destroy(DestroyPlant, ref)
	}
}

// followCarrier mirrors the carrier's position and completes the sale once
// the carrier stands on its store.
func followCarrier(ctx *TickContext, ref components.EntityRef, pos *components.Position, p *components.Plant, out *Requests) {
	cpos, carrier, ok := ctx.Agents.Agent(p.Carrier)
	if !ok || carrier.Carrying != ref {
		out.SetPlantState(ref, components.PlantMarkedDeleted, p.Carrier)
		return
	}

	pos.X = cpos.X
	pos.Y = cpos.Y + ctx.CarryHeight
	pos.Z = cpos.Z

	if carrier.Intent.Kind != components.TileStore || carrier.HasWaypoint {
		return
	}
	if absf(carrier.Target.X-cpos.X) > ctx.Tolerance || absf(carrier.Target.Z-cpos.Z) > ctx.Tolerance {
		return
	}

	out.Spawn(SpawnRequest{
		Kind:      SpawnFarmer,
		Cell:      components.CoordOf(cpos),
		Pos:       components.Position{X: cpos.X, Z: cpos.Z},
		Requester: p.Carrier,
		Sale:      true,
	})
	out.SetPlantState(ref, components.PlantMarkedDeleted, p.Carrier)
}
