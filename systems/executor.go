package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
)

// ExecuteTask performs the task of an agent that reached its target, then
// returns it to NeedsTask whatever the outcome.
func ExecuteTask(ctx *TickContext, e ecs.Entity, pos *components.Position, a *components.Agent, out *Requests) {
	cur := components.CoordOf(*pos)

	switch a.Intent.Kind {
	case components.TileRock:
		if a.Intent.Claimed.Valid() {
			out.Destroy(DestroyRock, a.Intent.Claimed)
		}
	case components.TileTilled:
		if ctx.Grid.TryClaim(cur, components.Cell{Kind: components.TileTilled}) {
			out.Visual(cur, components.TileTilled)
			out.Stats.TillClaims++
		} else {
			out.Stats.TillConflicts++
		}
	case components.TilePlant:
		out.Spawn(SpawnRequest{
			Kind:      SpawnPlant,
			Cell:      cur,
			Pos:       cur.Center(),
			Plant:     a.Intent.Claimed,
			Requester: e,
		})
	case components.TileHarvest:
		if !a.Intent.Claimed.Valid() {
			break
		}
		if ctx.Grid.TryClaim(cur, components.Cell{Kind: components.TileTilled}) {
			out.SetPlantState(a.Intent.Claimed, components.PlantReserved, e)
			out.Visual(cur, components.TileTilled)
			out.Stats.HarvestClaims++
		} else {
			// Someone re-tilled the cell first; the plant has nowhere to go
			out.SetPlantState(a.Intent.Claimed, components.PlantMarkedDeleted, e)
			out.Stats.HarvestConflicts++
		}
	case components.TileStore:
		// The carried plant completes the sale when it sees the carrier arrive
	}

	out.Complete(e, a.Intent.Kind)
	out.SetAgentState(e, components.NeedsTask)
}
