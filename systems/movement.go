package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
)

// StepMovement advances a Moving agent one tick toward its waypoint, or its
// target when no waypoint is set.
func StepMovement(ctx *TickContext, e ecs.Entity, pos *components.Position, a *components.Agent, out *Requests) {
	dest := a.Target
	if a.HasWaypoint {
		dest = a.Waypoint
	}

	dx := dest.X - pos.X
	dz := dest.Z - pos.Z
	if absf(dx) > ctx.Tolerance || absf(dz) > ctx.Tolerance {
		step := a.Speed * ctx.DT
		moveX := AxisXFirst(dx, dz)
		// Finish one axis before starting the other
		if moveX && dx == 0 {
			moveX = false
		} else if !moveX && dz == 0 {
			moveX = true
		}
		if moveX {
			pos.X = clampStep(pos.X, dest.X, step)
		} else {
			pos.Z = clampStep(pos.Z, dest.Z, step)
		}
		dx = dest.X - pos.X
		dz = dest.Z - pos.Z
	}

	if absf(dx) > ctx.Tolerance || absf(dz) > ctx.Tolerance {
		return
	}

	if a.HasWaypoint {
		a.Waypoint, a.HasWaypoint = components.Position{}, false
		return
	}

	if knownTask(a.Intent.Kind) {
		out.SetAgentState(e, components.PerformingTask)
		return
	}
	// Arrived with nothing to do
	out.SetAgentState(e, components.NeedsTask)
}

func knownTask(kind components.TileKind) bool {
	switch kind {
	case components.TileRock, components.TileTilled, components.TilePlant,
		components.TileHarvest, components.TileStore:
		return true
	}
	return false
}
