// Package components defines ECS components for the simulation.
package components

import (
	"math"

	"github.com/mlange-42/ark/ecs"
)

// KeyMultiplier is the row stride used to key grid cells (row*KeyMultiplier + col).
// Board widths at or above it are rejected when the config is loaded.
const KeyMultiplier = 1 << 16

// TileKind classifies a grid cell. It doubles as the task kind of an agent's intent.
type TileKind uint8

const (
	TileEmpty   TileKind = iota // Absent from the grid; also "no intent"
	TileRock                    // Blocks farmers until mined
	TileTilled                  // Ready for planting
	TilePlant                   // Occupied by a plant
	TileHarvest                 // Harvest pending; used as a task kind, never stored
	TileStore                   // Sale point
)

var tileKindNames = [...]string{"empty", "rock", "tilled", "plant", "harvest", "store"}

func (k TileKind) String() string {
	if int(k) < len(tileKindNames) {
		return tileKindNames[k]
	}
	return "unknown"
}

// ParseTaskKind maps a config task name to its kind.
func ParseTaskKind(name string) (TileKind, bool) {
	switch name {
	case "rock":
		return TileRock, true
	case "tilled":
		return TileTilled, true
	case "plant":
		return TilePlant, true
	case "harvest":
		return TileHarvest, true
	case "store":
		return TileStore, true
	}
	return TileEmpty, false
}

// Position is a continuous board position. X runs along rows, Z along columns, Y is height.
type Position struct {
	X, Y, Z float32
}

// GridCoord addresses one board cell.
type GridCoord struct {
	Row, Col int
}

// Key returns the grid map key for the cell.
func (c GridCoord) Key() int {
	return c.Row*KeyMultiplier + c.Col
}

// CoordFromKey inverts Key.
func CoordFromKey(key int) GridCoord {
	return GridCoord{Row: key / KeyMultiplier, Col: key % KeyMultiplier}
}

// Center returns the position in the middle of the cell.
func (c GridCoord) Center() Position {
	return Position{X: float32(c.Row) + 0.5, Z: float32(c.Col) + 0.5}
}

// CoordOf returns the cell containing p.
func CoordOf(p Position) GridCoord {
	return GridCoord{
		Row: int(math.Floor(float64(p.X))),
		Col: int(math.Floor(float64(p.Z))),
	}
}

// EntityRef is a generation-checked handle. A recycled plant bumps its
// generation, so refs taken before the recycle stop resolving.
type EntityRef struct {
	Entity ecs.Entity
	Gen    uint32
}

// NoRef is the empty handle.
var NoRef = EntityRef{}

// Valid reports whether the ref points at anything.
func (r EntityRef) Valid() bool {
	return r.Entity != ecs.Entity{}
}

// Cell is the occupancy record stored in the grid.
type Cell struct {
	Kind     TileKind
	Occupant EntityRef
}

// VisualHandle identifies an instantiated visual entity in the renderer.
type VisualHandle uint32

// VisualKind selects the prefab the renderer instantiates.
type VisualKind uint8

const (
	VisualFarmer VisualKind = iota
	VisualDrone
	VisualPlant
	VisualRock
)

var visualKindNames = [...]string{"farmer", "drone", "plant", "rock"}

func (k VisualKind) String() string {
	if int(k) < len(visualKindNames) {
		return visualKindNames[k]
	}
	return "unknown"
}

// Visual links an entity to its renderer handle (0 = hidden).
type Visual struct {
	Handle VisualHandle
}
