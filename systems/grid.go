// Package systems provides the per-tick simulation systems.
package systems

import (
	"sync"

	"github.com/pthm-cable/colony/components"
)

// Grid is the shared cell occupancy store. A coordinate missing from the
// map is an empty cell.
//
// Reads and TryClaim are safe from parallel workers. Remove and Insert are
// reserved for the barrier and board setup.
//
// Searches read the board as it stood when the tick began: a cell won by
// TryClaim during the current tick stays invisible to them until the next
// BeginTick, whatever order the workers run in.
type Grid struct {
	width int
	cells sync.Map // int key -> slot
	epoch int32    // stamp given to claims made this tick; 0 = none
}

type slot struct {
	cell      components.Cell
	claimedIn int32
}

// NewGrid creates an empty grid for a width x width board.
func NewGrid(width int) *Grid {
	return &Grid{width: width}
}

// Width returns the board width in cells.
func (g *Grid) Width() int {
	return g.width
}

// InBounds reports whether c lies on the board.
func (g *Grid) InBounds(c components.GridCoord) bool {
	return c.Row >= 0 && c.Row < g.width && c.Col >= 0 && c.Col < g.width
}

// BeginTick opens a new claim epoch. Called single-threaded before the
// parallel phase of every tick.
func (g *Grid) BeginTick(tick int32) {
	g.epoch = tick + 1
}

// Get returns the current record at c, including claims made this tick.
func (g *Grid) Get(c components.GridCoord) (components.Cell, bool) {
	v, ok := g.cells.Load(c.Key())
	if !ok {
		return components.Cell{}, false
	}
	return v.(slot).cell, true
}

// View returns the record at c as it stood at the start of the tick.
// TryClaim only fills empty cells, so a cell claimed this tick reads as empty.
func (g *Grid) View(c components.GridCoord) (components.Cell, bool) {
	v, ok := g.cells.Load(c.Key())
	if !ok {
		return components.Cell{}, false
	}
	s := v.(slot)
	if s.claimedIn != 0 && s.claimedIn == g.epoch {
		return components.Cell{}, false
	}
	return s.cell, true
}

// TryClaim inserts cell at c only if c is empty. Exactly one of any number
// of concurrent callers for the same coordinate succeeds.
func (g *Grid) TryClaim(c components.GridCoord, cell components.Cell) bool {
	if !g.InBounds(c) {
		return false
	}
	_, loaded := g.cells.LoadOrStore(c.Key(), slot{cell: cell, claimedIn: g.epoch})
	return !loaded
}

// Remove deletes the record at c and returns it.
func (g *Grid) Remove(c components.GridCoord) (components.Cell, bool) {
	v, ok := g.cells.LoadAndDelete(c.Key())
	if !ok {
		return components.Cell{}, false
	}
	return v.(slot).cell, true
}

// Insert overwrites the record at c.
func (g *Grid) Insert(c components.GridCoord, cell components.Cell) {
	if !g.InBounds(c) {
		return
	}
	g.cells.Store(c.Key(), slot{cell: cell})
}

// Range calls fn for every occupied cell until fn returns false.
func (g *Grid) Range(fn func(c components.GridCoord, cell components.Cell) bool) {
	g.cells.Range(func(k, v any) bool {
		return fn(components.CoordFromKey(k.(int)), v.(slot).cell)
	})
}

// Counts returns the number of occupied cells per kind.
func (g *Grid) Counts() map[components.TileKind]int {
	counts := make(map[components.TileKind]int)
	g.Range(func(_ components.GridCoord, cell components.Cell) bool {
		counts[cell.Kind]++
		return true
	})
	return counts
}

// scanDescending picks the scan direction for a search from origin.
// Fixed per origin so repeated searches agree; varies across the board
// so agents don't all sweep from the same corner.
func scanDescending(origin components.GridCoord) bool {
	return Hash(uint64(origin.Key()), 0, 0)&1 == 1
}

// scan visits the square of the given radius around origin, clipped to the
// board, and returns the first coordinate accepted by match.
func (g *Grid) scan(origin components.GridCoord, radius int, match func(components.GridCoord) bool) (components.GridCoord, bool) {
	r0, r1 := max(0, origin.Row-radius), min(g.width-1, origin.Row+radius)
	c0, c1 := max(0, origin.Col-radius), min(g.width-1, origin.Col+radius)
	if r0 > r1 || c0 > c1 {
		return components.GridCoord{}, false
	}

	if scanDescending(origin) {
		for r := r1; r >= r0; r-- {
			for c := c1; c >= c0; c-- {
				if coord := (components.GridCoord{Row: r, Col: c}); match(coord) {
					return coord, true
				}
			}
		}
		return components.GridCoord{}, false
	}

	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			if coord := (components.GridCoord{Row: r, Col: c}); match(coord) {
				return coord, true
			}
		}
	}
	return components.GridCoord{}, false
}

// Search returns the first cell of the given kind within radius of origin.
// For TileEmpty it returns the first unoccupied coordinate.
func (g *Grid) Search(origin components.GridCoord, radius int, kind components.TileKind) (components.GridCoord, bool) {
	return g.scan(origin, radius, func(c components.GridCoord) bool {
		cell, ok := g.View(c)
		if kind == components.TileEmpty {
			return !ok
		}
		return ok && cell.Kind == kind
	})
}

// FindMaturePlant returns the first plant cell within radius whose plant has
// reached maxGrowth.
func (g *Grid) FindMaturePlant(origin components.GridCoord, radius int, plants PlantLookup, maxGrowth float32) (components.GridCoord, bool) {
	return g.scan(origin, radius, func(c components.GridCoord) bool {
		cell, ok := g.View(c)
		if !ok || cell.Kind != components.TilePlant {
			return false
		}
		p, ok := plants.Plant(cell.Occupant)
		return ok && p.Growth >= maxGrowth
	})
}

// FindRockOnPath walks the cells of the route origin -> waypoint -> target
// (or origin -> target without a waypoint) and returns the first rock.
func (g *Grid) FindRockOnPath(origin, waypoint components.GridCoord, hasWaypoint bool, target components.GridCoord) (components.GridCoord, bool) {
	isRock := func(c components.GridCoord) bool {
		cell, ok := g.View(c)
		return ok && cell.Kind == components.TileRock
	}

	if isRock(origin) {
		return origin, true
	}
	from := origin
	if hasWaypoint {
		if c, ok := walkSegment(from, waypoint, isRock); ok {
			return c, true
		}
		from = waypoint
	}
	return walkSegment(from, target, isRock)
}

// walkSegment steps cell by cell from 'from' (exclusive) to 'to' (inclusive),
// resolving rows before columns.
func walkSegment(from, to components.GridCoord, hit func(components.GridCoord) bool) (components.GridCoord, bool) {
	cur := from
	for cur != to {
		if cur.Row != to.Row {
			cur.Row += signInt(to.Row - cur.Row)
		} else {
			cur.Col += signInt(to.Col - cur.Col)
		}
		if hit(cur) {
			return cur, true
		}
	}
	return components.GridCoord{}, false
}
