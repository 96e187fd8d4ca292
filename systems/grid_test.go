package systems

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pthm-cable/colony/components"
)

func TestGridTryClaimSingleWinner(t *testing.T) {
	g := NewGrid(8)
	c := at(3, 3)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryClaim(c, components.Cell{Kind: components.TileTilled}) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("concurrent claims won = %d, want 1", got)
	}
	if cell, ok := g.Get(c); !ok || cell.Kind != components.TileTilled {
		t.Errorf("cell after claims = %+v, %v", cell, ok)
	}
}

func TestGridTryClaimNeverOverwrites(t *testing.T) {
	g := NewGrid(4)
	g.Insert(at(1, 1), components.Cell{Kind: components.TileRock})

	if g.TryClaim(at(1, 1), components.Cell{Kind: components.TileTilled}) {
		t.Error("claim on occupied cell succeeded")
	}
	if cell, _ := g.Get(at(1, 1)); cell.Kind != components.TileRock {
		t.Errorf("occupied cell kind = %v, want rock", cell.Kind)
	}
	if g.TryClaim(at(4, 0), components.Cell{Kind: components.TileTilled}) {
		t.Error("claim off the board succeeded")
	}
}

func TestGridRemove(t *testing.T) {
	g := NewGrid(4)
	g.Insert(at(2, 1), components.Cell{Kind: components.TileTilled})

	cell, ok := g.Remove(at(2, 1))
	if !ok || cell.Kind != components.TileTilled {
		t.Fatalf("Remove = %+v, %v", cell, ok)
	}
	if _, ok := g.Get(at(2, 1)); ok {
		t.Error("cell still present after Remove")
	}
	if _, ok := g.Remove(at(2, 1)); ok {
		t.Error("second Remove reported a record")
	}
}

func TestGridViewHidesSameTickClaims(t *testing.T) {
	g := NewGrid(4)
	g.Insert(at(0, 0), components.Cell{Kind: components.TileRock})
	g.BeginTick(5)

	if !g.TryClaim(at(1, 1), components.Cell{Kind: components.TileTilled}) {
		t.Fatal("claim on empty cell failed")
	}
	if cell, ok := g.Get(at(1, 1)); !ok || cell.Kind != components.TileTilled {
		t.Errorf("Get = %+v, %v, want tilled", cell, ok)
	}
	if _, ok := g.View(at(1, 1)); ok {
		t.Error("View shows a cell claimed this tick")
	}
	if _, ok := g.View(at(0, 0)); !ok {
		t.Error("View hides a cell inserted before the tick")
	}
	if _, ok := g.Search(at(1, 1), 0, components.TileTilled); ok {
		t.Error("Search found a cell claimed this tick")
	}
	if c, ok := g.Search(at(1, 1), 0, components.TileEmpty); !ok || c != at(1, 1) {
		t.Errorf("Search empty = %v, %v, want (1,1)", c, ok)
	}
	if g.TryClaim(at(1, 1), components.Cell{Kind: components.TileTilled}) {
		t.Error("second claim in the same tick succeeded")
	}

	g.BeginTick(6)
	if cell, ok := g.View(at(1, 1)); !ok || cell.Kind != components.TileTilled {
		t.Errorf("View next tick = %+v, %v, want tilled", cell, ok)
	}
	if c, ok := g.Search(at(1, 1), 0, components.TileTilled); !ok || c != at(1, 1) {
		t.Errorf("Search tilled next tick = %v, %v", c, ok)
	}
}

func TestGridSearchIgnoresConcurrentClaims(t *testing.T) {
	const width = 16
	g := NewGrid(width)
	for i := 0; i < width; i += 3 {
		g.Insert(at(i, (i*7)%width), components.Cell{Kind: components.TileTilled})
	}
	g.BeginTick(1)

	type query struct {
		origin components.GridCoord
		kind   components.TileKind
	}
	var queries []query
	for r := 0; r < width; r += 2 {
		for c := 0; c < width; c += 5 {
			queries = append(queries,
				query{at(r, c), components.TileTilled},
				query{at(r, c), components.TileEmpty})
		}
	}
	want := make([]components.GridCoord, len(queries))
	for i, q := range queries {
		want[i], _ = g.Search(q.origin, 3, q.kind)
	}

	got := make([]components.GridCoord, len(queries))
	var wg sync.WaitGroup
	for r := 0; r < width; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := 0; c < width; c++ {
				g.TryClaim(at(r, c), components.Cell{Kind: components.TileTilled})
			}
		}()
	}
	for i, q := range queries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = g.Search(q.origin, 3, q.kind)
		}()
	}
	wg.Wait()

	for i := range queries {
		if got[i] != want[i] {
			t.Errorf("search %+v during claims = %v, want %v", queries[i], got[i], want[i])
		}
	}
}

func TestGridSearch(t *testing.T) {
	tests := []struct {
		name   string
		setup  map[components.GridCoord]components.TileKind
		origin components.GridCoord
		radius int
		kind   components.TileKind
		want   components.GridCoord
		found  bool
	}{
		{
			name:   "single match",
			setup:  map[components.GridCoord]components.TileKind{at(2, 3): components.TileTilled},
			origin: at(2, 2), radius: 2, kind: components.TileTilled,
			want: at(2, 3), found: true,
		},
		{
			name:   "outside radius",
			setup:  map[components.GridCoord]components.TileKind{at(7, 7): components.TileTilled},
			origin: at(0, 0), radius: 3, kind: components.TileTilled,
			found: false,
		},
		{
			name:   "empty at origin with radius 0",
			origin: at(5, 5), radius: 0, kind: components.TileEmpty,
			want: at(5, 5), found: true,
		},
		{
			name:   "occupied origin with radius 0",
			setup:  map[components.GridCoord]components.TileKind{at(5, 5): components.TileRock},
			origin: at(5, 5), radius: 0, kind: components.TileEmpty,
			found: false,
		},
		{
			name:   "wrong kind ignored",
			setup:  map[components.GridCoord]components.TileKind{at(1, 1): components.TileRock},
			origin: at(1, 1), radius: 1, kind: components.TileStore,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(8)
			for c, k := range tt.setup {
				g.Insert(c, components.Cell{Kind: k})
			}
			got, ok := g.Search(tt.origin, tt.radius, tt.kind)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && got != tt.want {
				t.Errorf("Search = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGridSearchEmptySkipsOccupied(t *testing.T) {
	g := NewGrid(3)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if r == 2 && c == 1 {
				continue
			}
			g.Insert(at(r, c), components.Cell{Kind: components.TileTilled})
		}
	}

	got, ok := g.Search(at(1, 1), 1, components.TileEmpty)
	if !ok || got != at(2, 1) {
		t.Errorf("Search(empty) = %v, %v; want (2,1)", got, ok)
	}
}

func TestGridSearchDirectionFollowsOrigin(t *testing.T) {
	g := NewGrid(8)
	g.Insert(at(0, 0), components.Cell{Kind: components.TileStore})
	g.Insert(at(4, 4), components.Cell{Kind: components.TileStore})

	origin := at(2, 2)
	want := at(0, 0)
	if scanDescending(origin) {
		want = at(4, 4)
	}

	for i := 0; i < 3; i++ {
		got, ok := g.Search(origin, 2, components.TileStore)
		if !ok || got != want {
			t.Fatalf("Search = %v, %v; want %v", got, ok, want)
		}
	}
}

func TestGridFindMaturePlant(t *testing.T) {
	ents := newEntities(t, 2)
	young := components.EntityRef{Entity: ents[0], Gen: 1}
	ripe := components.EntityRef{Entity: ents[1], Gen: 1}

	g := NewGrid(8)
	g.Insert(at(1, 1), components.Cell{Kind: components.TilePlant, Occupant: young})
	g.Insert(at(1, 2), components.Cell{Kind: components.TilePlant, Occupant: ripe})

	plants := fakePlants{
		young: {Growth: 0.5},
		ripe:  {Growth: 1},
	}

	got, ok := g.FindMaturePlant(at(1, 1), 2, plants, 1)
	if !ok || got != at(1, 2) {
		t.Errorf("FindMaturePlant = %v, %v; want (1,2)", got, ok)
	}

	// A stale generation no longer resolves
	g.Insert(at(1, 2), components.Cell{Kind: components.TilePlant, Occupant: components.EntityRef{Entity: ents[1], Gen: 0}})
	if _, ok := g.FindMaturePlant(at(1, 1), 2, plants, 1); ok {
		t.Error("stale plant ref was treated as mature")
	}
}

func TestGridFindRockOnPath(t *testing.T) {
	tests := []struct {
		name     string
		rocks    []components.GridCoord
		origin   components.GridCoord
		waypoint components.GridCoord
		hasWP    bool
		target   components.GridCoord
		want     components.GridCoord
		found    bool
	}{
		{
			name:   "straight line",
			rocks:  []components.GridCoord{at(2, 0)},
			origin: at(0, 0), target: at(4, 0),
			want: at(2, 0), found: true,
		},
		{
			name:   "first of two",
			rocks:  []components.GridCoord{at(3, 0), at(1, 0)},
			origin: at(0, 0), target: at(4, 0),
			want: at(1, 0), found: true,
		},
		{
			name:   "second leg",
			rocks:  []components.GridCoord{at(3, 3), at(1, 1)},
			origin: at(0, 0), waypoint: at(0, 3), hasWP: true, target: at(4, 3),
			want: at(3, 3), found: true,
		},
		{
			name:   "first leg wins",
			rocks:  []components.GridCoord{at(0, 2), at(2, 3)},
			origin: at(0, 0), waypoint: at(0, 3), hasWP: true, target: at(4, 3),
			want: at(0, 2), found: true,
		},
		{
			name:   "clear route",
			rocks:  []components.GridCoord{at(1, 1)},
			origin: at(0, 0), waypoint: at(0, 3), hasWP: true, target: at(4, 3),
			found: false,
		},
		{
			name:   "standing on rock",
			rocks:  []components.GridCoord{at(0, 0)},
			origin: at(0, 0), target: at(0, 4),
			want: at(0, 0), found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(8)
			for _, r := range tt.rocks {
				g.Insert(r, components.Cell{Kind: components.TileRock})
			}
			got, ok := g.FindRockOnPath(tt.origin, tt.waypoint, tt.hasWP, tt.target)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && got != tt.want {
				t.Errorf("FindRockOnPath = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGridCounts(t *testing.T) {
	g := NewGrid(4)
	g.Insert(at(0, 0), components.Cell{Kind: components.TileRock})
	g.Insert(at(0, 1), components.Cell{Kind: components.TileRock})
	g.Insert(at(2, 2), components.Cell{Kind: components.TileStore})

	counts := g.Counts()
	if counts[components.TileRock] != 2 || counts[components.TileStore] != 1 {
		t.Errorf("Counts = %v", counts)
	}
}
