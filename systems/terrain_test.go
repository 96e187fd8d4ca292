package systems

import (
	"testing"

	"github.com/pthm-cable/colony/config"
)

func TestRockField(t *testing.T) {
	cfg := config.BoardConfig{
		Width:       32,
		Stores:      []config.CellConfig{{Row: 16, Col: 16}},
		RockDensity: 0.2,
		RockScale:   0.15,
		RockOctaves: 3,
		StoreMargin: 2,
	}

	rocks := RockField(cfg, 11)
	if len(rocks) == 0 {
		t.Fatal("expected rocks")
	}
	// Store margin removes some cells from the top 20%
	if limit := 32*32/5 + 1; len(rocks) > limit {
		t.Errorf("rock count %d above density bound %d", len(rocks), limit)
	}
	for _, r := range rocks {
		if abs(r.Row-16) <= 2 && abs(r.Col-16) <= 2 {
			t.Errorf("rock %v inside store margin", r)
		}
	}

	again := RockField(cfg, 11)
	if len(again) != len(rocks) {
		t.Fatalf("same seed gave %d then %d rocks", len(rocks), len(again))
	}
	for i := range rocks {
		if rocks[i] != again[i] {
			t.Fatalf("same seed differs at %d: %v vs %v", i, rocks[i], again[i])
		}
	}
}

func TestRockFieldDisabled(t *testing.T) {
	if rocks := RockField(config.BoardConfig{Width: 8}, 1); rocks != nil {
		t.Errorf("density 0 produced %d rocks", len(rocks))
	}
}
