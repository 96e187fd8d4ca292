package telemetry

import (
	"testing"

	"github.com/pthm-cable/colony/config"
)

func newTestDetector() *BookmarkDetector {
	cfg := config.Default()
	cfg.Bookmarks.PopulationBoom = config.PopulationBoomConfig{Multiplier: 2, MinSpawns: 5}
	cfg.Bookmarks.MarketStall = config.MarketStallConfig{Windows: 3, MinMaturePlants: 5}
	cfg.Economy.FarmerCap = 50
	cfg.Economy.DroneCap = 10
	return NewBookmarkDetector(10, cfg.Bookmarks, cfg.Economy)
}

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_PopulationBoom(t *testing.T) {
	bd := newTestDetector()

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), FarmerSpawns: 2, Sales: 1})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, FarmerSpawns: 8, DroneSpawns: 1, Sales: 1})
	if !hasBookmark(bookmarks, BookmarkPopulationBoom) {
		t.Error("expected population_boom bookmark")
	}
}

func TestBookmarkDetector_NoBoomBelowMinimum(t *testing.T) {
	bd := newTestDetector()

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600)})
	}

	// Infinitely above a zero average, but under MinSpawns
	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, FarmerSpawns: 4})
	if hasBookmark(bookmarks, BookmarkPopulationBoom) {
		t.Error("unexpected population_boom below min spawns")
	}
}

func TestBookmarkDetector_MarketStall(t *testing.T) {
	bd := newTestDetector()

	var fired int
	for i := 0; i < 6; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int32(i * 600), MaturePlants: 20})
		if hasBookmark(bookmarks, BookmarkMarketStall) {
			fired++
			if i != 2 {
				t.Errorf("market_stall fired at window %d, want 2", i)
			}
		}
	}
	if fired != 1 {
		t.Errorf("market_stall fired %d times, want 1", fired)
	}

	// A sale resets the streak
	bd.Check(WindowStats{Sales: 1, MaturePlants: 20})
	for i := 0; i < 3; i++ {
		if hasBookmark(bd.Check(WindowStats{MaturePlants: 20}), BookmarkMarketStall) && i != 2 {
			t.Errorf("market_stall fired early after reset at %d", i)
		}
	}
}

func TestBookmarkDetector_CapReachedOnce(t *testing.T) {
	bd := newTestDetector()

	first := bd.Check(WindowStats{Farmers: 50, Drones: 3})
	if !hasBookmark(first, BookmarkCapReached) || len(first) != 1 {
		t.Errorf("first = %+v, want one cap_reached", first)
	}

	again := bd.Check(WindowStats{Farmers: 50, Drones: 10})
	if len(again) != 1 || again[0].Description != "Drone population reached cap 10" {
		t.Errorf("again = %+v, want only the drone cap", again)
	}

	if bookmarks := bd.Check(WindowStats{Farmers: 50, Drones: 10}); hasBookmark(bookmarks, BookmarkCapReached) {
		t.Error("cap_reached fired twice")
	}
}
