package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/colony/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationBoom BookmarkType = "population_boom"
	BookmarkMarketStall    BookmarkType = "market_stall"
	BookmarkCapReached     BookmarkType = "cap_reached"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cfg       config.BookmarksConfig
	farmerCap int
	droneCap  int

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	stallWindows  int  // consecutive windows without a sale
	farmerCapSeen bool // cap_reached fires once per kind
	droneCapSeen  bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig, econ config.EconomyConfig) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		cfg:         cfg,
		farmerCap:   econ.FarmerCap,
		droneCap:    econ.DroneCap,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Population boom: spawns well above the rolling average
	if b := bd.checkPopulationBoom(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Market stall: mature plants waiting but nothing sells
	if b := bd.checkMarketStall(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bookmarks = append(bookmarks, bd.checkCapReached(stats)...)

	bd.addToHistory(stats)

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkPopulationBoom(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.FarmerSpawns + h.DroneSpawns
	}
	avg := float64(total) / float64(len(history))

	spawns := stats.FarmerSpawns + stats.DroneSpawns
	if spawns < bd.cfg.PopulationBoom.MinSpawns {
		return nil
	}
	if float64(spawns) <= avg*bd.cfg.PopulationBoom.Multiplier {
		return nil
	}

	return &Bookmark{
		Type:        BookmarkPopulationBoom,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d spawns against a rolling average of %.1f", spawns, avg),
	}
}

func (bd *BookmarkDetector) checkMarketStall(stats WindowStats) *Bookmark {
	if stats.Sales > 0 || stats.MaturePlants < bd.cfg.MarketStall.MinMaturePlants {
		bd.stallWindows = 0
		return nil
	}

	bd.stallWindows++
	if bd.stallWindows != bd.cfg.MarketStall.Windows { // trigger exactly once per stall
		return nil
	}

	return &Bookmark{
		Type:        BookmarkMarketStall,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("No sales for %d windows with %d mature plants waiting", bd.stallWindows, stats.MaturePlants),
	}
}

func (bd *BookmarkDetector) checkCapReached(stats WindowStats) []Bookmark {
	var out []Bookmark
	if !bd.farmerCapSeen && bd.farmerCap > 0 && stats.Farmers >= bd.farmerCap {
		bd.farmerCapSeen = true
		out = append(out, Bookmark{
			Type:        BookmarkCapReached,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Farmer population reached cap %d", bd.farmerCap),
		})
	}
	if !bd.droneCapSeen && bd.droneCap > 0 && stats.Drones >= bd.droneCap {
		bd.droneCapSeen = true
		out = append(out, Bookmark{
			Type:        BookmarkCapReached,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Drone population reached cap %d", bd.droneCap),
		})
	}
	return out
}
