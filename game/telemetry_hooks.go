package game

import (
	"log/slog"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/telemetry"
)

// initTelemetry creates the collectors and the optional CSV and SQLite
// outputs. Output failures are logged and leave that output disabled.
func (g *Game) initTelemetry(opts Options) {
	cfg := g.cfg

	windowSec := opts.StatsWindowSec
	if windowSec <= 0 {
		windowSec = cfg.Telemetry.StatsWindow
	}
	g.collector = telemetry.NewCollector(windowSec, cfg.Derived.DT32)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks, cfg.Economy)
	g.ledger = telemetry.NewWorkLedger()

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.outputManager = om
			if err := om.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config", "error", err)
			}
		}
	}

	if opts.DBPath != "" {
		store, err := telemetry.OpenStore(opts.DBPath)
		if err != nil {
			slog.Error("failed to open run store", "error", err)
			return
		}
		runID, err := store.BeginRun(opts.Seed, cfg)
		if err != nil {
			slog.Error("failed to begin run", "error", err)
			store.Close()
			return
		}
		g.store = store
		slog.Info("run started", "run_id", runID, "db", opts.DBPath)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.Stats())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if g.store != nil {
		if err := g.store.RecordWindow(stats); err != nil {
			slog.Error("failed to record window", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
	}
}

// Stats takes a census of the colony.
func (g *Game) Stats() telemetry.Census {
	econ := g.economy.Snapshot()
	c := telemetry.Census{
		Farmers:    econ.Farmers,
		Drones:     econ.Drones,
		FarmerFund: econ.FarmerFund,
		DroneFund:  econ.DroneFund,
	}

	aq := g.agentFilter.Query()
	for aq.Next() {
		_, agent, _ := aq.Get()
		if agent.State != components.NeedsTask {
			c.BusyAgents++
		}
	}

	pq := g.plantFilter.Query()
	for pq.Next() {
		_, plant, _ := pq.Get()
		switch plant.State {
		case components.PlantGrowing:
			c.LivePlants++
			c.Growth = append(c.Growth, float64(plant.Growth))
		case components.PlantDormant:
			c.LivePlants++
			c.MaturePlants++
			c.Growth = append(c.Growth, float64(plant.Growth))
		case components.PlantReserved, components.PlantFollowing:
			c.LivePlants++
			c.CarriedPlants++
		}
	}

	counts := g.grid.Counts()
	c.RockCells = counts[components.TileRock]
	c.TilledCells = counts[components.TileTilled]
	c.PlantCells = counts[components.TilePlant]
	return c
}

// Ledger returns the per-agent work records.
func (g *Game) Ledger() *telemetry.WorkLedger {
	return g.ledger
}

// closeTelemetry finishes the run record and closes outputs.
func (g *Game) closeTelemetry() {
	if g.store != nil {
		if err := g.store.FinishRun(g.tick); err != nil {
			slog.Error("failed to finish run", "error", err)
		}
		if err := g.store.Close(); err != nil {
			slog.Error("failed to close run store", "error", err)
		}
		g.store = nil
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
		g.outputManager = nil
	}
}
