package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/colony/config"
	"github.com/pthm-cable/colony/game"
	"github.com/pthm-cable/colony/renderer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite file for run history (empty = disabled)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	serveAddr := flag.String("serve", "", "Serve the live visual feed on this address, e.g. :8080")
	tickRate := flag.Float64("tick-rate", 0, "Updates per second when serving (0 = as fast as possible)")
	recordPath := flag.String("record", "", "Write a zstd frame log to this path")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Visual collaborators
	var visuals renderer.Multi
	var feed *renderer.Feed
	if *serveAddr != "" {
		feed = renderer.NewFeed(cfg.Feed.ClientBuffer)
		visuals = append(visuals, feed)
	}
	var frameLog *renderer.FrameLog
	if *recordPath != "" {
		fl, err := renderer.CreateFrameLog(*recordPath)
		if err != nil {
			slog.Error("failed to create frame log", "error", err)
			os.Exit(1)
		}
		frameLog = fl
		visuals = append(visuals, fl)
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		DBPath:         *dbPath,
		StepsPerUpdate: *stepsPerUpdate,
	}
	if len(visuals) > 0 {
		opts.Visuals = visuals
	}

	g := game.NewGameWithOptions(opts)

	if feed != nil {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", feed.Handler())
		go func() {
			slog.Info("feed starting", "addr", *serveAddr)
			if err := http.ListenAndServe(*serveAddr, mux); err != nil {
				slog.Error("feed server error", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var ticker *time.Ticker
	if *tickRate > 0 {
		ticker = time.NewTicker(time.Duration(float64(time.Second) / *tickRate))
		defer ticker.Stop()
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"width", cfg.Board.Width,
		"max_ticks", *maxTicks,
		"steps_per_update", *stepsPerUpdate,
		"serve", *serveAddr,
	)

	run(g, ticker, sigCh, *maxTicks)

	g.Unload()
	if frameLog != nil {
		if err := frameLog.Close(); err != nil {
			slog.Error("failed to close frame log", "error", err)
		}
		slog.Info("frame log written", "path", *recordPath, "frames", frameLog.Frames())
	}
	if feed != nil {
		slog.Info("feed closed", "clients", feed.Clients(), "dropped_frames", feed.Dropped())
	}
}

// run steps the game until max ticks or a signal.
func run(g *game.Game, ticker *time.Ticker, sigCh <-chan os.Signal, maxTicks int) {
	for {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig, "tick", g.Tick())
			return
		default:
		}

		if ticker != nil {
			select {
			case <-ticker.C:
			case sig := <-sigCh:
				slog.Info("received signal, shutting down", "signal", sig, "tick", g.Tick())
				return
			}
		}

		g.UpdateHeadless()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
}
