// Package game owns the simulation context and runs the tick loop.
package game

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/config"
	"github.com/pthm-cable/colony/renderer"
	"github.com/pthm-cable/colony/systems"
	"github.com/pthm-cable/colony/telemetry"
)

// Options configures a new game.
type Options struct {
	Seed           int64
	Config         *config.Config   // nil = config.Cfg()
	Visuals        renderer.Visuals // nil = discard
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string
	DBPath         string
	StepsPerUpdate int

	// EmptyBoard skips stores, rocks and initial agents. Used to build
	// hand-made boards.
	EmptyBoard bool

	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand
	seed  int64

	agentMap    *ecs.Map3[components.Position, components.Agent, components.Visual]
	agentFilter *ecs.Filter3[components.Position, components.Agent, components.Visual]
	plantMap    *ecs.Map3[components.Position, components.Plant, components.Visual]
	plantFilter *ecs.Filter3[components.Position, components.Plant, components.Visual]
	rockMap     *ecs.Map2[components.Rock, components.Visual]

	grid       *systems.Grid
	economy    *systems.Economy
	ctx        *systems.TickContext
	freePlants []ecs.Entity
	visuals    renderer.Visuals
	parallel   *parallelState

	tick           int32
	nextID         uint32
	violations     int
	stepsPerUpdate int

	// Barrier scratch
	visualSeen  map[components.GridCoord]int
	visualBatch []systems.VisualUpdate

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	ledger           *telemetry.WorkLedger
	outputManager    *telemetry.OutputManager
	store            *telemetry.Store
	logStats         bool
	statsCallback    func(telemetry.WindowStats)
}

// NewGameWithOptions creates a game and sets up its board.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	visuals := opts.Visuals
	if visuals == nil {
		visuals = &renderer.Nop{}
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	world := ecs.NewWorld()
	grid := systems.NewGrid(cfg.Board.Width)

	g := &Game{
		cfg:   cfg,
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		seed:  opts.Seed,

		agentMap:    ecs.NewMap3[components.Position, components.Agent, components.Visual](world),
		agentFilter: ecs.NewFilter3[components.Position, components.Agent, components.Visual](world),
		plantMap:    ecs.NewMap3[components.Position, components.Plant, components.Visual](world),
		plantFilter: ecs.NewFilter3[components.Position, components.Plant, components.Visual](world),
		rockMap:     ecs.NewMap2[components.Rock, components.Visual](world),

		grid:           grid,
		economy:        systems.NewEconomy(cfg.Economy),
		ctx:            systems.NewTickContext(cfg, grid, opts.Seed),
		freePlants:     make([]ecs.Entity, 0, cfg.Plants.PoolCapacity),
		visuals:        visuals,
		parallel:       newParallelState(cfg.Parallel.Workers, cfg.Parallel.Threshold),
		stepsPerUpdate: steps,
		visualSeen:     make(map[components.GridCoord]int),
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
	}
	g.ctx.Agents = agentView{g.parallel}
	g.ctx.Plants = plantView{g.parallel}

	g.initTelemetry(opts)

	if !opts.EmptyBoard {
		g.setupBoard()
	}
	g.visuals.EndFrame(g.tick)

	slog.Debug("game created",
		"seed", opts.Seed,
		"width", cfg.Board.Width,
		"workers", g.parallel.numWorkers,
		"economy", g.economy.Snapshot(),
	)
	return g
}

// setupBoard places stores, rocks and the initial agents.
func (g *Game) setupBoard() {
	cfg := g.cfg
	for _, s := range cfg.Board.Stores {
		g.placeStore(components.GridCoord{Row: s.Row, Col: s.Col})
	}

	for _, c := range systems.RockField(cfg.Board, g.seed) {
		if _, taken := g.grid.Get(c); taken {
			continue
		}
		g.placeRock(c)
	}

	for i := 0; i < cfg.Agents.InitialFarmers; i++ {
		if !g.economy.AddFarmer() {
			break
		}
		g.spawnAgent(components.KindFarmer, g.randomCell().Center())
	}
	for i := 0; i < cfg.Agents.InitialDrones; i++ {
		if !g.economy.AddDrone() {
			break
		}
		g.spawnAgent(components.KindDrone, g.randomCell().Center())
	}
}

// Step runs a single tick: snapshot, parallel phase, barrier.
func (g *Game) Step() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseSnapshot)
	g.ctx.Tick = g.tick
	g.grid.BeginTick(g.tick)
	g.buildSnapshots()

	g.perfCollector.StartPhase(telemetry.PhaseParallel)
	requests := g.runParallel()

	g.perfCollector.StartPhase(telemetry.PhaseBarrier)
	g.drain(requests)

	g.tick++
	g.visuals.EndFrame(g.tick)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// UpdateHeadless runs StepsPerUpdate ticks.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step()
	}
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 {
	return g.tick
}

// Config returns the configuration the game runs with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Economy returns the current economy state.
func (g *Game) Economy() systems.EconomyState {
	return g.economy.Snapshot()
}

// Violations returns the number of requests dropped for breaking an invariant.
func (g *Game) Violations() int {
	return g.violations
}

// Unload stops the worker pool and closes telemetry outputs.
func (g *Game) Unload() {
	g.stopParallelWorkers()
	g.closeTelemetry()
}

// randomCell returns a uniformly random board cell.
func (g *Game) randomCell() components.GridCoord {
	w := g.cfg.Board.Width
	return components.GridCoord{Row: g.rng.Intn(w), Col: g.rng.Intn(w)}
}
