// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/colony/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Board     BoardConfig     `yaml:"board"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Agents    AgentsConfig    `yaml:"agents"`
	Planner   PlannerConfig   `yaml:"planner"`
	Plants    PlantsConfig    `yaml:"plants"`
	Economy   EconomyConfig   `yaml:"economy"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	Feed      FeedConfig      `yaml:"feed"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// BoardConfig holds the grid dimensions and initial terrain.
type BoardConfig struct {
	Width       int          `yaml:"width"` // Cells per side (board is square)
	Stores      []CellConfig `yaml:"stores"`
	RockDensity float64      `yaml:"rock_density"` // Target fraction of rock cells (0 = no rocks)
	RockScale   float64      `yaml:"rock_scale"`   // Noise frequency for rock clusters
	RockOctaves int          `yaml:"rock_octaves"`
	StoreMargin int          `yaml:"store_margin"` // Rock-free radius around each store
}

// CellConfig addresses a single board cell.
type CellConfig struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// PhysicsConfig holds simulation timing parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// AgentsConfig holds farmer and drone parameters.
type AgentsConfig struct {
	InitialFarmers   int      `yaml:"initial_farmers"`
	InitialDrones    int      `yaml:"initial_drones"`
	FarmerSpeed      float64  `yaml:"farmer_speed"` // Cells per second
	DroneSpeed       float64  `yaml:"drone_speed"`
	ArrivalTolerance float64  `yaml:"arrival_tolerance"`
	FarmerTasks      []string `yaml:"farmer_tasks"` // Subset of rock, tilled, plant, harvest
}

// SearchConfig is one entry of the planner's radius fallback table.
type SearchConfig struct {
	Fraction  float64   `yaml:"fraction"`   // Base radius as a fraction of board width
	Retries   []float64 `yaml:"retries"`    // Multipliers of the base radius tried on a miss
	FullBoard bool      `yaml:"full_board"` // Final full-board search
}

// PlannerConfig holds per-task search parameters.
type PlannerConfig struct {
	Rock    SearchConfig `yaml:"rock"`
	Tilled  SearchConfig `yaml:"tilled"`
	Plant   SearchConfig `yaml:"plant"`
	Harvest SearchConfig `yaml:"harvest"`
	Store   SearchConfig `yaml:"store"`
}

// PlantsConfig holds plant growth parameters.
type PlantsConfig struct {
	MaxGrowth    float64 `yaml:"max_growth"`    // Growth (seconds) at which a plant is harvestable
	CarryHeight  float64 `yaml:"carry_height"`  // Vertical offset while carried
	PoolCapacity int     `yaml:"pool_capacity"` // Initial free-list capacity
}

// EconomyConfig holds the spawn economy parameters.
type EconomyConfig struct {
	SalePrice     int `yaml:"sale_price"` // Added to both funds per sale
	FarmerCost    int `yaml:"farmer_cost"`
	DroneCost     int `yaml:"drone_cost"`
	FarmerCap     int `yaml:"farmer_cap"`
	DroneCap      int `yaml:"drone_cap"`
	InitialFarmer int `yaml:"initial_farmer_fund"`
	InitialDrone  int `yaml:"initial_drone_fund"`
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // Minimum work units before dispatching to the pool
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	PopulationBoom PopulationBoomConfig `yaml:"population_boom"`
	MarketStall    MarketStallConfig    `yaml:"market_stall"`
}

// PopulationBoomConfig holds population boom detection parameters.
type PopulationBoomConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinSpawns  int     `yaml:"min_spawns"`
}

// MarketStallConfig holds market stall detection parameters.
type MarketStallConfig struct {
	Windows         int `yaml:"windows"`           // Consecutive windows without a sale
	MinMaturePlants int `yaml:"min_mature_plants"` // Only a stall if this many plants are waiting
}

// FeedConfig holds the observer feed parameters.
type FeedConfig struct {
	ClientBuffer int `yaml:"client_buffer"` // Frames queued per observer before drops
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32          float32 // Physics.DT as float32
	Tolerance32   float32 // Agents.ArrivalTolerance as float32
	MaxGrowth32   float32 // Plants.MaxGrowth as float32
	FarmerSpeed32 float32
	DroneSpeed32  float32
	CarryHeight32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	if c.Board.Width < 1 || c.Board.Width >= components.KeyMultiplier {
		return fmt.Errorf("board.width %d out of range [1, %d)", c.Board.Width, components.KeyMultiplier)
	}
	for _, s := range c.Board.Stores {
		if s.Row < 0 || s.Row >= c.Board.Width || s.Col < 0 || s.Col >= c.Board.Width {
			return fmt.Errorf("store %v outside %dx%d board", s, c.Board.Width, c.Board.Width)
		}
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	for _, name := range c.Agents.FarmerTasks {
		switch name {
		case "rock", "tilled", "plant", "harvest":
		default:
			return fmt.Errorf("agents.farmer_tasks: unknown task %q", name)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.Tolerance32 = float32(c.Agents.ArrivalTolerance)
	c.Derived.MaxGrowth32 = float32(c.Plants.MaxGrowth)
	c.Derived.FarmerSpeed32 = float32(c.Agents.FarmerSpeed)
	c.Derived.DroneSpeed32 = float32(c.Agents.DroneSpeed)
	c.Derived.CarryHeight32 = float32(c.Plants.CarryHeight)

	if len(c.Agents.FarmerTasks) == 0 {
		c.Agents.FarmerTasks = []string{"rock", "tilled", "plant", "harvest"}
	}
}

// Derive recomputes derived values after fields were changed in code.
func (c *Config) Derive() {
	c.computeDerived()
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
