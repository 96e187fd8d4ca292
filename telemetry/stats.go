package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"-" db:"run_id"`
	WindowStartTick int32   `csv:"-" db:"window_start"`
	WindowEndTick   int32   `csv:"window_end" db:"window_end"`
	SimTimeSec      float64 `csv:"sim_time" db:"sim_time"`

	// Population and funds at window end
	Farmers    int `csv:"farmers" db:"farmers"`
	Drones     int `csv:"drones" db:"drones"`
	FarmerFund int `csv:"farmer_fund" db:"farmer_fund"`
	DroneFund  int `csv:"drone_fund" db:"drone_fund"`
	BusyAgents int `csv:"busy_agents" db:"busy_agents"`

	// Events during window
	Sales        int `csv:"sales" db:"sales"`
	FarmerSpawns int `csv:"farmer_spawns" db:"farmer_spawns"`
	DroneSpawns  int `csv:"drone_spawns" db:"drone_spawns"`
	RocksMined   int `csv:"rocks_mined" db:"rocks_mined"`
	TilesTilled  int `csv:"tiles_tilled" db:"tiles_tilled"`
	SeedsPlanted int `csv:"seeds_planted" db:"seeds_planted"`
	Harvests     int `csv:"harvests" db:"harvests"`

	// Friction
	AbandonedCargo      int `csv:"abandoned_cargo" db:"abandoned_cargo"`
	PlanningMisses      int `csv:"planning_misses" db:"planning_misses"`
	RockRedirects       int `csv:"rock_redirects" db:"rock_redirects"`
	ClaimConflicts      int `csv:"claim_conflicts" db:"claim_conflicts"`
	InvariantViolations int `csv:"invariant_violations" db:"invariant_violations"`

	// Board census at window end
	RockCells     int `csv:"rock_cells" db:"rock_cells"`
	TilledCells   int `csv:"tilled_cells" db:"tilled_cells"`
	PlantCells    int `csv:"plant_cells" db:"plant_cells"`
	LivePlants    int `csv:"live_plants" db:"live_plants"`
	MaturePlants  int `csv:"mature_plants" db:"mature_plants"`
	CarriedPlants int `csv:"carried_plants" db:"carried_plants"`

	// Growth distribution of plants in the ground
	GrowthMean float64 `csv:"growth_mean" db:"growth_mean"`
	GrowthStd  float64 `csv:"growth_std" db:"growth_std"`
	GrowthP50  float64 `csv:"growth_p50" db:"growth_p50"`
	GrowthP90  float64 `csv:"growth_p90" db:"growth_p90"`
}

// ComputeGrowthStats calculates mean, std, and percentiles from growth values.
func ComputeGrowthStats(values []float64) (mean, std, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	if n == 1 {
		mean = values[0]
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	return mean, std, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("farmers", s.Farmers),
		slog.Int("drones", s.Drones),
		slog.Int("farmer_fund", s.FarmerFund),
		slog.Int("drone_fund", s.DroneFund),
		slog.Int("busy_agents", s.BusyAgents),
		slog.Int("sales", s.Sales),
		slog.Int("farmer_spawns", s.FarmerSpawns),
		slog.Int("drone_spawns", s.DroneSpawns),
		slog.Int("rocks_mined", s.RocksMined),
		slog.Int("tiles_tilled", s.TilesTilled),
		slog.Int("seeds_planted", s.SeedsPlanted),
		slog.Int("harvests", s.Harvests),
		slog.Int("abandoned_cargo", s.AbandonedCargo),
		slog.Int("planning_misses", s.PlanningMisses),
		slog.Int("rock_redirects", s.RockRedirects),
		slog.Int("claim_conflicts", s.ClaimConflicts),
		slog.Int("invariant_violations", s.InvariantViolations),
		slog.Int("rock_cells", s.RockCells),
		slog.Int("tilled_cells", s.TilledCells),
		slog.Int("plant_cells", s.PlantCells),
		slog.Int("live_plants", s.LivePlants),
		slog.Int("mature_plants", s.MaturePlants),
		slog.Int("carried_plants", s.CarriedPlants),
		slog.Float64("growth_mean", s.GrowthMean),
		slog.Float64("growth_std", s.GrowthStd),
		slog.Float64("growth_p50", s.GrowthP50),
		slog.Float64("growth_p90", s.GrowthP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
