package telemetry

import (
	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/systems"
)

// Census is a point-in-time count of the colony, taken by the game at
// window end.
type Census struct {
	Farmers    int
	Drones     int
	FarmerFund int
	DroneFund  int
	BusyAgents int

	RockCells   int
	TilledCells int
	PlantCells  int

	LivePlants    int
	MaturePlants  int
	CarriedPlants int

	// Growth of every plant standing in the ground
	Growth []float64
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	// Event counters for current window
	sales               int
	farmerSpawns        int
	droneSpawns         int
	rocksMined          int
	seedsPlanted        int
	claimConflicts      int
	invariantViolations int
	work                systems.WorkStats
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSale records a plant delivered to a store.
func (c *Collector) RecordSale() {
	c.sales++
}

// RecordSpawn records an agent bought by the economy.
func (c *Collector) RecordSpawn(kind components.AgentKind) {
	if kind == components.KindDrone {
		c.droneSpawns++
	} else {
		c.farmerSpawns++
	}
}

// RecordRockMined records a rock removed from the board.
func (c *Collector) RecordRockMined() {
	c.rocksMined++
}

// RecordPlanted records a seeded plant starting to grow.
func (c *Collector) RecordPlanted() {
	c.seedsPlanted++
}

// RecordClaimConflict records a claim removal lost in the barrier.
func (c *Collector) RecordClaimConflict() {
	c.claimConflicts++
}

// RecordInvariantViolation records a request dropped for breaking a contract.
func (c *Collector) RecordInvariantViolation() {
	c.invariantViolations++
}

// RecordWork folds in the counters gathered by workers during one tick.
func (c *Collector) RecordWork(w systems.WorkStats) {
	c.work.PlanningMisses += w.PlanningMisses
	c.work.RockRedirects += w.RockRedirects
	c.work.AbandonedCargo += w.AbandonedCargo
	c.work.TillClaims += w.TillClaims
	c.work.TillConflicts += w.TillConflicts
	c.work.HarvestClaims += w.HarvestClaims
	c.work.HarvestConflicts += w.HarvestConflicts
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, census Census) WindowStats {
	mean, std, p50, p90 := ComputeGrowthStats(census.Growth)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Farmers:    census.Farmers,
		Drones:     census.Drones,
		FarmerFund: census.FarmerFund,
		DroneFund:  census.DroneFund,
		BusyAgents: census.BusyAgents,

		Sales:        c.sales,
		FarmerSpawns: c.farmerSpawns,
		DroneSpawns:  c.droneSpawns,
		RocksMined:   c.rocksMined,
		TilesTilled:  c.work.TillClaims,
		SeedsPlanted: c.seedsPlanted,
		Harvests:     c.work.HarvestClaims,

		AbandonedCargo:      c.work.AbandonedCargo,
		PlanningMisses:      c.work.PlanningMisses,
		RockRedirects:       c.work.RockRedirects,
		ClaimConflicts:      c.claimConflicts + c.work.TillConflicts + c.work.HarvestConflicts,
		InvariantViolations: c.invariantViolations,

		RockCells:     census.RockCells,
		TilledCells:   census.TilledCells,
		PlantCells:    census.PlantCells,
		LivePlants:    census.LivePlants,
		MaturePlants:  census.MaturePlants,
		CarriedPlants: census.CarriedPlants,

		GrowthMean: mean,
		GrowthStd:  std,
		GrowthP50:  p50,
		GrowthP90:  p90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.sales = 0
	c.farmerSpawns = 0
	c.droneSpawns = 0
	c.rocksMined = 0
	c.seedsPlanted = 0
	c.claimConflicts = 0
	c.invariantViolations = 0
	c.work = systems.WorkStats{}

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
