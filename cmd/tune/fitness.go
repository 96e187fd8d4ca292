package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/colony/config"
	"github.com/pthm-cable/colony/game"
	"github.com/pthm-cable/colony/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
	lastSales   float64 // sales per minute from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0, // 10 seconds per window
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastSalesPerMinute returns the mean sale rate from the most recent evaluation.
func (fe *FitnessEvaluator) LastSalesPerMinute() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSales
}

// violationPenalty is added per invariant violation. A broken run should
// never beat a clean one.
const violationPenalty = 1000.0

// runResult holds the results from a single simulation run.
type runResult struct {
	ticks       int32
	dt          float64
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

type seedResult struct {
	fitness float64
	quality float64
	sales   float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated sale rate scaled by colony quality.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			results[idx] = seedResult{
				fitness: computeFitness(result),
				quality: computeQuality(result.windowStats),
				sales:   salesPerMinute(result),
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality, totalSales float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		totalSales += r.sales
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.lastSales = totalSales / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless simulation run.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{dt: cfg.Physics.DT}

	g := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Config:         cfg,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}
	result.ticks = g.Tick()
	return result
}

// copyConfig copies the base config. Slices stay shared; the parameters
// only touch scalar fields.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	// Seeds already run in parallel
	cfg.Parallel.Workers = 1
	return &cfg
}

func salesPerMinute(r *runResult) float64 {
	minutes := float64(r.ticks) * r.dt / 60
	if minutes <= 0 {
		return 0
	}
	var sales int
	for _, w := range r.windowStats {
		sales += w.Sales
	}
	return float64(sales) / minutes
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(salesPerMinute × (1.0 + 0.2 × quality)) + violations × penalty
func computeFitness(r *runResult) float64 {
	var violations int
	for _, w := range r.windowStats {
		violations += w.InvariantViolations
	}
	quality := computeQuality(r.windowStats)
	return -(salesPerMinute(r) * (1.0 + 0.2*quality)) + float64(violations)*violationPenalty
}

// Quality component weights.
const (
	qualityWeightUtilization = 0.40
	qualityWeightFriction    = 0.30
	qualityWeightStability   = 0.30

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality scores how smoothly the colony runs, in [0, 1].
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var utilSum, frictionSum float64
	sales := make([]float64, 0, len(valid))

	for _, w := range valid {
		agents := w.Farmers + w.Drones
		if agents == 0 {
			continue
		}
		utilSum += float64(w.BusyAgents) / float64(agents)

		// Conflicts, misses and dropped cargo per agent
		waste := float64(w.ClaimConflicts+w.AbandonedCargo+w.PlanningMisses) / float64(agents)
		frictionSum += math.Exp(-waste / 5.0)

		sales = append(sales, float64(w.Sales))
	}

	if len(sales) == 0 {
		return 0
	}
	n := float64(len(sales))

	stability := 0.0
	if len(sales) >= 2 {
		mean, std := stat.MeanStdDev(sales, nil)
		if mean > 0 {
			c := std / mean
			stability = math.Exp(-c * c)
		}
	}

	quality := qualityWeightUtilization*(utilSum/n) +
		qualityWeightFriction*(frictionSum/n) +
		qualityWeightStability*stability

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
