package main

import (
	"math"

	"github.com/pthm-cable/colony/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before it is applied
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Economy
			{Name: "sale_price", Path: "economy.sale_price", Min: 1, Max: 5, Default: 1, Integer: true},
			{Name: "farmer_cost", Path: "economy.farmer_cost", Min: 1, Max: 10, Default: 1, Integer: true},
			{Name: "drone_cost", Path: "economy.drone_cost", Min: 2, Max: 30, Default: 10, Integer: true},
			// Agents
			{Name: "initial_farmers", Path: "agents.initial_farmers", Min: 2, Max: 30, Default: 12, Integer: true},
			{Name: "initial_drones", Path: "agents.initial_drones", Min: 0, Max: 10, Default: 0, Integer: true},
			{Name: "farmer_speed", Path: "agents.farmer_speed", Min: 1, Max: 8, Default: 4},
			{Name: "drone_speed", Path: "agents.drone_speed", Min: 2, Max: 12, Default: 7},
			// Plants
			{Name: "max_growth", Path: "plants.max_growth", Min: 2, Max: 30, Default: 10},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds. Integer parameters are rounded.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if spec.Integer {
			val = math.Round(val)
		}
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	// Order must match Specs order
	i := 0
	cfg.Economy.SalePrice = int(clamped[i]); i++
	cfg.Economy.FarmerCost = int(clamped[i]); i++
	cfg.Economy.DroneCost = int(clamped[i]); i++
	cfg.Agents.InitialFarmers = int(clamped[i]); i++
	cfg.Agents.InitialDrones = int(clamped[i]); i++
	cfg.Agents.FarmerSpeed = clamped[i]; i++
	cfg.Agents.DroneSpeed = clamped[i]; i++
	cfg.Plants.MaxGrowth = clamped[i]

	cfg.Derive()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		float64(cfg.Economy.SalePrice),
		float64(cfg.Economy.FarmerCost),
		float64(cfg.Economy.DroneCost),
		float64(cfg.Agents.InitialFarmers),
		float64(cfg.Agents.InitialDrones),
		cfg.Agents.FarmerSpeed,
		cfg.Agents.DroneSpeed,
		cfg.Plants.MaxGrowth,
	}
}
