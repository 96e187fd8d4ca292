package systems

import (
	"log/slog"

	"github.com/pthm-cable/colony/config"
)

// EconomyState is a point-in-time view of the economy.
type EconomyState struct {
	FarmerFund int
	DroneFund  int
	Farmers    int
	Drones     int
}

// LogValue implements slog.LogValuer for structured logging.
func (s EconomyState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("farmer_fund", s.FarmerFund),
		slog.Int("drone_fund", s.DroneFund),
		slog.Int("farmers", s.Farmers),
		slog.Int("drones", s.Drones),
	)
}

// Economy turns sales into new agents. Both funds receive every sale's
// proceeds; each buys at most one agent per tick and never past its cap.
type Economy struct {
	cfg   config.EconomyConfig
	state EconomyState
}

// NewEconomy creates an economy with the configured starting funds.
func NewEconomy(cfg config.EconomyConfig) *Economy {
	return &Economy{
		cfg: cfg,
		state: EconomyState{
			FarmerFund: cfg.InitialFarmer,
			DroneFund:  cfg.InitialDrone,
		},
	}
}

// Deposit credits the proceeds of n sales to both funds.
func (e *Economy) Deposit(n int) {
	if n <= 0 {
		return
	}
	e.state.FarmerFund += n * e.cfg.SalePrice
	e.state.DroneFund += n * e.cfg.SalePrice
}

// Settle pays for at most one farmer and one drone. The caller must spawn
// whatever Settle reports; the counts are already updated.
func (e *Economy) Settle() (farmer, drone bool) {
	if e.state.FarmerFund >= e.cfg.FarmerCost && e.state.Farmers < e.cfg.FarmerCap {
		e.state.FarmerFund -= e.cfg.FarmerCost
		e.state.Farmers++
		farmer = true
	}
	if e.state.DroneFund >= e.cfg.DroneCost && e.state.Drones < e.cfg.DroneCap {
		e.state.DroneFund -= e.cfg.DroneCost
		e.state.Drones++
		drone = true
	}
	return farmer, drone
}

// AddFarmer counts a farmer spawned outside Settle. Returns false at the cap.
func (e *Economy) AddFarmer() bool {
	if e.state.Farmers >= e.cfg.FarmerCap {
		return false
	}
	e.state.Farmers++
	return true
}

// AddDrone counts a drone spawned outside Settle. Returns false at the cap.
func (e *Economy) AddDrone() bool {
	if e.state.Drones >= e.cfg.DroneCap {
		return false
	}
	e.state.Drones++
	return true
}

// Snapshot returns the current state.
func (e *Economy) Snapshot() EconomyState {
	return e.state
}
