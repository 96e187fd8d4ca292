package telemetry

import (
	"testing"

	"github.com/pthm-cable/colony/components"
)

func TestWorkLedger(t *testing.T) {
	l := NewWorkLedger()
	l.Register(1, components.KindFarmer, 0)
	l.Register(2, components.KindFarmer, 10)
	l.Register(3, components.KindDrone, 20)

	l.RecordTask(1, components.TileTilled)
	l.RecordTask(1, components.TilePlant)
	l.RecordTask(2, components.TileTilled)
	l.RecordTask(3, components.TileHarvest)
	l.RecordSale(3)
	l.RecordTask(99, components.TileRock) // unknown agents are ignored
	l.RecordSale(99)

	if n := l.Count(); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
	if got := l.Get(1).Total(); got != 2 {
		t.Errorf("agent 1 total = %d, want 2", got)
	}

	tasks, sales := l.Totals(components.KindFarmer)
	if tasks[components.TileTilled] != 2 || tasks[components.TilePlant] != 1 || sales != 0 {
		t.Errorf("farmer totals = %v sales %d", tasks, sales)
	}
	tasks, sales = l.Totals(components.KindDrone)
	if tasks[components.TileHarvest] != 1 || sales != 1 {
		t.Errorf("drone totals = %v sales %d", tasks, sales)
	}
}
