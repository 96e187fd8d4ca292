package components

import "github.com/mlange-42/ark/ecs"

// PlantState is the plant lifecycle stage.
type PlantState uint8

const (
	PlantPooled        PlantState = iota // On the free-list, hidden
	PlantSeeded                          // Cell reserved by a planting claim, not yet planted
	PlantGrowing                         // Growth accumulating
	PlantDormant                         // Fully grown, waiting for a harvester
	PlantReserved                        // Harvest claim succeeded, pickup pending
	PlantFollowing                       // Carried toward a store
	PlantMarkedDeleted                   // Awaiting return to the free-list
)

var plantStateNames = [...]string{"pooled", "seeded", "growing", "dormant", "reserved", "following", "marked_deleted"}

func (s PlantState) String() string {
	if int(s) < len(plantStateNames) {
		return plantStateNames[s]
	}
	return "unknown"
}

// Plant is the per-plant record.
type Plant struct {
	Gen     uint32
	State   PlantState
	Growth  float32
	Cell    GridCoord
	Carrier ecs.Entity // Set from Reserved onward
	Claimer ecs.Entity // Agent whose harvest claim removed the plant from the grid
}

// Ref returns a generation-checked handle for the plant.
func (p *Plant) Ref(e ecs.Entity) EntityRef {
	return EntityRef{Entity: e, Gen: p.Gen}
}
