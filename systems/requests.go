package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
)

// TransitionSubject says which record a Transition targets.
type TransitionSubject uint8

const (
	SubjectAgent TransitionSubject = iota
	SubjectPlant
)

// Transition is a deferred state change for an agent or a plant.
type Transition struct {
	Subject    TransitionSubject
	Agent      ecs.Entity
	AgentState components.MovementState
	Plant      components.EntityRef
	PlantState components.PlantState
	By         ecs.Entity // Agent responsible for a plant transition
}

// ClaimRemoval asks the barrier to take a cell out of the grid on behalf of
// an agent. Only the first request whose expectation still holds wins.
type ClaimRemoval struct {
	Cell      components.GridCoord
	Expect    components.TileKind
	Occupant  components.EntityRef
	Requester ecs.Entity
}

// SpawnKind selects what a SpawnRequest creates.
type SpawnKind uint8

const (
	SpawnPlant SpawnKind = iota
	SpawnFarmer
	SpawnDrone
)

// SpawnRequest asks the barrier to create or activate an entity.
type SpawnRequest struct {
	Kind      SpawnKind
	Cell      components.GridCoord
	Pos       components.Position
	Plant     components.EntityRef // Seeded plant to activate (SpawnPlant)
	Requester ecs.Entity
	Sale      bool // Farmer earned by delivering a plant
}

// DestroyKind selects what a DestroyRequest removes.
type DestroyKind uint8

const (
	DestroyRock DestroyKind = iota
	DestroyPlant
)

// DestroyRequest asks the barrier to remove an entity.
type DestroyRequest struct {
	Kind DestroyKind
	Ref  components.EntityRef
}

// VisualUpdate asks the renderer to redraw a tile.
type VisualUpdate struct {
	Cell components.GridCoord
	Kind components.TileKind
}

// TaskCompletion records an agent finishing a task.
type TaskCompletion struct {
	Agent ecs.Entity
	Kind  components.TileKind
}

// WorkStats are counters gathered by workers during a tick.
type WorkStats struct {
	PlanningMisses   int
	RockRedirects    int
	AbandonedCargo   int
	TillClaims       int
	TillConflicts    int
	HarvestClaims    int
	HarvestConflicts int
}

func (s *WorkStats) add(o WorkStats) {
	s.PlanningMisses += o.PlanningMisses
	s.RockRedirects += o.RockRedirects
	s.AbandonedCargo += o.AbandonedCargo
	s.TillClaims += o.TillClaims
	s.TillConflicts += o.TillConflicts
	s.HarvestClaims += o.HarvestClaims
	s.HarvestConflicts += o.HarvestConflicts
}

// Requests is an append-only buffer of deferred mutations. Each worker owns
// one; the barrier merges them in chunk order.
type Requests struct {
	Transitions []Transition
	Claims      []ClaimRemoval
	Visuals     []VisualUpdate
	Spawns      []SpawnRequest
	Destroys    []DestroyRequest
	Completions []TaskCompletion
	Stats       WorkStats
}

// Reset empties the buffer, keeping capacity.
func (r *Requests) Reset() {
	r.Transitions = r.Transitions[:0]
	r.Claims = r.Claims[:0]
	r.Visuals = r.Visuals[:0]
	r.Spawns = r.Spawns[:0]
	r.Destroys = r.Destroys[:0]
	r.Completions = r.Completions[:0]
	r.Stats = WorkStats{}
}

// Append adds everything in o after the current contents.
func (r *Requests) Append(o *Requests) {
	r.Transitions = append(r.Transitions, o.Transitions...)
	r.Claims = append(r.Claims, o.Claims...)
	r.Visuals = append(r.Visuals, o.Visuals...)
	r.Spawns = append(r.Spawns, o.Spawns...)
	r.Destroys = append(r.Destroys, o.Destroys...)
	r.Completions = append(r.Completions, o.Completions...)
	r.Stats.add(o.Stats)
}

// SetAgentState defers an agent state change.
func (r *Requests) SetAgentState(e ecs.Entity, s components.MovementState) {
	r.Transitions = append(r.Transitions, Transition{Subject: SubjectAgent, Agent: e, AgentState: s})
}

// SetPlantState defers a plant state change made on behalf of agent by.
func (r *Requests) SetPlantState(p components.EntityRef, s components.PlantState, by ecs.Entity) {
	r.Transitions = append(r.Transitions, Transition{Subject: SubjectPlant, Plant: p, PlantState: s, By: by})
}

// Claim defers a grid claim removal.
func (r *Requests) Claim(c ClaimRemoval) {
	r.Claims = append(r.Claims, c)
}

// Visual defers a tile visual update.
func (r *Requests) Visual(c components.GridCoord, kind components.TileKind) {
	r.Visuals = append(r.Visuals, VisualUpdate{Cell: c, Kind: kind})
}

// Spawn defers an entity spawn.
func (r *Requests) Spawn(s SpawnRequest) {
	r.Spawns = append(r.Spawns, s)
}

// Destroy defers an entity removal.
func (r *Requests) Destroy(kind DestroyKind, ref components.EntityRef) {
	r.Destroys = append(r.Destroys, DestroyRequest{Kind: kind, Ref: ref})
}

// Complete records a finished task.
func (r *Requests) Complete(e ecs.Entity, kind components.TileKind) {
	r.Completions = append(r.Completions, TaskCompletion{Agent: e, Kind: kind})
}
