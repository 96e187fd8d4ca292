package components

// AgentKind distinguishes farmers from drones.
type AgentKind uint8

const (
	KindFarmer AgentKind = iota
	KindDrone
)

func (k AgentKind) String() string {
	if k == KindDrone {
		return "drone"
	}
	return "farmer"
}

// MovementState is the agent's position in the plan/move/perform cycle.
type MovementState uint8

const (
	NeedsTask MovementState = iota
	Moving
	PerformingTask
)

var movementStateNames = [...]string{"needs_task", "moving", "performing_task"}

func (s MovementState) String() string {
	if int(s) < len(movementStateNames) {
		return movementStateNames[s]
	}
	return "unknown"
}

// Intent is the task an agent is pursuing and the entity it claimed for it.
type Intent struct {
	Kind    TileKind
	Claimed EntityRef
}

// Agent is the per-agent record shared by farmers and drones.
type Agent struct {
	ID          uint32
	Kind        AgentKind
	State       MovementState
	Speed       float32
	Target      Position
	Waypoint    Position
	HasWaypoint bool
	Intent      Intent
	Carrying    EntityRef // Plant being carried, if any
}

// Rock occupies a single cell until mined.
type Rock struct {
	Cell GridCoord
}
