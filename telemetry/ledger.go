package telemetry

import "github.com/pthm-cable/colony/components"

// WorkRecord tracks what one agent has done since it spawned.
type WorkRecord struct {
	Kind      components.AgentKind
	SpawnTick int32

	Tasks [components.TileStore + 1]int // Completed tasks by intent kind
	Sales int
}

// Total returns the number of tasks completed.
func (r *WorkRecord) Total() int {
	var n int
	for _, c := range r.Tasks {
		n += c
	}
	return n
}

// WorkLedger manages per-agent work records keyed by agent ID.
type WorkLedger struct {
	records map[uint32]*WorkRecord
}

// NewWorkLedger creates an empty ledger.
func NewWorkLedger() *WorkLedger {
	return &WorkLedger{
		records: make(map[uint32]*WorkRecord),
	}
}

// Register creates a record for a newly spawned agent.
func (l *WorkLedger) Register(agentID uint32, kind components.AgentKind, tick int32) {
	l.records[agentID] = &WorkRecord{Kind: kind, SpawnTick: tick}
}

// Get returns the record for an agent, or nil if not found.
func (l *WorkLedger) Get(agentID uint32) *WorkRecord {
	return l.records[agentID]
}

// RecordTask increments the completed count for a task kind.
func (l *WorkLedger) RecordTask(agentID uint32, kind components.TileKind) {
	if r := l.records[agentID]; r != nil && int(kind) < len(r.Tasks) {
		r.Tasks[kind]++
	}
}

// RecordSale credits a delivered plant to the carrier.
func (l *WorkLedger) RecordSale(agentID uint32) {
	if r := l.records[agentID]; r != nil {
		r.Sales++
	}
}

// Totals sums task counts across all agents of a kind.
func (l *WorkLedger) Totals(kind components.AgentKind) (tasks [components.TileStore + 1]int, sales int) {
	for _, r := range l.records {
		if r.Kind != kind {
			continue
		}
		for i, c := range r.Tasks {
			tasks[i] += c
		}
		sales += r.Sales
	}
	return tasks, sales
}

// Count returns the number of tracked agents.
func (l *WorkLedger) Count() int {
	return len(l.records)
}
