package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/systems"
)

// defaultParallelThreshold is the minimum work-unit count to use the pool
// when the config leaves it at zero.
const defaultParallelThreshold = 64

// agentUnit is one agent's record for a tick.
type agentUnit struct {
	Entity ecs.Entity
	Pos    components.Position
	Agent  components.Agent
}

// plantUnit is one plant's record for a tick.
type plantUnit struct {
	Entity ecs.Entity
	Pos    components.Position
	Plant  components.Plant
}

// workChunk represents a range of work units for a worker to process.
// Units [0, len(agents)) are agents, the rest plants.
type workChunk struct {
	start, end int
	slot       int // index of the request buffer to fill
}

// parallelState holds resources for the parallel phase.
type parallelState struct {
	// Start-of-tick state. Read-only while workers run.
	agents     []agentUnit
	plants     []plantUnit
	agentIndex map[ecs.Entity]int
	plantIndex map[ecs.Entity]int

	// Private copies each unit's worker mutates
	agentNext []agentUnit
	plantNext []plantUnit

	// One request buffer per chunk, merged in chunk order
	chunkOut []systems.Requests
	merged   systems.Requests

	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(workers, threshold int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &parallelState{
		numWorkers: workers,
		threshold:  threshold,
		agentIndex: make(map[ecs.Entity]int),
		plantIndex: make(map[ecs.Entity]int),
		chunkOut:   make([]systems.Requests, workers),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeChunk(chunk.start, chunk.end, &p.chunkOut[chunk.slot])
			p.doneChan <- struct{}{}
		}
	}
}

// agentView answers AgentLookup from the start-of-tick snapshot.
type agentView struct{ p *parallelState }

func (v agentView) Agent(e ecs.Entity) (components.Position, components.Agent, bool) {
	i, ok := v.p.agentIndex[e]
	if !ok {
		return components.Position{}, components.Agent{}, false
	}
	u := &v.p.agents[i]
	return u.Pos, u.Agent, true
}

// plantView answers PlantLookup from the start-of-tick snapshot. Refs with
// a stale generation do not resolve.
type plantView struct{ p *parallelState }

func (v plantView) Plant(ref components.EntityRef) (components.Plant, bool) {
	i, ok := v.p.plantIndex[ref.Entity]
	if !ok {
		return components.Plant{}, false
	}
	pl := v.p.plants[i].Plant
	if pl.Gen != ref.Gen {
		return components.Plant{}, false
	}
	return pl, true
}

// buildSnapshots captures every agent and live plant (Phase A).
func (g *Game) buildSnapshots() {
	p := g.parallel
	p.agents = p.agents[:0]
	p.plants = p.plants[:0]
	clear(p.agentIndex)
	clear(p.plantIndex)

	aq := g.agentFilter.Query()
	for aq.Next() {
		pos, agent, _ := aq.Get()
		e := aq.Entity()
		p.agentIndex[e] = len(p.agents)
		p.agents = append(p.agents, agentUnit{Entity: e, Pos: *pos, Agent: *agent})
	}

	pq := g.plantFilter.Query()
	for pq.Next() {
		pos, plant, _ := pq.Get()
		if plant.State == components.PlantPooled {
			continue
		}
		e := pq.Entity()
		p.plantIndex[e] = len(p.plants)
		p.plants = append(p.plants, plantUnit{Entity: e, Pos: *pos, Plant: *plant})
	}

	p.agentNext = append(p.agentNext[:0], p.agents...)
	p.plantNext = append(p.plantNext[:0], p.plants...)
}

// runParallel computes every work unit and returns the merged requests (Phase B).
func (g *Game) runParallel() *systems.Requests {
	p := g.parallel
	n := len(p.agents) + len(p.plants)
	p.merged.Reset()
	if n == 0 {
		return &p.merged
	}

	if n < p.threshold || p.numWorkers == 1 {
		// Single-threaded for small boards
		g.computeChunk(0, n, &p.chunkOut[0])
		p.merged.Append(&p.chunkOut[0])
		return &p.merged
	}

	if !p.running {
		p.startWorkers(g)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, slot: w}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}

	// Chunk order keeps the merged queues in unit order
	for w := 0; w < chunksDispatched; w++ {
		p.merged.Append(&p.chunkOut[w])
	}
	return &p.merged
}

// computeChunk processes a range of work units into out.
func (g *Game) computeChunk(i0, i1 int, out *systems.Requests) {
	out.Reset()
	p := g.parallel
	nA := len(p.agentNext)

	for i := i0; i < i1; i++ {
		if i < nA {
			u := &p.agentNext[i]
			switch u.Agent.State {
			case components.NeedsTask:
				systems.PlanTask(g.ctx, u.Entity, &u.Pos, &u.Agent, out)
			case components.Moving:
				systems.StepMovement(g.ctx, u.Entity, &u.Pos, &u.Agent, out)
			case components.PerformingTask:
				systems.ExecuteTask(g.ctx, u.Entity, &u.Pos, &u.Agent, out)
			}
			continue
		}

		u := &p.plantNext[i-nA]
		systems.UpdatePlant(g.ctx, u.Plant.Ref(u.Entity), &u.Pos, &u.Plant, out)
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
