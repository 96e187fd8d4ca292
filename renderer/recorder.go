package renderer

import "github.com/pthm-cable/colony/components"

// Recorder keeps the current visual state in memory and counts what each
// frame did. Used by tests and headless checks.
type Recorder struct {
	Tiles     map[components.GridCoord]components.TileKind
	Live      map[components.VisualHandle]components.VisualKind
	Positions map[components.VisualHandle]components.Position

	Instantiated int
	Destroyed    int
	Frames       int

	// MaxTileWrites is the most writes any single coordinate received
	// within one frame.
	MaxTileWrites int
	// DoubleDestroys counts destroys of handles that were not live.
	DoubleDestroys int

	next       components.VisualHandle
	frameTiles map[components.GridCoord]int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Tiles:      make(map[components.GridCoord]components.TileKind),
		Live:       make(map[components.VisualHandle]components.VisualKind),
		Positions:  make(map[components.VisualHandle]components.Position),
		frameTiles: make(map[components.GridCoord]int),
	}
}

func (r *Recorder) SetTileVisual(c components.GridCoord, kind components.TileKind) {
	r.Tiles[c] = kind
	r.frameTiles[c]++
	if n := r.frameTiles[c]; n > r.MaxTileWrites {
		r.MaxTileWrites = n
	}
}

func (r *Recorder) InstantiateVisualEntity(kind components.VisualKind, pos components.Position) components.VisualHandle {
	r.next++
	r.Live[r.next] = kind
	r.Positions[r.next] = pos
	r.Instantiated++
	return r.next
}

func (r *Recorder) DestroyVisualEntity(h components.VisualHandle) {
	if _, ok := r.Live[h]; !ok {
		r.DoubleDestroys++
		return
	}
	delete(r.Live, h)
	delete(r.Positions, h)
	r.Destroyed++
}

func (r *Recorder) MoveVisualEntity(h components.VisualHandle, pos components.Position, _ float32) {
	if _, ok := r.Live[h]; ok {
		r.Positions[h] = pos
	}
}

func (r *Recorder) EndFrame(int32) {
	r.Frames++
	clear(r.frameTiles)
}

// CountLive returns the number of live visuals of a kind.
func (r *Recorder) CountLive(kind components.VisualKind) int {
	var n int
	for _, k := range r.Live {
		if k == kind {
			n++
		}
	}
	return n
}
