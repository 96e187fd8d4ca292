package renderer

import "github.com/pthm-cable/colony/components"

// Frame is one tick of visual changes as sent to observers.
type Frame struct {
	Tick      int32                     `json:"tick"`
	Snapshot  bool                      `json:"snapshot,omitempty"`
	Tiles     []TileUpdate              `json:"tiles,omitempty"`
	Spawned   []EntityUpdate            `json:"spawned,omitempty"`
	Moved     []EntityUpdate            `json:"moved,omitempty"`
	Destroyed []components.VisualHandle `json:"destroyed,omitempty"`
}

// Empty reports whether the frame carries no changes.
func (f *Frame) Empty() bool {
	return len(f.Tiles) == 0 && len(f.Spawned) == 0 && len(f.Moved) == 0 && len(f.Destroyed) == 0
}

// TileUpdate sets the look of one cell.
type TileUpdate struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Kind string `json:"kind"`
}

// EntityUpdate places a visual entity.
type EntityUpdate struct {
	Handle components.VisualHandle `json:"h"`
	Kind   string                  `json:"kind,omitempty"`
	X      float32                 `json:"x"`
	Y      float32                 `json:"y"`
	Z      float32                 `json:"z"`
	Scale  float32                 `json:"s,omitempty"`
}

// frameBuilder batches Visuals calls into a Frame. Moves of the same handle
// within a tick collapse to the last one.
type frameBuilder struct {
	next    components.VisualHandle
	pending Frame
	moved   map[components.VisualHandle]int // handle -> index in pending.Moved
}

func newFrameBuilder() frameBuilder {
	return frameBuilder{moved: make(map[components.VisualHandle]int)}
}

func (b *frameBuilder) setTile(c components.GridCoord, kind components.TileKind) {
	b.pending.Tiles = append(b.pending.Tiles, TileUpdate{Row: c.Row, Col: c.Col, Kind: kind.String()})
}

func (b *frameBuilder) spawn(kind components.VisualKind, pos components.Position) EntityUpdate {
	b.next++
	u := EntityUpdate{Handle: b.next, Kind: kind.String(), X: pos.X, Y: pos.Y, Z: pos.Z, Scale: 1}
	b.pending.Spawned = append(b.pending.Spawned, u)
	return u
}

func (b *frameBuilder) destroy(h components.VisualHandle) {
	b.pending.Destroyed = append(b.pending.Destroyed, h)
}

func (b *frameBuilder) move(h components.VisualHandle, pos components.Position, scale float32) EntityUpdate {
	u := EntityUpdate{Handle: h, X: pos.X, Y: pos.Y, Z: pos.Z, Scale: scale}
	if i, ok := b.moved[h]; ok {
		b.pending.Moved[i] = u
		return u
	}
	b.moved[h] = len(b.pending.Moved)
	b.pending.Moved = append(b.pending.Moved, u)
	return u
}

// take returns the pending frame stamped with tick and starts a new one.
func (b *frameBuilder) take(tick int32) Frame {
	f := b.pending
	f.Tick = tick
	b.pending = Frame{}
	clear(b.moved)
	return f
}
