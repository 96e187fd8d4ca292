// Package renderer defines the visual collaborator the simulation drives and
// the implementations that stand behind it.
package renderer

import (
	"github.com/pthm-cable/colony/components"
)

// Visuals receives every visual change the barrier makes. Calls only ever
// come from the simulation goroutine. EndFrame closes the tick's batch.
type Visuals interface {
	SetTileVisual(c components.GridCoord, kind components.TileKind)
	InstantiateVisualEntity(kind components.VisualKind, pos components.Position) components.VisualHandle
	DestroyVisualEntity(h components.VisualHandle)
	MoveVisualEntity(h components.VisualHandle, pos components.Position, scale float32)
	EndFrame(tick int32)
}

// Nop discards everything.
type Nop struct {
	next components.VisualHandle
}

func (n *Nop) SetTileVisual(components.GridCoord, components.TileKind) {}

func (n *Nop) InstantiateVisualEntity(components.VisualKind, components.Position) components.VisualHandle {
	n.next++
	return n.next
}

func (n *Nop) DestroyVisualEntity(components.VisualHandle) {}

func (n *Nop) MoveVisualEntity(components.VisualHandle, components.Position, float32) {}

func (n *Nop) EndFrame(int32) {}

// Multi fans calls out to several Visuals. Handles come from the first;
// every member allocates them sequentially from 1, so they agree.
type Multi []Visuals

func (m Multi) SetTileVisual(c components.GridCoord, kind components.TileKind) {
	for _, v := range m {
		v.SetTileVisual(c, kind)
	}
}

func (m Multi) InstantiateVisualEntity(kind components.VisualKind, pos components.Position) components.VisualHandle {
	var h components.VisualHandle
	for i, v := range m {
		got := v.InstantiateVisualEntity(kind, pos)
		if i == 0 {
			h = got
		}
	}
	return h
}

func (m Multi) DestroyVisualEntity(h components.VisualHandle) {
	for _, v := range m {
		v.DestroyVisualEntity(h)
	}
}

func (m Multi) MoveVisualEntity(h components.VisualHandle, pos components.Position, scale float32) {
	for _, v := range m {
		v.MoveVisualEntity(h, pos, scale)
	}
}

func (m Multi) EndFrame(tick int32) {
	for _, v := range m {
		v.EndFrame(tick)
	}
}
