package renderer

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/colony/components"
)

const writeTimeout = 5 * time.Second

// Feed broadcasts frames to websocket observers. The simulation goroutine
// makes the Visuals calls; each observer has its own bounded queue and
// writer goroutine, and a slow observer drops frames instead of stalling
// the tick.
type Feed struct {
	upgrader websocket.Upgrader
	buffer   int

	b frameBuilder

	mu       sync.Mutex
	clients  map[uint64]chan []byte
	nextID   uint64
	tiles    map[components.GridCoord]components.TileKind
	entities map[components.VisualHandle]EntityUpdate
	tick     int32
	dropped  int
}

// NewFeed creates a feed queueing up to buffer frames per observer.
func NewFeed(buffer int) *Feed {
	if buffer < 1 {
		buffer = 1
	}
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		buffer:   buffer,
		b:        newFrameBuilder(),
		clients:  make(map[uint64]chan []byte),
		tiles:    make(map[components.GridCoord]components.TileKind),
		entities: make(map[components.VisualHandle]EntityUpdate),
	}
}

func (f *Feed) SetTileVisual(c components.GridCoord, kind components.TileKind) {
	f.b.setTile(c, kind)
	f.mu.Lock()
	f.tiles[c] = kind
	f.mu.Unlock()
}

func (f *Feed) InstantiateVisualEntity(kind components.VisualKind, pos components.Position) components.VisualHandle {
	u := f.b.spawn(kind, pos)
	f.mu.Lock()
	f.entities[u.Handle] = u
	f.mu.Unlock()
	return u.Handle
}

func (f *Feed) DestroyVisualEntity(h components.VisualHandle) {
	f.b.destroy(h)
	f.mu.Lock()
	delete(f.entities, h)
	f.mu.Unlock()
}

func (f *Feed) MoveVisualEntity(h components.VisualHandle, pos components.Position, scale float32) {
	u := f.b.move(h, pos, scale)
	f.mu.Lock()
	if cur, ok := f.entities[h]; ok {
		u.Kind = cur.Kind
		f.entities[h] = u
	}
	f.mu.Unlock()
}

// EndFrame sends the tick's frame to every observer without blocking.
func (f *Feed) EndFrame(tick int32) {
	frame := f.b.take(tick)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tick = tick

	if frame.Empty() || len(f.clients) == 0 {
		return
	}
	msg, err := json.Marshal(frame)
	if err != nil {
		slog.Error("failed to encode frame", "error", err)
		return
	}
	for _, out := range f.clients {
		select {
		case out <- msg:
		default:
			f.dropped++
		}
	}
}

// Clients returns the number of connected observers.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Dropped returns the number of frames dropped for slow observers.
func (f *Feed) Dropped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// snapshotLocked builds a frame holding the full current state.
func (f *Feed) snapshotLocked() Frame {
	fr := Frame{Tick: f.tick, Snapshot: true}
	for c, kind := range f.tiles {
		fr.Tiles = append(fr.Tiles, TileUpdate{Row: c.Row, Col: c.Col, Kind: kind.String()})
	}
	for _, u := range f.entities {
		fr.Spawned = append(fr.Spawned, u)
	}
	sort.Slice(fr.Tiles, func(i, j int) bool {
		if fr.Tiles[i].Row != fr.Tiles[j].Row {
			return fr.Tiles[i].Row < fr.Tiles[j].Row
		}
		return fr.Tiles[i].Col < fr.Tiles[j].Col
	})
	sort.Slice(fr.Spawned, func(i, j int) bool { return fr.Spawned[i].Handle < fr.Spawned[j].Handle })
	return fr
}

// register adds an observer whose queue starts with the current snapshot.
func (f *Feed) register() (uint64, chan []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, err := json.Marshal(f.snapshotLocked())
	if err != nil {
		return 0, nil, err
	}
	out := make(chan []byte, f.buffer+1)
	out <- msg

	f.nextID++
	f.clients[f.nextID] = out
	return f.nextID, out, nil
}

func (f *Feed) unregister(id uint64) {
	f.mu.Lock()
	delete(f.clients, id)
	f.mu.Unlock()
}

// Handler serves the websocket endpoint.
func (f *Feed) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out, err := f.register()
		if err != nil {
			slog.Error("failed to register observer", "error", err)
			return
		}
		defer f.unregister(id)
		slog.Debug("observer connected", "id", id, "remote", r.RemoteAddr)

		done := make(chan struct{})
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-done:
					writeErr <- nil
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Observers never send anything meaningful; reading only detects close.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					close(done)
					return
				}
			}
		}()

		err = <-writeErr
		slog.Debug("observer disconnected", "id", id, "error", err)
	}
}
