package renderer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/pthm-cable/colony/components"
)

// FrameLog records every non-empty frame as zstd-compressed JSON lines so a
// run can be replayed without a live observer.
type FrameLog struct {
	b   frameBuilder
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer

	frames int
	failed bool
}

// CreateFrameLog opens path for writing, truncating any existing file.
func CreateFrameLog(path string) (*FrameLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating frame log: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	return &FrameLog{
		b:   newFrameBuilder(),
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

func (l *FrameLog) SetTileVisual(c components.GridCoord, kind components.TileKind) {
	l.b.setTile(c, kind)
}

func (l *FrameLog) InstantiateVisualEntity(kind components.VisualKind, pos components.Position) components.VisualHandle {
	return l.b.spawn(kind, pos).Handle
}

func (l *FrameLog) DestroyVisualEntity(h components.VisualHandle) {
	l.b.destroy(h)
}

func (l *FrameLog) MoveVisualEntity(h components.VisualHandle, pos components.Position, scale float32) {
	l.b.move(h, pos, scale)
}

// EndFrame appends the tick's frame. A write error disables the log
// rather than stopping the simulation.
func (l *FrameLog) EndFrame(tick int32) {
	f := l.b.take(tick)
	if l.failed || f.Empty() {
		return
	}
	if err := l.write(f); err != nil {
		slog.Error("failed to write frame log", "error", err)
		l.failed = true
	}
}

func (l *FrameLog) write(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	l.frames++
	return nil
}

// Frames returns the number of frames written.
func (l *FrameLog) Frames() int {
	return l.frames
}

// Close flushes and closes the log.
func (l *FrameLog) Close() error {
	var firstErr error
	if err := l.w.Flush(); err != nil {
		firstErr = err
	}
	if err := l.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := l.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ReadFrameLog decodes every frame in a log written by FrameLog.
func ReadFrameLog(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	var frames []Frame
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var fr Frame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			return frames, fmt.Errorf("decoding frame %d: %w", len(frames), err)
		}
		frames = append(frames, fr)
	}
	return frames, sc.Err()
}
