// Package coretest provides an in-memory signal connection for tests.
package coretest

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/FrontRow/internal/core"
)

// Recorder is a core.SignalConnection that keeps every frame it is sent.
// A positive Limit makes TrySend report backpressure once reached.
type Recorder struct {
	Limit int

	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return core.ErrConnClosed
	}
	if r.Limit > 0 && len(r.frames) >= r.Limit {
		return core.ErrBackpressure
	}
	r.frames = append(r.frames, append(core.Frame(nil), f...))
	return nil
}

func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Frames returns the decoded frames received so far.
func (r *Recorder) Frames() []core.Wire {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Wire, 0, len(r.frames))
	for _, f := range r.frames {
		w, err := core.Decode(f)
		if err != nil {
			continue
		}
		out = append(out, w)
	}
	return out
}

// OfKind returns the frames of one kind, in arrival order.
func (r *Recorder) OfKind(kind core.EventKind) []core.Wire {
	var out []core.Wire
	for _, w := range r.Frames() {
		if w.Type == string(kind) {
			out = append(out, w)
		}
	}
	return out
}

func (r *Recorder) Count(kind core.EventKind) int {
	return len(r.OfKind(kind))
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

// Payload unmarshals the payload of w into v.
func Payload[T any](w core.Wire) (T, error) {
	var v T
	err := json.Unmarshal(w.Payload, &v)
	return v, err
}
