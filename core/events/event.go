package events

import (
	"sync"

	"dsponsor/core/types"
)

// Event represents a structured state change emitted by a campaign module.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (gateway, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
// Engines default to it so event wiring stays optional.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder keeps a bounded in-memory log of emitted events. The gateway
// serves the recorded tail to indexing collaborators.
type Recorder struct {
	mu     sync.RWMutex
	max    int
	events []*types.Event
}

// NewRecorder creates a recorder retaining at most max events. A non-positive
// max falls back to 1024.
func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = 1024
	}
	return &Recorder{max: max}
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, payload)
	if len(r.events) > r.max {
		r.events = r.events[len(r.events)-r.max:]
	}
}

// Events returns a copy of the recorded event tail, oldest first.
func (r *Recorder) Events() []*types.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Event, len(r.events))
	copy(out, r.events)
	return out
}
