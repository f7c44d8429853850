package events

import (
	"sync"

	"mosaica/core/types"
)

// Event represents a structured state change emitted by one of the engines.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. the gateway or
// an external indexer).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
// Engines default to it so event wiring stays optional.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Fanout broadcasts each event to every wrapped emitter in order.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(evt Event) {
	for _, emitter := range f {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}

// Recorder is an Emitter that retains every emitted event. The gateway uses
// it to serve the action log that external charting services replay; tests
// use it to assert on emissions.
type Recorder struct {
	mu     sync.Mutex
	events []*types.Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements the Emitter interface. Events that do not carry a typed
// payload are recorded with their type only.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	record := &types.Event{Type: evt.EventType()}
	if payload, ok := evt.(interface{ Event() *types.Event }); ok {
		if typed := payload.Event(); typed != nil {
			record = typed.Clone()
		}
	}
	r.mu.Lock()
	r.events = append(r.events, record)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []*types.Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.Event, len(r.events))
	for i, evt := range r.events {
		out[i] = evt.Clone()
	}
	return out
}
