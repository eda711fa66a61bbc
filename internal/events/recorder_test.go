package events

import "sync"

// Recorder stores events in memory.
type Recorder[E any] struct {
	mu     sync.Mutex
	events []E
}

func NewRecorder[E any]() *Recorder[E] { return &Recorder[E]{} }

// Record is a Handler that appends ev.
func (r *Recorder[E]) Record(ev E) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *Recorder[E]) Events() []E {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]E, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder[E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// count reports how many handlers are registered for name.
func (e *Emitter[E]) count(name string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[name])
}
