// Package events provides the synchronous observer primitive shared by entities and
// the request manager.
//
// Handlers registered for a name run in registration order, on the goroutine that
// calls Trigger, before Trigger returns. There is no queueing and no dropping.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one registration so it can be removed later.
type Handle = uuid.UUID

// Handler receives one event payload.
type Handler[E any] func(E)

type registration[E any] struct {
	id Handle
	fn Handler[E]
}

// Emitter dispatches named events to registered handlers. The zero value is ready to use.
type Emitter[E any] struct {
	mu       sync.RWMutex
	handlers map[string][]registration[E]
}

// On registers fn for name and returns a handle for Off.
func (e *Emitter[E]) On(name string, fn Handler[E]) Handle {
	if fn == nil {
		return uuid.Nil
	}
	id := uuid.New()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[string][]registration[E])
	}
	e.handlers[name] = append(e.handlers[name], registration[E]{id: id, fn: fn})
	return id
}

// Off removes the registration identified by h. Unknown handles are ignored.
func (e *Emitter[E]) Off(name string, h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	regs := e.handlers[name]
	for i, r := range regs {
		if r.id != h {
			continue
		}
		// copy so that snapshots held by an in-progress Trigger stay intact
		next := make([]registration[E], 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)
		if len(next) == 0 {
			delete(e.handlers, name)
		} else {
			e.handlers[name] = next
		}
		return
	}
}

// Trigger calls every handler registered for name with ev, in registration order.
// The handler list is captured before the first call, so handlers may register or
// remove handlers; the change applies to the next Trigger.
func (e *Emitter[E]) Trigger(name string, ev E) {
	e.mu.RLock()
	regs := e.handlers[name]
	e.mu.RUnlock()
	for _, r := range regs {
		r.fn(ev)
	}
}
