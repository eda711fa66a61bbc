package evented

import (
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/google/go-cmp/cmp"

	"livedash/internal/events"
)

// ChangeEvent is the name of the event fired after a successful, non-silent Set
// that changed at least one value.
const ChangeEvent = "change"

// Event is delivered to entity handlers.
type Event struct {
	Name   string
	Entity *Entity
	// Changed lists the fields whose value changed, recognized fields first in
	// schema order, then pass-through keys sorted. Only set for ChangeEvent.
	Changed []string
	// Args carries the extra arguments given to Trigger.
	Args []any
}

// Entity owns a data map shaped by a Schema. Other components must go through
// its accessors; the map is never handed out.
type Entity struct {
	schema *Schema

	mu      sync.RWMutex
	data    map[string]any
	invalid string

	emitter events.Emitter[Event]
}

// New creates an entity whose data is the schema defaults overlaid with initial.
// initial goes through the same validation as Set.
func New(schema *Schema, initial map[string]any) (*Entity, error) {
	data, err := schema.apply(schema.Defaults(), initial, true)
	if err != nil {
		return nil, err
	}
	return &Entity{schema: schema, data: data}, nil
}

func (e *Entity) Schema() *Schema { return e.schema }

// Get returns the current value of field, or nil for a key the entity never held.
func (e *Entity) Get(field string) any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.data[field]
}

// Snapshot returns a copy of the current data.
func (e *Entity) Snapshot() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.data)
}

// Invalid returns the reason the most recent failed Set was rejected. It is not
// cleared by later successful updates.
func (e *Entity) Invalid() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.invalid
}

// Set applies partial atomically. It returns false, leaving data untouched and
// recording the reason for Invalid, if any recognized field or the schema check
// rejects the update. Otherwise every field is written and, unless silent, one
// change event fires if any value differs from before.
func (e *Entity) Set(partial map[string]any, silent bool) bool {
	ok, _ := e.set(partial, silent)
	return ok
}

// SetErr is Set returning the validation error instead of a boolean.
func (e *Entity) SetErr(partial map[string]any, silent bool) error {
	_, err := e.set(partial, silent)
	return err
}

func (e *Entity) set(partial map[string]any, silent bool) (bool, error) {
	e.mu.Lock()
	next, err := e.schema.apply(e.data, partial, false)
	if err != nil {
		e.invalid = err.Error()
		e.mu.Unlock()
		return false, err
	}
	changed := e.diff(next)
	e.data = next
	e.mu.Unlock()

	if len(changed) > 0 && !silent {
		e.emitter.Trigger(ChangeEvent, Event{Name: ChangeEvent, Entity: e, Changed: changed})
	}
	return true, nil
}

// diff must be called with e.mu held.
func (e *Entity) diff(next map[string]any) []string {
	var changed, extra []string
	for _, f := range e.schema.fields {
		if !cmp.Equal(e.data[f.Name], next[f.Name]) {
			changed = append(changed, f.Name)
		}
	}
	for k, v := range next {
		if e.schema.Has(k) {
			continue
		}
		old, ok := e.data[k]
		if !ok || !cmp.Equal(old, v) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return slices.Concat(changed, extra)
}

// Field returns an accessor bound to one field.
func (e *Entity) Field(name string) Accessor { return Accessor{e: e, name: name} }

// On registers fn for the named event.
func (e *Entity) On(name string, fn func(Event)) events.Handle {
	return e.emitter.On(name, fn)
}

// Off removes a handler registered with On.
func (e *Entity) Off(name string, h events.Handle) { e.emitter.Off(name, h) }

// Trigger fires a custom event on the entity, e.g. "signed-in".
func (e *Entity) Trigger(name string, args ...any) {
	e.emitter.Trigger(name, Event{Name: name, Entity: e, Args: args})
}

// Accessor reads or writes a single field with the same rules as Set.
type Accessor struct {
	e    *Entity
	name string
}

func (a Accessor) Name() string { return a.name }

func (a Accessor) Get() any { return a.e.Get(a.name) }

func (a Accessor) Set(v any, silent bool) bool {
	return a.e.Set(map[string]any{a.name: v}, silent)
}

// Value returns field converted to T, or the zero T when the stored value is nil
// or of another type.
func Value[T any](e *Entity, field string) T {
	v, _ := e.Get(field).(T)
	return v
}
