package model

import (
	"fmt"
	"math"

	"livedash/internal/evented"
	"livedash/internal/events"
)

// DisplayModes are the valid timeline layouts.
var DisplayModes = []string{"simple", "stack", "expand"}

// queryIndex accepts a whole number in [0, math.MaxInt32].
func queryIndex() evented.Validator {
	nn := evented.NonNegative()
	return func(v any) (any, error) {
		n, err := nn(v)
		if err != nil {
			return nil, err
		}
		if f := n.(float64); f != math.Trunc(f) || f > math.MaxInt32 {
			return nil, fmt.Errorf("%v is not a query index", f)
		}
		return n, nil
	}
}

var displaySchema = evented.MustSchema(
	evented.Field{Name: "mode", Default: "simple", Validate: evented.OneOf(DisplayModes...)},
	evented.Field{Name: "focus", Default: nil, Validate: evented.Nullable(queryIndex())},
	evented.Field{Name: "annotations", Default: true, Validate: evented.Bool()},
	evented.Field{Name: "reference_mode", Default: false, Validate: evented.Bool()},
)

// Display holds presentation settings shared by all panels.
type Display struct {
	e *evented.Entity
}

func NewDisplay(initial map[string]any) (*Display, error) {
	e, err := evented.New(displaySchema, initial)
	if err != nil {
		return nil, err
	}
	return &Display{e: e}, nil
}

func (d *Display) Entity() *evented.Entity { return d.e }

func (d *Display) Mode() string        { return evented.Value[string](d.e, "mode") }
func (d *Display) Annotations() bool   { return evented.Value[bool](d.e, "annotations") }
func (d *Display) ReferenceMode() bool { return evented.Value[bool](d.e, "reference_mode") }

// Focus returns the focused query index, or false when nothing is focused.
func (d *Display) Focus() (int, bool) {
	f, ok := d.e.Get("focus").(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func (d *Display) SetMode(m string, silent bool) bool { return d.e.Field("mode").Set(m, silent) }

// SetFocus focuses query index i; a negative i clears the focus.
func (d *Display) SetFocus(i int, silent bool) bool {
	if i < 0 {
		return d.e.Field("focus").Set(nil, silent)
	}
	return d.e.Field("focus").Set(i, silent)
}

func (d *Display) Set(partial map[string]any, silent bool) bool { return d.e.Set(partial, silent) }
func (d *Display) Invalid() string                              { return d.e.Invalid() }
func (d *Display) Snapshot() map[string]any                     { return d.e.Snapshot() }

func (d *Display) On(name string, fn func(evented.Event)) events.Handle { return d.e.On(name, fn) }
func (d *Display) Off(name string, h events.Handle)                     { d.e.Off(name, h) }
