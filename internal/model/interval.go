package model

import (
	"errors"

	"livedash/internal/evented"
	"livedash/internal/events"
)

var intervalSchema = evented.MustSchema(
	evented.Field{Name: "from", Default: 0, Validate: evented.Number()},
	evented.Field{Name: "to", Default: 1, Validate: evented.Number()},
	evented.Field{Name: "min", Default: 0, Validate: evented.Number()},
	evented.Field{Name: "max", Default: 1, Validate: evented.Number()},
).WithCheck(func(next map[string]any) error {
	if next["min"].(float64) > next["max"].(float64) {
		return errors.New("range min is after max")
	}
	if next["from"].(float64) > next["to"].(float64) {
		return errors.New("interval from is after to")
	}
	return nil
})

// Interval tracks a time window [from, to] within a bounding range [min, max].
// Values are milliseconds since the epoch by convention, but any unit works.
type Interval struct {
	e *evented.Entity
}

func NewInterval(initial map[string]any) (*Interval, error) {
	e, err := evented.New(intervalSchema, initial)
	if err != nil {
		return nil, err
	}
	return &Interval{e: e}, nil
}

func (iv *Interval) Entity() *evented.Entity { return iv.e }

func (iv *Interval) From() float64 { return evented.Value[float64](iv.e, "from") }
func (iv *Interval) To() float64   { return evented.Value[float64](iv.e, "to") }
func (iv *Interval) Min() float64  { return evented.Value[float64](iv.e, "min") }
func (iv *Interval) Max() float64  { return evented.Value[float64](iv.e, "max") }

func (iv *Interval) SetFrom(v any, silent bool) bool { return iv.e.Field("from").Set(v, silent) }
func (iv *Interval) SetTo(v any, silent bool) bool   { return iv.e.Field("to").Set(v, silent) }

// SetRange replaces the bounding range.
func (iv *Interval) SetRange(min, max float64) bool {
	return iv.e.Set(map[string]any{"min": min, "max": max}, false)
}

// Extent returns [from, to].
func (iv *Interval) Extent() [2]float64 { return [2]float64{iv.From(), iv.To()} }

// RangeExtent returns [min, max].
func (iv *Interval) RangeExtent() [2]float64 { return [2]float64{iv.Min(), iv.Max()} }

// CenterAround moves the window so it is centered on t, keeping its width (capped
// at the range width) and clamping it inside [min, max].
func (iv *Interval) CenterAround(t float64) bool {
	snap := iv.e.Snapshot()
	lo, hi := snap["min"].(float64), snap["max"].(float64)
	width := snap["to"].(float64) - snap["from"].(float64)
	if maxWidth := hi - lo; width > maxWidth {
		width = maxWidth
	}

	from, to := t-width/2, t+width/2
	if from < lo {
		from, to = lo, lo+width
	} else if to > hi {
		from, to = hi-width, hi
	}
	return iv.e.Set(map[string]any{"from": from, "to": to}, false)
}

func (iv *Interval) Set(partial map[string]any, silent bool) bool { return iv.e.Set(partial, silent) }
func (iv *Interval) Invalid() string                              { return iv.e.Invalid() }
func (iv *Interval) Snapshot() map[string]any                     { return iv.e.Snapshot() }

func (iv *Interval) On(name string, fn func(evented.Event)) events.Handle {
	return iv.e.On(name, fn)
}
func (iv *Interval) Off(name string, h events.Handle) { iv.e.Off(name, h) }
