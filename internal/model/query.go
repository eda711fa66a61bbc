// Package model holds the dashboard's UI-facing state models. Each model wraps an
// *evented.Entity and exposes typed accessors; all mutation goes through the entity
// so validation and change notification apply uniformly.
package model

import (
	"livedash/internal/evented"
	"livedash/internal/events"
	"livedash/pkg/types"
)

// Valid values for enumerated query fields.
var (
	ViewModes  = []string{"area", "stacked", "expand", "hidden"}
	Sentiments = []string{"", "negative", "neutral", "positive"}
)

var querySchema = evented.MustSchema(
	evented.Field{Name: "id", Default: "", Validate: evented.String(), Fixed: true},
	evented.Field{Name: "view", Default: "area", Validate: evented.OneOf(ViewModes...)},
	evented.Field{Name: "search", Default: "", Validate: evented.Trimmed()},
	evented.Field{Name: "author", Default: "", Validate: evented.Trimmed()},
	evented.Field{Name: "rt", Default: false, Validate: evented.Bool()},
	evented.Field{Name: "min_rt", Default: 0, Validate: evented.NonNegative()},
	evented.Field{Name: "sentiment", Default: "", Validate: evented.OneOf(Sentiments...)},
)

// Query is one set of filter values. Changing any of them fires "change".
type Query struct {
	e *evented.Entity
}

// NewQuery builds a query from optional initial values merged over the defaults.
func NewQuery(initial map[string]any) (*Query, error) {
	e, err := evented.New(querySchema, initial)
	if err != nil {
		return nil, err
	}
	return &Query{e: e}, nil
}

func (q *Query) Entity() *evented.Entity { return q.e }

func (q *Query) ID() string        { return evented.Value[string](q.e, "id") }
func (q *Query) View() string      { return evented.Value[string](q.e, "view") }
func (q *Query) Search() string    { return evented.Value[string](q.e, "search") }
func (q *Query) Author() string    { return evented.Value[string](q.e, "author") }
func (q *Query) RT() bool          { return evented.Value[bool](q.e, "rt") }
func (q *Query) MinRT() float64    { return evented.Value[float64](q.e, "min_rt") }
func (q *Query) Sentiment() string { return evented.Value[string](q.e, "sentiment") }

func (q *Query) SetView(v string, silent bool) bool   { return q.e.Field("view").Set(v, silent) }
func (q *Query) SetSearch(s string, silent bool) bool { return q.e.Field("search").Set(s, silent) }
func (q *Query) SetAuthor(s string, silent bool) bool { return q.e.Field("author").Set(s, silent) }
func (q *Query) SetRT(b bool, silent bool) bool       { return q.e.Field("rt").Set(b, silent) }
func (q *Query) SetMinRT(n any, silent bool) bool     { return q.e.Field("min_rt").Set(n, silent) }
func (q *Query) SetSentiment(s string, silent bool) bool {
	return q.e.Field("sentiment").Set(s, silent)
}

func (q *Query) Set(partial map[string]any, silent bool) bool { return q.e.Set(partial, silent) }
func (q *Query) Invalid() string                              { return q.e.Invalid() }
func (q *Query) Snapshot() map[string]any                     { return q.e.Snapshot() }

func (q *Query) On(name string, fn func(evented.Event)) events.Handle { return q.e.On(name, fn) }
func (q *Query) Off(name string, h events.Handle)                     { q.e.Off(name, h) }

// Params returns the filter parameters sent with data requests for this query.
func (q *Query) Params() types.Params {
	return types.Params{
		"query_id":  q.ID(),
		"search":    q.Search(),
		"author":    q.Author(),
		"rt":        q.RT(),
		"sentiment": q.Sentiment(),
	}
}
