package dashboard

import (
	"slices"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"livedash/internal/evented"
	"livedash/internal/model"
	"livedash/internal/requests"
	"livedash/pkg/types"
)

// Panel is a view backed by one backend endpoint.
type Panel interface {
	Name() string
	Refresh() []*requests.Call
	Snapshot() map[string]any
	Status() types.PanelStatus
	Close()
}

// FetchFunc issues the request for one set of params.
type FetchFunc func(m *requests.Manager, params types.Params) *requests.Call

// ParamsFunc builds request params for q, which is nil for panels that are not
// keyed by query.
type ParamsFunc func(q *model.Query, iv *model.Interval) types.Params

// ListOptions configure a ListPanel.
type ListOptions struct {
	Name string
	// Endpoint is the notification name results arrive under.
	Endpoint string
	Fetch    FetchFunc
	// Params defaults to WindowParams.
	Params ParamsFunc
	// Queries keys the panel's data by query id. Without queries the panel keeps a
	// single entry under "".
	Queries  []*model.Query
	Interval *model.Interval
	// IntervalFields are the interval fields whose change triggers a refresh.
	// Defaults to from and to.
	IntervalFields []string
	// Extra params merged into every request, e.g. a limit.
	Extra  types.Params
	Clock  quartz.Clock
	Logger *zerolog.Logger
}

// WindowParams is the query's filter params plus the interval's current window.
func WindowParams(q *model.Query, iv *model.Interval) types.Params {
	p := types.Params{}
	if q != nil {
		p = q.Params()
	}
	if iv != nil {
		p["from"] = iv.From()
		p["to"] = iv.To()
	}
	return p
}

// ListPanel re-requests its endpoint whenever a watched model changes and keeps
// the latest accepted payload per query.
type ListPanel struct {
	opts  ListOptions
	m     *requests.Manager
	clock quartz.Clock
	log   zerolog.Logger

	mu      sync.Mutex
	data    map[string]any
	updates uint64
	updated time.Time

	unsubscribe []func()
}

// NewListPanel subscribes the panel to m and to its models. It does not issue
// a request; call Refresh.
func NewListPanel(m *requests.Manager, opts ListOptions) *ListPanel {
	if opts.Params == nil {
		opts.Params = WindowParams
	}
	if opts.IntervalFields == nil {
		opts.IntervalFields = []string{"from", "to"}
	}
	p := &ListPanel{
		opts:  opts,
		m:     m,
		clock: opts.Clock,
		data:  make(map[string]any),
		log:   zerolog.Nop(),
	}
	if p.clock == nil {
		p.clock = quartz.NewReal()
	}
	if opts.Logger != nil {
		p.log = opts.Logger.With().Str("panel", opts.Name).Logger()
	}

	h := m.On(opts.Endpoint, p.onResult)
	p.unsubscribe = append(p.unsubscribe, func() { m.Off(opts.Endpoint, h) })
	for _, q := range opts.Queries {
		q := q
		h := q.On(evented.ChangeEvent, func(evented.Event) { p.fetch(q) })
		p.unsubscribe = append(p.unsubscribe, func() { q.Off(evented.ChangeEvent, h) })
	}
	if iv := opts.Interval; iv != nil {
		h := iv.On(evented.ChangeEvent, func(ev evented.Event) {
			if slices.ContainsFunc(ev.Changed, func(f string) bool { return slices.Contains(p.opts.IntervalFields, f) }) {
				p.Refresh()
			}
		})
		p.unsubscribe = append(p.unsubscribe, func() { iv.Off(evented.ChangeEvent, h) })
	}
	return p
}

func (p *ListPanel) Name() string { return p.opts.Name }

// Refresh requests data for every query, or once for an unkeyed panel.
func (p *ListPanel) Refresh() []*requests.Call {
	if len(p.opts.Queries) == 0 {
		return []*requests.Call{p.fetch(nil)}
	}
	calls := make([]*requests.Call, 0, len(p.opts.Queries))
	for _, q := range p.opts.Queries {
		calls = append(calls, p.fetch(q))
	}
	return calls
}

func (p *ListPanel) fetch(q *model.Query) *requests.Call {
	params := p.opts.Params(q, p.opts.Interval)
	for k, v := range p.opts.Extra {
		params[k] = v
	}
	return p.opts.Fetch(p.m, params)
}

// key returns the data key for r and whether the panel accepts it.
func (p *ListPanel) key(r requests.Result) (string, bool) {
	if len(p.opts.Queries) == 0 {
		return "", true
	}
	id := r.Params.String("query_id")
	for _, q := range p.opts.Queries {
		if q.ID() == id {
			return id, true
		}
	}
	return "", false
}

func (p *ListPanel) onResult(r requests.Result) {
	k, ok := p.key(r)
	if !ok {
		return
	}
	p.mu.Lock()
	p.data[k] = r.Data
	p.updates++
	p.updated = p.clock.Now()
	p.mu.Unlock()
	p.log.Debug().Str("key", k).Uint64("seq", r.Seq).Msg("panel updated")
}

// Snapshot returns the latest payload per query id.
func (p *ListPanel) Snapshot() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]any, len(p.data))
	for k, v := range p.data {
		out[k] = v
	}
	return out
}

// Data returns the latest payload for one query id.
func (p *ListPanel) Data(key string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.data[key]
	return v, ok
}

func (p *ListPanel) Status() types.PanelStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := types.PanelStatus{Name: p.opts.Name, Updates: p.updates}
	if !p.updated.IsZero() {
		st.UpdatedUnix = p.updated.Unix()
	}
	return st
}

// Close detaches the panel from the manager and its models.
func (p *ListPanel) Close() {
	for _, f := range p.unsubscribe {
		f()
	}
	p.unsubscribe = nil
}
