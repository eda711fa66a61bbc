// Package dashboard wires the request manager, the state models and the polls
// into the panels of one live dashboard session.
package dashboard

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"livedash/internal/evented"
	"livedash/internal/model"
	"livedash/internal/poll"
	"livedash/internal/requests"
	"livedash/pkg/types"
)

// List sizes requested by the panels.
const (
	TweetLimit   = 50
	UserLimit    = 50
	KeywordLimit = 50
)

// Options configure a Session.
type Options struct {
	// Queries holds the initial values of each compared query. Defaults to two
	// queries with ids "0" and "1".
	Queries  []map[string]any
	Interval map[string]any
	Display  map[string]any

	BinSize        time.Duration
	TimelinePoll   time.Duration
	DiscussionPoll time.Duration
	Overlap        poll.Overlap

	Clock       quartz.Clock
	Logger      *zerolog.Logger
	PollMetrics *poll.Metrics
}

// Session is one dashboard: its models, panels and polls around a single
// request manager.
type Session struct {
	m     *requests.Manager
	clock quartz.Clock
	log   zerolog.Logger

	Queries    []*model.Query
	Interval   *model.Interval
	Display    *model.Display
	User       *model.User
	Timeline   *Timeline
	Discussion *DiscussionView

	panels map[string]Panel

	mu      sync.Mutex
	running bool

	authHandle func()
}

// NewSession builds the models and panels. Nothing is requested until Start.
func NewSession(m *requests.Manager, opts Options) (*Session, error) {
	if m == nil {
		return nil, errors.New("dashboard: nil request manager")
	}
	s := &Session{m: m, clock: opts.Clock, log: zerolog.Nop(), panels: make(map[string]Panel)}
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "dashboard").Logger()
	}

	initial := opts.Queries
	if len(initial) == 0 {
		initial = []map[string]any{{"id": "0"}, {"id": "1"}}
	}
	seen := make(map[string]bool, len(initial))
	for i, data := range initial {
		if id, ok := data["id"]; !ok || id == "" {
			data = maps.Clone(data)
			if data == nil {
				data = make(map[string]any, 1)
			}
			data["id"] = fmt.Sprint(i)
		}
		q, err := model.NewQuery(data)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		if seen[q.ID()] {
			return nil, fmt.Errorf("query %d: duplicate id %q", i, q.ID())
		}
		seen[q.ID()] = true
		s.Queries = append(s.Queries, q)
	}

	var err error
	if s.Interval, err = model.NewInterval(opts.Interval); err != nil {
		return nil, fmt.Errorf("interval: %w", err)
	}
	if s.Display, err = model.NewDisplay(opts.Display); err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	if s.User, err = model.NewUser(nil); err != nil {
		return nil, err
	}

	s.Timeline, err = NewTimeline(m, TimelineOptions{
		Queries:      s.Queries,
		Interval:     s.Interval,
		BinSize:      opts.BinSize,
		LiveInterval: opts.TimelinePoll,
		Overlap:      opts.Overlap,
		Clock:        s.clock,
		Logger:       opts.Logger,
		PollMetrics:  opts.PollMetrics,
	})
	if err != nil {
		return nil, err
	}
	s.Discussion, err = NewDiscussionView(m, DiscussionOptions{
		User:         s.User,
		PollInterval: opts.DiscussionPoll,
		Overlap:      opts.Overlap,
		Clock:        s.clock,
		Logger:       opts.Logger,
		PollMetrics:  opts.PollMetrics,
	})
	if err != nil {
		s.Timeline.Close()
		return nil, err
	}

	list := func(name, endpoint string, fetch FetchFunc, keyed bool, extra types.Params) {
		lo := ListOptions{
			Name:     name,
			Endpoint: endpoint,
			Fetch:    fetch,
			Interval: s.Interval,
			Extra:    extra,
			Clock:    s.clock,
			Logger:   opts.Logger,
		}
		if keyed {
			lo.Queries = s.Queries
		}
		s.panels[name] = NewListPanel(m, lo)
	}
	list("tweets", requests.EndpointTweets, (*requests.Manager).Tweets, true,
		types.Params{"limit": TweetLimit, "sort": "retweet_count"})
	list("users", requests.EndpointUsers, (*requests.Manager).Users, true,
		types.Params{"limit": UserLimit})
	list("keywords", requests.EndpointKeywords, perQueryKeywords, true,
		types.Params{"limit": KeywordLimit})
	list("annotations", requests.EndpointAnnotations, (*requests.Manager).Annotations, false, nil)
	s.panels["discussions"] = NewListPanel(m, ListOptions{
		Name:     "discussions",
		Endpoint: requests.EndpointDiscussions,
		Fetch:    (*requests.Manager).Discussions,
		Params:   func(*model.Query, *model.Interval) types.Params { return types.Params{"search": ""} },
		Clock:    s.clock,
		Logger:   opts.Logger,
	})
	s.panels[s.Timeline.Name()] = s.Timeline
	s.panels[s.Discussion.Name()] = s.Discussion

	h := m.On(requests.EndpointAuth, s.onAuth)
	s.authHandle = func() { m.Off(requests.EndpointAuth, h) }
	return s, nil
}

// perQueryKeywords sequences keyword requests per query so that the two
// queries' lists do not supersede each other.
func perQueryKeywords(m *requests.Manager, params types.Params) *requests.Call {
	return m.Request(http.MethodGet, requests.EndpointKeywords, requests.Options{
		Params:      params,
		PostProcess: requests.ExtractPath(requests.PayloadPath),
		Channel:     requests.EndpointKeywords + "-" + params.String("query_id"),
	})
}

func (s *Session) onAuth(r requests.Result) {
	account, _ := r.Data.(requests.Account)
	if account["name"] == nil {
		s.User.SignOut()
		return
	}
	if !s.User.SignIn(account) {
		s.log.Warn().Str("reason", s.User.Invalid()).Msg("auth payload rejected")
	}
}

// Manager returns the session's request manager.
func (s *Session) Manager() *requests.Manager { return s.m }

// Start requests every panel's data, checks authentication and starts the live
// timeline poll. It is a no-op when already running.
func (s *Session) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.m.Auth(nil)
	s.Refresh()
	s.Timeline.StartLive()
	s.log.Info().Int("queries", len(s.Queries)).Msg("session started")
}

// Stop halts all polls and closes the open discussion.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.Timeline.StopLive()
	s.Discussion.Hide()
	s.Discussion.Poll().Wait()
	s.log.Info().Msg("session stopped")
}

// Running reports whether the session is between Start and Stop.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Refresh re-requests every panel.
func (s *Session) Refresh() []*requests.Call {
	var calls []*requests.Call
	for _, name := range s.PanelNames() {
		calls = append(calls, s.panels[name].Refresh()...)
	}
	return calls
}

// PanelNames returns the panel names, sorted.
func (s *Session) PanelNames() []string {
	names := make([]string, 0, len(s.panels))
	for n := range s.panels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Session) Panel(name string) (Panel, bool) {
	p, ok := s.panels[name]
	return p, ok
}

// Model returns the entity behind a model name: "interval", "display", "user"
// or "query-<id>".
func (s *Session) Model(name string) (*evented.Entity, bool) {
	switch name {
	case "interval":
		return s.Interval.Entity(), true
	case "display":
		return s.Display.Entity(), true
	case "user":
		return s.User.Entity(), true
	}
	for _, q := range s.Queries {
		if name == "query-"+q.ID() {
			return q.Entity(), true
		}
	}
	return nil, false
}

// ModelNames returns every name Model accepts.
func (s *Session) ModelNames() []string {
	names := []string{"display", "interval", "user"}
	for _, q := range s.Queries {
		names = append(names, "query-"+q.ID())
	}
	return names
}

// Status reports request channels, polls and panel freshness.
func (s *Session) Status() types.StatusResponse {
	st := types.StatusResponse{Running: s.Running()}
	for _, c := range s.m.Channels() {
		st.Channels = append(st.Channels, types.ChannelStatus{Name: c.Name, Sent: c.Sent, Received: c.Received})
	}
	for _, p := range []*poll.Poll{s.Timeline.Poll(), s.Discussion.Poll()} {
		if p == nil {
			continue
		}
		st.Polls = append(st.Polls, types.PollStatus{
			Name:       p.Name(),
			Polling:    p.IsPolling(),
			IntervalMS: p.Interval().Milliseconds(),
		})
	}
	for _, name := range s.PanelNames() {
		st.Panels = append(st.Panels, s.panels[name].Status())
	}
	st.ServerTimeUnix = s.clock.Now().Unix()
	return st
}

// Close stops the session and detaches every panel.
func (s *Session) Close() {
	s.Stop()
	for _, p := range s.panels {
		p.Close()
	}
	if s.authHandle != nil {
		s.authHandle()
		s.authHandle = nil
	}
}
