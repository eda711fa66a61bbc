package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"livedash/internal/model"
	"livedash/internal/poll"
	"livedash/internal/requests"
	"livedash/pkg/types"
)

// DefaultDiscussionPoll is how often an open discussion is refreshed.
const DefaultDiscussionPoll = 10 * time.Second

var (
	ErrNotShowing   = errors.New("dashboard: no discussion is open")
	ErrNotSignedIn  = errors.New("dashboard: sign in to post messages")
	ErrEmptyMessage = errors.New("dashboard: message is empty")
)

// DiscussionOptions configure a DiscussionView.
type DiscussionOptions struct {
	User         *model.User
	PollInterval time.Duration
	Overlap      poll.Overlap
	Clock        quartz.Clock
	Logger       *zerolog.Logger
	PollMetrics  *poll.Metrics
}

// DiscussionView shows the messages of one open discussion and keeps them
// fresh while it is showing.
type DiscussionView struct {
	m    *requests.Manager
	user *model.User
	poll *poll.Poll
	log  zerolog.Logger

	mu       sync.Mutex
	id       string
	messages any
	updates  uint64
	updated  time.Time
	clock    quartz.Clock

	unsubscribe func()
}

func NewDiscussionView(m *requests.Manager, opts DiscussionOptions) (*DiscussionView, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultDiscussionPoll
	}
	v := &DiscussionView{m: m, user: opts.User, clock: opts.Clock, log: zerolog.Nop()}
	if v.clock == nil {
		v.clock = quartz.NewReal()
	}
	if opts.Logger != nil {
		v.log = opts.Logger.With().Str("panel", "discussion").Logger()
	}
	p, err := poll.New(poll.Options{
		Name:     "discussion",
		Callback: v.requestAndWait,
		Interval: opts.PollInterval,
		Overlap:  opts.Overlap,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
		Metrics:  opts.PollMetrics,
	})
	if err != nil {
		return nil, err
	}
	v.poll = p
	h := m.On(requests.EndpointMessages, v.onMessages)
	v.unsubscribe = func() { m.Off(requests.EndpointMessages, h) }
	return v, nil
}

func (v *DiscussionView) Name() string { return "discussion" }

// Show opens discussion id, requests its messages and starts polling.
func (v *DiscussionView) Show(id string) *requests.Call {
	v.mu.Lock()
	if v.id != id {
		v.messages = nil
	}
	v.id = id
	v.mu.Unlock()
	c := v.request()
	v.poll.Start()
	return c
}

// Hide stops polling and closes the discussion.
func (v *DiscussionView) Hide() {
	v.poll.Stop()
	v.mu.Lock()
	v.id = ""
	v.messages = nil
	v.mu.Unlock()
}

// IsShowing reports whether a discussion is open.
func (v *DiscussionView) IsShowing() bool { return v.poll.IsPolling() }

// DiscussionID returns the open discussion, or "".
func (v *DiscussionView) DiscussionID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.id
}

// Send posts text to the open discussion as the signed-in user. The response
// carries the updated message list and is applied like a refresh.
func (v *DiscussionView) Send(text string) (*requests.Call, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	id := v.DiscussionID()
	if !v.IsShowing() || id == "" {
		return nil, ErrNotShowing
	}
	if v.user == nil || !v.user.SignedIn() {
		return nil, ErrNotSignedIn
	}
	return v.m.SendMessage(types.Params{
		"user":          v.user.Name(),
		"message":       text,
		"discussion_id": id,
	}), nil
}

func (v *DiscussionView) request() *requests.Call {
	return v.m.Messages(types.Params{"discussion_id": v.DiscussionID()})
}

func (v *DiscussionView) requestAndWait(ctx context.Context) error {
	return v.request().Wait(ctx)
}

func (v *DiscussionView) onMessages(r requests.Result) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.id == "" || r.Params.String("discussion_id") != v.id {
		return
	}
	v.messages = r.Data
	v.updates++
	v.updated = v.clock.Now()
}

// Messages returns the latest message list of the open discussion.
func (v *DiscussionView) Messages() any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.messages
}

// Poll returns the refresh poll.
func (v *DiscussionView) Poll() *poll.Poll { return v.poll }

func (v *DiscussionView) Refresh() []*requests.Call {
	if v.DiscussionID() == "" {
		return nil
	}
	return []*requests.Call{v.request()}
}

func (v *DiscussionView) Snapshot() map[string]any {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.id == "" {
		return map[string]any{}
	}
	return map[string]any{v.id: v.messages}
}

func (v *DiscussionView) Status() types.PanelStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := types.PanelStatus{Name: "discussion", Updates: v.updates}
	if !v.updated.IsZero() {
		st.UpdatedUnix = v.updated.Unix()
	}
	return st
}

func (v *DiscussionView) Close() {
	v.Hide()
	v.poll.Wait()
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}
