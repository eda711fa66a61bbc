package requests

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"livedash/internal/events"
	"livedash/pkg/types"
)

// Result is delivered to endpoint subscribers for every accepted response.
type Result struct {
	Endpoint string
	Channel  string
	Seq      uint64
	Params   types.Params
	// Data is the post-processed payload, or the raw body as json.RawMessage when
	// the request had no PostProcess.
	Data any
}

// Options tune a single request.
type Options struct {
	Params types.Params
	// PostProcess transforms the raw body of an accepted response before it is
	// delivered. It is not called for stale responses.
	PostProcess func(body []byte) (any, error)
	// Channel overrides the sequencing key, which defaults to the endpoint name.
	// Notifications are still named after the endpoint.
	Channel string
}

// ChannelStatus is a snapshot of one channel's counters.
type ChannelStatus struct {
	Name     string
	Sent     uint64
	Received uint64
}

// Manager issues requests through a Transport and delivers only the latest
// response per channel to subscribers.
type Manager struct {
	transport Transport
	clock     quartz.Clock
	log       zerolog.Logger
	metrics   *Metrics
	pub       EventPublisher

	mu       sync.Mutex
	channels map[string]*channel
	closed   bool

	emitter events.Emitter[Result]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Manager using t and package defaults for everything else.
func New(t Transport) *Manager {
	return NewWithConfig(Config{Transport: t})
}

// Request issues method on endpoint and returns immediately. The returned Call
// reports the outcome; accepted responses are also delivered to subscribers of
// endpoint registered with On.
func (m *Manager) Request(method, endpoint string, opts Options) *Call {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}
	name := opts.Channel
	if name == "" {
		name = endpoint
	}
	params := opts.Params.Clone()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		call := newCall(method, endpoint, name, 0, params)
		call.finish(ErrClosed, false)
		return call
	}
	ch := m.channelLocked(name)
	ch.sent++
	call := newCall(method, endpoint, name, ch.sent, params)
	m.wg.Add(1)
	m.mu.Unlock()

	m.metrics.issued(endpoint)
	m.log.Debug().Str("endpoint", endpoint).Str("channel", name).Uint64("seq", call.Seq).Msg("sending")
	m.pub.Publish(Event{Name: EventSent, Endpoint: endpoint, Channel: name, Seq: call.Seq})

	go m.run(call, ch, opts.PostProcess)
	return call
}

func (m *Manager) run(call *Call, ch *channel, post func([]byte) (any, error)) {
	defer m.wg.Done()

	start := m.clock.Now()
	body, err := m.transport.Do(m.ctx, call.Method, call.Endpoint, call.Params)
	m.metrics.returned(call.Endpoint, m.clock.Since(start))
	if err != nil {
		err = transportError{endpoint: call.Channel, seq: call.Seq, err: err}
		m.metrics.outcome(call.Endpoint, outcomeError)
		m.log.Warn().Err(err).Str("endpoint", call.Endpoint).Uint64("seq", call.Seq).Msg("request failed")
		m.pub.Publish(Event{Name: EventFailed, Endpoint: call.Endpoint, Channel: call.Channel, Seq: call.Seq,
			Fields: map[string]any{"error": err.Error()}})
		call.finish(err, false)
		return
	}
	m.complete(call, ch, body, post)
}

// complete applies an accepted response or drops a stale one. Holding the
// channel's delivery lock across the check and the dispatch keeps notifications
// on one channel in issue order.
func (m *Manager) complete(call *Call, ch *channel, body []byte, post func([]byte) (any, error)) {
	ch.deliver.Lock()
	defer ch.deliver.Unlock()

	m.mu.Lock()
	current := call.Seq == ch.sent
	if current && call.Seq > ch.received {
		ch.received = call.Seq
	}
	m.mu.Unlock()

	if !current {
		m.metrics.outcome(call.Endpoint, outcomeStale)
		m.log.Debug().Str("endpoint", call.Endpoint).Uint64("seq", call.Seq).Msg("discarding stale response")
		m.pub.Publish(Event{Name: EventStale, Endpoint: call.Endpoint, Channel: call.Channel, Seq: call.Seq})
		call.finish(nil, true)
		return
	}

	var data any = json.RawMessage(body)
	if post != nil {
		var err error
		if data, err = post(body); err != nil {
			err = postProcessError{endpoint: call.Endpoint, err: err}
			m.metrics.outcome(call.Endpoint, outcomeError)
			m.log.Warn().Err(err).Uint64("seq", call.Seq).Msg("post-process failed")
			m.pub.Publish(Event{Name: EventFailed, Endpoint: call.Endpoint, Channel: call.Channel, Seq: call.Seq,
				Fields: map[string]any{"error": err.Error()}})
			call.finish(err, false)
			return
		}
	}

	m.metrics.outcome(call.Endpoint, outcomeAccepted)
	m.log.Debug().Str("endpoint", call.Endpoint).Uint64("seq", call.Seq).Msg("received")
	m.pub.Publish(Event{Name: EventAccepted, Endpoint: call.Endpoint, Channel: call.Channel, Seq: call.Seq})
	m.emitter.Trigger(call.Endpoint, Result{
		Endpoint: call.Endpoint,
		Channel:  call.Channel,
		Seq:      call.Seq,
		Params:   call.Params,
		Data:     data,
	})
	call.finish(nil, false)
}

// channelLocked must be called with m.mu held.
func (m *Manager) channelLocked(name string) *channel {
	ch, ok := m.channels[name]
	if !ok {
		ch = &channel{name: name}
		m.channels[name] = ch
	}
	return ch
}

// LastSent returns the number of requests issued on channel, 0 if none.
func (m *Manager) LastSent(channel string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[channel]; ok {
		return ch.sent
	}
	return 0
}

// LastReceived returns the sequence number of the last accepted response on
// channel, 0 if none.
func (m *Manager) LastReceived(channel string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[channel]; ok {
		return ch.received
	}
	return 0
}

// Channels returns the counters of every channel used so far, sorted by name.
func (m *Manager) Channels() []ChannelStatus {
	m.mu.Lock()
	out := make([]ChannelStatus, 0, len(m.channels))
	for _, ch := range m.channels {
		out = append(out, ChannelStatus{Name: ch.name, Sent: ch.sent, Received: ch.received})
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// On subscribes fn to accepted results of endpoint. Handlers run on the
// completing goroutine while the channel's delivery lock is held, so they must
// not wait for another call on the same channel.
func (m *Manager) On(endpoint string, fn func(Result)) events.Handle {
	return m.emitter.On(endpoint, fn)
}

// Off removes a handler registered with On.
func (m *Manager) Off(endpoint string, h events.Handle) { m.emitter.Off(endpoint, h) }

// Trigger delivers r to the subscribers of name without issuing a request.
func (m *Manager) Trigger(name string, r Result) { m.emitter.Trigger(name, r) }

// Close cancels in-flight requests and waits for their goroutines to finish.
// Requests issued afterwards fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}
