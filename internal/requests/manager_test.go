package requests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"livedash/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type reply struct {
	body []byte
	err  error
}

// pending is one transport call held open until the test replies to it.
type pending struct {
	method   string
	endpoint string
	params   types.Params
	reply    chan reply
}

func (p *pending) respond(body string) { p.reply <- reply{body: []byte(body)} }
func (p *pending) fail(err error)      { p.reply <- reply{err: err} }

// fakeTransport hands every call to the test and blocks until it is answered.
type fakeTransport struct {
	calls chan *pending
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{calls: make(chan *pending, 64)}
}

func (f *fakeTransport) Do(ctx context.Context, method, endpoint string, params types.Params) ([]byte, error) {
	p := &pending{method: method, endpoint: endpoint, params: params, reply: make(chan reply, 1)}
	f.calls <- p
	select {
	case r := <-p.reply:
		return r.body, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// take collects n in-flight calls keyed by their "n" param.
func (f *fakeTransport) take(t *testing.T, n int) map[int]*pending {
	t.Helper()
	out := make(map[int]*pending, n)
	for len(out) < n {
		select {
		case p := <-f.calls:
			out[p.params["n"].(int)] = p
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for transport calls: have %d want %d", len(out), n)
		}
	}
	return out
}

func waitCall(t *testing.T, c *Call) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	select {
	case <-c.Done():
	case <-ctx.Done():
		t.Fatalf("call %s:%d did not complete", c.Channel, c.Seq)
	}
}

type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func (c *collector) seqs() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []uint64
	for _, r := range c.results {
		out = append(out, r.Seq)
	}
	return out
}

func newTestManager(t *testing.T) (*Manager, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	m := New(ft)
	t.Cleanup(m.Close)
	return m, ft
}

func TestScenarioNewerCompletesLast(t *testing.T) {
	m, ft := newTestManager(t)
	var got collector
	m.On("counts", got.add)

	c1 := m.Request("get", "counts", Options{Params: types.Params{"n": 1}})
	c2 := m.Request("get", "counts", Options{Params: types.Params{"n": 2}})
	calls := ft.take(t, 2)

	calls[1].respond(`"one"`)
	waitCall(t, c1)
	require.True(t, c1.Stale())
	require.NoError(t, c1.Err())
	require.Empty(t, got.seqs())
	require.Equal(t, uint64(0), m.LastReceived("counts"))

	calls[2].respond(`"two"`)
	waitCall(t, c2)
	require.False(t, c2.Stale())
	require.Equal(t, []uint64{2}, got.seqs())
	require.Equal(t, json.RawMessage(`"two"`), got.results[0].Data)
	require.Equal(t, types.Params{"n": 2}, got.results[0].Params)
	require.Equal(t, uint64(2), m.LastReceived("counts"))
}

func TestScenarioOlderCompletesLast(t *testing.T) {
	m, ft := newTestManager(t)
	var got collector
	m.On("counts", got.add)

	c1 := m.Request("get", "counts", Options{Params: types.Params{"n": 1}})
	c2 := m.Request("get", "counts", Options{Params: types.Params{"n": 2}})
	calls := ft.take(t, 2)

	calls[2].respond(`2`)
	waitCall(t, c2)
	calls[1].respond(`1`)
	waitCall(t, c1)

	require.True(t, c1.Stale())
	require.Equal(t, []uint64{2}, got.seqs())
	require.Equal(t, uint64(2), m.LastReceived("counts"))
	require.Equal(t, uint64(2), m.LastSent("counts"))
}

func TestMonotonicStalenessAnyOrder(t *testing.T) {
	const n = 6
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		t.Run(fmt.Sprintf("round%d", round), func(t *testing.T) {
			m, ft := newTestManager(t)
			var got collector
			m.On("tweets", got.add)

			callsBySeq := make(map[int]*Call, n)
			for i := 1; i <= n; i++ {
				callsBySeq[i] = m.Request(http.MethodGet, "tweets", Options{Params: types.Params{"n": i}})
			}
			inflight := ft.take(t, n)

			for _, i := range rng.Perm(n) {
				seq := i + 1
				inflight[seq].respond(fmt.Sprint(seq))
				waitCall(t, callsBySeq[seq])
				require.Equal(t, seq != n, callsBySeq[seq].Stale(), "seq %d", seq)
			}
			require.Equal(t, []uint64{n}, got.seqs())
			require.Equal(t, uint64(n), m.LastReceived("tweets"))
		})
	}
}

func TestSequenceCountingPerChannel(t *testing.T) {
	m, ft := newTestManager(t)
	require.Zero(t, m.LastSent("counts"))
	require.Zero(t, m.LastReceived("counts"))

	var calls []*Call
	for i := 1; i <= 3; i++ {
		calls = append(calls, m.Request("get", "counts", Options{Params: types.Params{"n": i}}))
		require.Equal(t, uint64(i), m.LastSent("counts"))
	}
	calls = append(calls, m.Request("get", "users", Options{Params: types.Params{"n": 4}}))
	require.Equal(t, uint64(1), m.LastSent("users"))
	require.Equal(t, uint64(3), m.LastSent("counts"))
	require.Zero(t, m.LastReceived("counts"))

	for _, p := range ft.take(t, 4) {
		p.respond(`{}`)
	}
	for _, c := range calls {
		waitCall(t, c)
	}
	require.Equal(t, uint64(3), m.LastReceived("counts"))
	require.Equal(t, uint64(1), m.LastReceived("users"))
	require.Equal(t, []ChannelStatus{
		{Name: "counts", Sent: 3, Received: 3},
		{Name: "users", Sent: 1, Received: 1},
	}, m.Channels())
}

func TestTransportFailureIsSurfacedToCaller(t *testing.T) {
	pub := NewMemoryPublisher()
	ft := newFakeTransport()
	m := NewWithConfig(Config{Transport: ft, Publisher: pub})
	defer m.Close()

	var got collector
	m.On("keywords", got.add)

	boom := errors.New("connection refused")
	c1 := m.Request("get", "keywords", Options{Params: types.Params{"n": 1}})
	ft.take(t, 1)[1].fail(boom)
	require.ErrorIs(t, c1.Wait(context.Background()), boom)
	require.True(t, IsTransport(c1.Err()))
	require.False(t, c1.Stale())
	require.Equal(t, uint64(1), m.LastSent("keywords"))
	require.Zero(t, m.LastReceived("keywords"))
	require.Empty(t, got.seqs())

	c2 := m.Request("get", "keywords", Options{Params: types.Params{"n": 2}})
	ft.take(t, 1)[2].respond(`[]`)
	require.NoError(t, c2.Wait(context.Background()))
	require.Equal(t, []uint64{2}, got.seqs())
	require.Len(t, pub.Named(EventFailed), 1)
	require.Len(t, pub.Named(EventAccepted), 1)
	require.Len(t, pub.Named(EventSent), 2)
}

func TestPostProcessErrorSkipsNotification(t *testing.T) {
	m, ft := newTestManager(t)
	var got collector
	m.On("auth", got.add)

	c := m.Request("get", "auth", Options{
		Params:      types.Params{"n": 1},
		PostProcess: ExtractPath(PayloadPath),
	})
	ft.take(t, 1)[1].respond(`not json`)
	err := c.Wait(context.Background())
	require.True(t, IsPostProcess(err), "err=%v", err)
	require.Empty(t, got.seqs())
	require.Equal(t, uint64(1), m.LastReceived("auth"))
}

func TestChannelOverrideKeepsEndpointEventName(t *testing.T) {
	m, ft := newTestManager(t)
	var got collector
	m.On("counts", got.add)

	a := m.Request("get", "counts", Options{Params: types.Params{"n": 1}, Channel: "counts-a"})
	b := m.Request("get", "counts", Options{Params: types.Params{"n": 2}, Channel: "counts-b"})
	calls := ft.take(t, 2)
	calls[2].respond(`2`)
	waitCall(t, b)
	calls[1].respond(`1`)
	waitCall(t, a)

	require.False(t, a.Stale())
	require.ElementsMatch(t, []uint64{1, 1}, got.seqs())
	require.Zero(t, m.LastSent("counts"))
	require.Equal(t, uint64(1), m.LastSent("counts-a"))
}

func TestHandlerMayIssueRequests(t *testing.T) {
	m, ft := newTestManager(t)
	var follow *Call
	done := make(chan struct{})
	m.On("discussions", func(r Result) {
		if r.Seq == 1 {
			follow = m.Request("get", "discussions", Options{Params: types.Params{"n": 2}})
			close(done)
		}
	})

	c := m.Request("get", "discussions", Options{Params: types.Params{"n": 1}})
	ft.take(t, 1)[1].respond(`1`)
	waitCall(t, c)
	<-done
	ft.take(t, 1)[2].respond(`2`)
	waitCall(t, follow)
	require.Equal(t, uint64(2), m.LastReceived("discussions"))
}

func TestOffStopsDelivery(t *testing.T) {
	m, ft := newTestManager(t)
	var got collector
	h := m.On("annotations", got.add)
	m.Off("annotations", h)

	c := m.Request("get", "annotations", Options{Params: types.Params{"n": 1}})
	ft.take(t, 1)[1].respond(`[]`)
	waitCall(t, c)
	require.Empty(t, got.seqs())
}

func TestManagersAreIndependent(t *testing.T) {
	a, fa := newTestManager(t)
	b, _ := newTestManager(t)

	c := a.Request("get", "counts", Options{Params: types.Params{"n": 1}})
	require.Equal(t, uint64(1), a.LastSent("counts"))
	require.Zero(t, b.LastSent("counts"))
	fa.take(t, 1)[1].respond(`1`)
	waitCall(t, c)
	require.Zero(t, b.LastReceived("counts"))
}

func TestCloseCancelsInflightAndRejectsNewRequests(t *testing.T) {
	ft := newFakeTransport()
	m := New(ft)

	c := m.Request("get", "users", Options{Params: types.Params{"n": 1}})
	ft.take(t, 1)
	m.Close()
	require.ErrorIs(t, c.Err(), context.Canceled)

	late := m.Request("get", "users", Options{})
	require.ErrorIs(t, late.Err(), ErrClosed)
	require.Zero(t, late.Seq)
	m.Close()
}

func TestNewWithConfigPanicsWithoutTransport(t *testing.T) {
	require.Panics(t, func() { NewWithConfig(Config{}) })
}

func TestWaitHonoursContext(t *testing.T) {
	m, ft := newTestManager(t)
	c := m.Request("get", "messages", Options{Params: types.Params{"n": 1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Wait(ctx), context.Canceled)
	require.Nil(t, c.Err())
	ft.take(t, 1)[1].respond(`[]`)
	waitCall(t, c)
}

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	ft := newFakeTransport()
	m := NewWithConfig(Config{Transport: ft, Metrics: metrics})
	defer m.Close()

	c1 := m.Request("get", "counts", Options{Params: types.Params{"n": 1}})
	c2 := m.Request("get", "counts", Options{Params: types.Params{"n": 2}})
	calls := ft.take(t, 2)
	calls[2].respond(`2`)
	waitCall(t, c2)
	calls[1].respond(`1`)
	waitCall(t, c1)

	require.Equal(t, float64(2), testutil.ToFloat64(metrics.sent.WithLabelValues("counts")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.responses.WithLabelValues("counts", outcomeAccepted)))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.responses.WithLabelValues("counts", outcomeStale)))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.inflight.WithLabelValues("counts")))
}
