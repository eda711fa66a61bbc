// Package poll runs a callback at a fixed interval between Start and Stop.
//
// The first tick comes one interval after Start, never immediately. Stopping and
// starting again restarts the phase from zero. Callback panics are not recovered.
package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

// Poll is a restartable ticker bound to one callback.
type Poll struct {
	name     string
	callback func(context.Context) error
	interval time.Duration
	overlap  Overlap
	clock    quartz.Clock
	log      zerolog.Logger
	onError  func(error)
	metrics  *Metrics

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// serial admits one callback at a time under OverlapSerialize.
	serial chan struct{}
	busy   atomic.Bool
	calls  sync.WaitGroup
}

// New validates opts and returns an idle Poll.
func New(opts Options) (*Poll, error) {
	if opts.Callback == nil {
		return nil, ErrNoCallback
	}
	if opts.Interval <= 0 {
		return nil, ErrBadInterval
	}
	p := &Poll{
		name:     opts.Name,
		callback: opts.Callback,
		interval: opts.Interval,
		overlap:  opts.Overlap,
		clock:    opts.Clock,
		onError:  opts.OnError,
		metrics:  opts.Metrics,
		serial:   make(chan struct{}, 1),
	}
	if p.clock == nil {
		p.clock = quartz.NewReal()
	}
	if opts.Logger != nil {
		p.log = opts.Logger.With().Str("component", "poll").Str("poll", p.name).Logger()
	} else {
		p.log = zerolog.Nop()
	}
	return p, nil
}

func (p *Poll) Name() string            { return p.name }
func (p *Poll) Interval() time.Duration { return p.interval }
func (p *Poll) OverlapPolicy() Overlap  { return p.overlap }

// IsPolling reports whether the poll is between Start and Stop.
func (p *Poll) IsPolling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start begins ticking. It is a no-op when already running.
func (p *Poll) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	ticker := p.clock.NewTicker(p.interval, "poll", p.name)
	done := make(chan struct{})
	p.running, p.cancel, p.done = true, cancel, done
	p.log.Debug().Dur("interval", p.interval).Msg("poll started")
	go p.loop(ctx, ticker, done)
}

// Stop halts ticking and cancels the context of running callbacks. It returns
// once no further callback can start; use Wait to also wait for running ones.
// It is a no-op when already stopped and is safe to call from a callback.
func (p *Poll) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	cancel()
	<-done
	p.log.Debug().Msg("poll stopped")
}

// Wait blocks until every callback started so far has returned.
func (p *Poll) Wait() { p.calls.Wait() }

func (p *Poll) loop(ctx context.Context, ticker *quartz.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poll) tick(ctx context.Context) {
	switch p.overlap {
	case OverlapSkip:
		if !p.busy.CompareAndSwap(false, true) {
			p.metrics.skip(p.name)
			p.log.Debug().Msg("tick skipped, callback still running")
			return
		}
		p.calls.Add(1)
		go func() {
			defer p.calls.Done()
			defer p.busy.Store(false)
			p.invoke(ctx)
		}()
	case OverlapSerialize:
		p.calls.Add(1)
		go func() {
			defer p.calls.Done()
			select {
			case p.serial <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-p.serial }()
			p.invoke(ctx)
		}()
	default:
		p.calls.Add(1)
		go func() {
			defer p.calls.Done()
			p.invoke(ctx)
		}()
	}
}

func (p *Poll) invoke(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	p.metrics.tick(p.name)
	if err := p.callback(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		p.metrics.fail(p.name)
		p.log.Warn().Err(err).Msg("poll callback failed")
		if p.onError != nil {
			p.onError(err)
		}
	}
}
