package requests

import (
	"context"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

// Config encapsulates the tunables for Manager construction.
type Config struct {
	// Transport performs the backend calls. Required.
	Transport Transport
	// Clock measures round trips. Defaults to the real clock.
	Clock quartz.Clock
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// Metrics may be nil.
	Metrics *Metrics
	// Publisher receives lifecycle events. Defaults to dropping them.
	Publisher EventPublisher
}

// NewWithConfig constructs a Manager from Config. It panics when cfg.Transport is
// nil.
func NewWithConfig(cfg Config) *Manager {
	if cfg.Transport == nil {
		panic("requests: nil Transport")
	}
	m := &Manager{
		transport: cfg.Transport,
		clock:     cfg.Clock,
		metrics:   cfg.Metrics,
		pub:       cfg.Publisher,
		channels:  make(map[string]*channel),
	}
	if m.clock == nil {
		m.clock = quartz.NewReal()
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "requests").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	if m.pub == nil {
		m.pub = noopPublisher{}
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}
