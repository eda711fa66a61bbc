package poll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

var (
	ErrNoCallback  = errors.New("poll: callback is required")
	ErrBadInterval = errors.New("poll: interval must be positive")
)

// Overlap decides what happens when a tick arrives while an earlier callback is
// still running.
type Overlap int

const (
	// OverlapAllow starts every tick's callback immediately on its own goroutine.
	OverlapAllow Overlap = iota
	// OverlapSerialize queues each tick's callback behind the previous one.
	OverlapSerialize
	// OverlapSkip drops ticks that arrive while a callback is running.
	OverlapSkip
)

func (o Overlap) String() string {
	switch o {
	case OverlapAllow:
		return "allow"
	case OverlapSerialize:
		return "serialize"
	case OverlapSkip:
		return "skip"
	default:
		return fmt.Sprintf("Overlap(%d)", int(o))
	}
}

// ParseOverlap maps a config string to an Overlap. The empty string means allow.
func ParseOverlap(s string) (Overlap, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "allow":
		return OverlapAllow, nil
	case "serialize":
		return OverlapSerialize, nil
	case "skip":
		return OverlapSkip, nil
	}
	return 0, fmt.Errorf("poll: unknown overlap policy %q", s)
}

// Options configure a Poll.
type Options struct {
	// Name labels logs and metrics.
	Name string
	// Callback runs once per tick. Its context is canceled when the poll stops.
	Callback func(ctx context.Context) error
	Interval time.Duration
	Overlap  Overlap
	// Clock defaults to the real clock.
	Clock quartz.Clock
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// OnError receives errors returned by Callback, except cancellation caused by
	// Stop.
	OnError func(error)
	// Metrics may be nil.
	Metrics *Metrics
}
