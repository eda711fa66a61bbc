package requests

import (
	"context"

	"livedash/pkg/types"
)

// Call is an issued request. Its fields are fixed at issue time; the outcome is
// available once Done is closed.
type Call struct {
	Endpoint string
	Channel  string
	Method   string
	// Seq is the request's generation on its channel, starting at 1. It is 0 for a
	// call rejected before being issued.
	Seq    uint64
	Params types.Params

	done  chan struct{}
	err   error
	stale bool
}

func newCall(method, endpoint, channel string, seq uint64, params types.Params) *Call {
	return &Call{
		Endpoint: endpoint,
		Channel:  channel,
		Method:   method,
		Seq:      seq,
		Params:   params,
		done:     make(chan struct{}),
	}
}

func (c *Call) finish(err error, stale bool) {
	c.err = err
	c.stale = stale
	close(c.done)
}

// Done is closed when the call has completed, failed or been discarded as stale.
func (c *Call) Done() <-chan struct{} { return c.done }

// Err returns the transport or post-processing failure, or nil. It is nil while
// the call is still in flight.
func (c *Call) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Stale reports whether the response arrived after a newer request was issued on
// the same channel and was therefore dropped. Staleness is not an error.
func (c *Call) Stale() bool {
	select {
	case <-c.done:
		return c.stale
	default:
		return false
	}
}

// Wait blocks until the call is done or ctx ends, and returns Err or ctx.Err().
func (c *Call) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
