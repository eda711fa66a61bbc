package requests

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by calls issued after Close.
var ErrClosed = errors.New("requests: manager closed")

// postProcessError wraps a failure of a request's PostProcess transform.
type postProcessError struct {
	endpoint string
	err      error
}

func (e postProcessError) Error() string {
	return fmt.Sprintf("post-process %s: %v", e.endpoint, e.err)
}

func (e postProcessError) Unwrap() error { return e.err }

// IsPostProcess reports whether err came from a PostProcess transform rather than
// the transport.
func IsPostProcess(err error) bool {
	var pe postProcessError
	return errors.As(err, &pe)
}

// transportError wraps a failure returned by the Transport.
type transportError struct {
	endpoint string
	seq      uint64
	err      error
}

func (e transportError) Error() string {
	return fmt.Sprintf("request %s:%d: %v", e.endpoint, e.seq, e.err)
}

func (e transportError) Unwrap() error { return e.err }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te transportError
	return errors.As(err, &te)
}
