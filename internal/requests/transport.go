package requests

import (
	"context"

	"livedash/pkg/types"
)

// Transport performs one backend call and returns the raw response body.
// Implementations own timeouts and must honour ctx cancellation.
type Transport interface {
	Do(ctx context.Context, method, endpoint string, params types.Params) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, method, endpoint string, params types.Params) ([]byte, error)

func (f TransportFunc) Do(ctx context.Context, method, endpoint string, params types.Params) ([]byte, error) {
	return f(ctx, method, endpoint, params)
}
