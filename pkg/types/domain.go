package types

import "encoding/json"

// Params are the request parameters sent to a backend endpoint. Values are encoded
// with Params.String on the wire (query string for GET, form body for POST).
type Params map[string]any

// Clone returns a shallow copy so callers can hand params to a request and keep
// mutating their own map.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the value of key formatted as a string, or "" when absent.
func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Envelope is the response shape every backend endpoint returns.
type Envelope struct {
	// Endpoint-specific result data.
	Payload json.RawMessage `json:"payload" swaggertype:"object"`
	// Echo of the request parameters as the backend saw them.
	Request map[string]any `json:"request,omitempty"`
	// Server-side timing information.
	Performance *Performance `json:"performance,omitempty"`
}

// Performance carries backend timing data.
type Performance struct {
	// Total handler time in seconds.
	// example: 0.042
	Total float64 `json:"total" example:"0.042"`
	// Time spent in database queries, in seconds.
	// example: 0.031
	Queries float64 `json:"queries,omitempty" example:"0.031"`
}
