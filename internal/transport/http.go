// Package transport performs backend calls for the request manager over HTTP.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"livedash/pkg/types"
)

// DefaultRoutes maps backend endpoint names to paths relative to the base URL.
var DefaultRoutes = map[string]string{
	"counts":      "api/counts.php",
	"discussions": "api/discussions.php",
	"messages":    "api/messages.php",
	"tweets":      "api/tweets.php",
	"annotations": "api/annotations.php",
	"keywords":    "api/burst_keywords.php",
	"users":       "api/users.php",
	"auth":        "api/auth.php",
}

// maxBody caps how much of a response is read.
const maxBody = 16 << 20

var (
	ErrUnknownEndpoint  = errors.New("transport: unknown endpoint")
	ErrResponseTooLarge = errors.New("transport: response too large")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Code, e.Body)
}

func (e *StatusError) StatusCode() int { return e.Code }

// HTTPTransport sends GET requests with params in the query string and other
// methods with params form-encoded in the body.
type HTTPTransport struct {
	base   *url.URL
	client *http.Client
	log    zerolog.Logger

	mu     sync.RWMutex
	routes map[string]string
}

// NewHTTP returns a transport rooted at baseURL with the default routes. A nil
// client means http.DefaultClient.
func NewHTTP(baseURL string, client *http.Client, logger *zerolog.Logger) (*HTTPTransport, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	t := &HTTPTransport{
		base:   base,
		client: client,
		routes: maps.Clone(DefaultRoutes),
		log:    zerolog.Nop(),
	}
	if logger != nil {
		t.log = logger.With().Str("component", "transport").Logger()
	}
	return t, nil
}

// Register adds or replaces the path for an endpoint.
func (t *HTTPTransport) Register(name, path string) {
	t.mu.Lock()
	t.routes[name] = path
	t.mu.Unlock()
}

// Routes returns a copy of the route table.
func (t *HTTPTransport) Routes() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.routes)
}

func (t *HTTPTransport) resolve(endpoint string) (*url.URL, error) {
	t.mu.RLock()
	path, ok := t.routes[endpoint]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", endpoint, err)
	}
	return t.base.ResolveReference(ref), nil
}

func encode(params types.Params) url.Values {
	v := make(url.Values, len(params))
	for k := range params {
		v.Set(k, params.String(k))
	}
	return v
}

// Do implements requests.Transport.
func (t *HTTPTransport) Do(ctx context.Context, method, endpoint string, params types.Params) ([]byte, error) {
	u, err := t.resolve(endpoint)
	if err != nil {
		return nil, err
	}
	values := encode(params)

	var body io.Reader
	if method == http.MethodGet {
		q := u.Query()
		for k, vs := range values {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	} else {
		body = strings.NewReader(values.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	t.log.Debug().Str("endpoint", endpoint).Str("method", method).Int("status", resp.StatusCode).Int("bytes", len(data)).Msg("backend response")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: string(bytes.TrimSpace(truncate(data, 256)))}
	}
	if len(data) > maxBody {
		return nil, fmt.Errorf("%w: %s response exceeds %d bytes", ErrResponseTooLarge, endpoint, maxBody)
	}
	return data, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
