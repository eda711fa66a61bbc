package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"livedash/internal/dashboard"
	"livedash/internal/httpapi"
	"livedash/internal/requests"
	"livedash/internal/transport"
)

// backend is a fake dashboard backend. Every endpoint echoes its params as the
// payload; tweets requests searching for "slow" block until release is closed.
type backend struct {
	srv     *httptest.Server
	release chan struct{}
	once    sync.Once

	mu   sync.Mutex
	hits map[string]int
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{release: make(chan struct{}), hits: make(map[string]int)}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(func() {
		b.unblock()
		b.srv.Close()
	})
	return b
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	b.mu.Lock()
	b.hits[r.Method+" "+r.URL.Path]++
	b.mu.Unlock()

	params := map[string]string{}
	for k := range r.Form {
		params[k] = r.Form.Get(k)
	}
	switch r.URL.Path {
	case "/api/auth.php":
		_, _ = io.WriteString(w, `{"payload":{"name":"carol"}}`)
		return
	case "/api/tweets.php":
		if params["search"] == "slow" {
			select {
			case <-b.release:
			case <-r.Context().Done():
				return
			}
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"payload": params})
}

func (b *backend) unblock() { b.once.Do(func() { close(b.release) }) }

func (b *backend) count(call string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[call]
}

// stack is the full server: HTTP transport to the fake backend, request
// manager, session and API mux.
type stack struct {
	api     *httptest.Server
	session *dashboard.Session
	manager *requests.Manager
	events  *requests.MemoryPublisher
}

func newStack(t *testing.T, b *backend, opts dashboard.Options) *stack {
	t.Helper()
	tr, err := transport.NewHTTP(b.srv.URL, transport.NewClient(0), nil)
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	events := requests.NewMemoryPublisher()
	m := requests.NewWithConfig(requests.Config{Transport: tr, Publisher: events})
	s, err := dashboard.NewSession(m, opts)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	api := httptest.NewServer(httpapi.NewMux(s))
	t.Cleanup(func() {
		api.Close()
		s.Close()
		b.unblock()
		m.Close()
	})
	return &stack{api: api, session: s, manager: m, events: events}
}

func (s *stack) do(t *testing.T, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.api.URL+path, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	out, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, out
}

func (s *stack) getJSON(t *testing.T, path string, v any) {
	t.Helper()
	resp, body := s.do(t, http.MethodGet, path, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status=%d body=%s", path, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("GET %s: json: %v", path, err)
	}
}
