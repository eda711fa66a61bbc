package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"livedash/pkg/types"
)

type seen struct {
	method string
	path   string
	query  string
	form   string
	ctype  string
	proto  int
}

func recordingServer(t *testing.T, status int, body string, wrap func(http.Handler) http.Handler) (*httptest.Server, chan seen) {
	t.Helper()
	got := make(chan seen, 1)
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- seen{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			form:   string(b),
			ctype:  r.Header.Get("Content-Type"),
			proto:  r.ProtoMajor,
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	if wrap != nil {
		h = wrap(h)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, got
}

func TestGetEncodesParamsInQuery(t *testing.T) {
	srv, got := recordingServer(t, http.StatusOK, `{"payload":[]}`, nil)
	tr, err := NewHTTP(srv.URL+"/app", nil, nil)
	require.NoError(t, err)

	body, err := tr.Do(context.Background(), http.MethodGet, "counts", types.Params{"query_id": "q1", "rt": true, "from": 10})
	require.NoError(t, err)
	require.JSONEq(t, `{"payload":[]}`, string(body))

	s := <-got
	require.Equal(t, http.MethodGet, s.method)
	require.Equal(t, "/app/api/counts.php", s.path)
	require.Equal(t, "from=10&query_id=q1&rt=true", s.query)
	require.Empty(t, s.form)
}

func TestPostSendsForm(t *testing.T) {
	srv, got := recordingServer(t, http.StatusOK, `{}`, nil)
	tr, err := NewHTTP(srv.URL, nil, nil)
	require.NoError(t, err)

	_, err = tr.Do(context.Background(), http.MethodPost, "messages", types.Params{"discussion_id": 4, "message": "hi there"})
	require.NoError(t, err)

	s := <-got
	require.Equal(t, http.MethodPost, s.method)
	require.Equal(t, "/api/messages.php", s.path)
	require.Equal(t, "discussion_id=4&message=hi+there", s.form)
	require.Equal(t, "application/x-www-form-urlencoded", s.ctype)
}

func TestNon2xxReturnsStatusError(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusInternalServerError, "db unavailable\n", nil)
	tr, err := NewHTTP(srv.URL, nil, nil)
	require.NoError(t, err)

	_, err = tr.Do(context.Background(), http.MethodGet, "tweets", nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusInternalServerError, se.StatusCode())
	require.Equal(t, "db unavailable", se.Body)
}

func TestOversizedResponseIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := bytes.Repeat([]byte("x"), 1<<20)
		for i := 0; i < maxBody>>20; i++ {
			_, _ = w.Write(chunk)
		}
		_, _ = io.WriteString(w, "overflow")
	}))
	defer srv.Close()
	tr, err := NewHTTP(srv.URL, nil, nil)
	require.NoError(t, err)

	body, err := tr.Do(context.Background(), http.MethodGet, "tweets", nil)
	require.ErrorIs(t, err, ErrResponseTooLarge)
	require.Nil(t, body)
}

func TestResponseAtLimitIsAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), maxBody))
	}))
	defer srv.Close()
	tr, err := NewHTTP(srv.URL, nil, nil)
	require.NoError(t, err)

	body, err := tr.Do(context.Background(), http.MethodGet, "tweets", nil)
	require.NoError(t, err)
	require.Len(t, body, maxBody)
}

func TestUnknownEndpointAndRegister(t *testing.T) {
	srv, got := recordingServer(t, http.StatusOK, `{}`, nil)
	tr, err := NewHTTP(srv.URL, nil, nil)
	require.NoError(t, err)

	_, err = tr.Do(context.Background(), http.MethodGet, "bursts", nil)
	require.ErrorIs(t, err, ErrUnknownEndpoint)

	tr.Register("bursts", "api/bursts.php")
	_, err = tr.Do(context.Background(), http.MethodGet, "bursts", nil)
	require.NoError(t, err)
	require.Equal(t, "/api/bursts.php", (<-got).path)
	require.Equal(t, "api/bursts.php", tr.Routes()["bursts"])
	require.NotContains(t, DefaultRoutes, "bursts")
}

func TestNewHTTPRejectsBadBaseURL(t *testing.T) {
	_, err := NewHTTP("ftp://example.com", nil, nil)
	require.Error(t, err)
	_, err = NewHTTP("://", nil, nil)
	require.Error(t, err)
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	tr, err := NewHTTP(srv.URL, nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tr.Do(ctx, http.MethodGet, "auth", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestH2CClient(t *testing.T) {
	srv, got := recordingServer(t, http.StatusOK, `{"payload":1}`, func(h http.Handler) http.Handler {
		return h2c.NewHandler(h, &http2.Server{})
	})
	client := NewH2CClient(time.Second)
	tr, err := NewHTTP(srv.URL, client, nil)
	require.NoError(t, err)

	_, err = tr.Do(context.Background(), http.MethodGet, "keywords", nil)
	require.NoError(t, err)
	require.Equal(t, 2, (<-got).proto)
	client.CloseIdleConnections()
}

func TestNewMTLSClientRequiresPaths(t *testing.T) {
	_, err := NewMTLSClient("", "key.pem", "ca.pem", time.Second)
	require.Error(t, err)
	_, err = NewMTLSClient("missing-cert.pem", "missing-key.pem", "missing-ca.pem", time.Second)
	require.Error(t, err)
}
