package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"livedash/internal/dashboard"
	"livedash/internal/evented"
	"livedash/internal/requests"
	"livedash/pkg/types"
)

// Service defines the methods required by the HTTP API layer. It is
// implemented by *dashboard.Session.
type Service interface {
	Status() types.StatusResponse
	Running() bool
	ModelNames() []string
	Model(name string) (*evented.Entity, bool)
	PanelNames() []string
	Panel(name string) (dashboard.Panel, bool)
	Refresh() []*requests.Call
}

// NewMux builds the router serving svc.
func NewMux(svc Service) http.Handler {
	started := time.Now()
	o := currentOptions()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if o.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: o.CORS.Origins,
			AllowedMethods: o.CORS.Methods,
			AllowedHeaders: o.CORS.Headers,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Running() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("stopped"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		st := svc.Status()
		st.UptimeSeconds = int64(time.Since(started).Seconds())
		writeJSON(w, http.StatusOK, st)
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.NamesResponse{Names: svc.ModelNames()})
	})
	r.Get("/models/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		e, ok := svc.Model(name)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "unknown model: "+name)
			return
		}
		writeJSON(w, http.StatusOK, modelResponse(name, e))
	})
	r.Patch("/models/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		e, ok := svc.Model(name)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "unknown model: "+name)
			return
		}
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, currentOptions().MaxBody)
		var partial map[string]any
		if err := json.NewDecoder(r.Body).Decode(&partial); err != nil || partial == nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := e.SetErr(partial, false); err != nil {
			status := errorStatus(err)
			if status == http.StatusBadRequest {
				IncrementModelRejection(name)
			}
			writeJSONError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, modelResponse(name, e))
	})

	r.Get("/panels", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.NamesResponse{Names: svc.PanelNames()})
	})
	r.Get("/panels/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		p, ok := svc.Panel(name)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "unknown panel: "+name)
			return
		}
		writeJSON(w, http.StatusOK, types.PanelResponse{Name: name, Data: p.Snapshot()})
	})

	r.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
		// Join server base context with request context so shutdown cancels the wait too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if d := currentOptions().RefreshTimeout; d > 0 {
			var cancelT context.CancelFunc
			ctx, cancelT = context.WithTimeout(ctx, d)
			defer cancelT()
		}
		res, err := waitCalls(ctx, svc.Refresh())
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeJSONError(w, http.StatusGatewayTimeout, "refresh did not complete: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func modelResponse(name string, e *evented.Entity) types.ModelResponse {
	return types.ModelResponse{Name: name, Data: e.Snapshot(), Invalid: e.Invalid()}
}

// waitCalls waits for every call and tallies the outcomes. It returns the
// context error if ctx ends first.
func waitCalls(ctx context.Context, calls []*requests.Call) (types.RefreshResponse, error) {
	res := types.RefreshResponse{Requested: len(calls)}
	for _, c := range calls {
		select {
		case <-c.Done():
		case <-ctx.Done():
			return res, ctx.Err()
		}
		switch {
		case c.Err() != nil:
			res.Failed++
		case c.Stale():
			res.Stale++
		default:
			res.Accepted++
		}
	}
	return res, nil
}
