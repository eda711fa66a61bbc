package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"livedash/internal/config"
	"livedash/internal/dashboard"
	"livedash/internal/httpapi"
	"livedash/internal/poll"
	"livedash/internal/requests"
	"livedash/internal/transport"
)

const shutdownTimeout = 5 * time.Second

// backendClient picks the HTTP client matching the configured backend protocol.
func backendClient(cfg config.Config) (*http.Client, error) {
	switch {
	case cfg.TLS.Enabled():
		return transport.NewMTLSClient(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.CAFile, cfg.RequestTimeout())
	case cfg.H2C:
		return transport.NewH2CClient(cfg.RequestTimeout()), nil
	default:
		return transport.NewClient(cfg.RequestTimeout()), nil
	}
}

// newSession wires transport, request manager and session from cfg. Metrics are
// registered on reg.
func newSession(cfg config.Config, log zerolog.Logger, reg prometheus.Registerer) (*dashboard.Session, *requests.Manager, error) {
	client, err := backendClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("backend client: %w", err)
	}
	tr, err := transport.NewHTTP(cfg.BaseURL, client, &log)
	if err != nil {
		return nil, nil, err
	}
	for name, path := range cfg.Routes {
		tr.Register(name, path)
	}
	overlap, err := poll.ParseOverlap(cfg.Overlap)
	if err != nil {
		return nil, nil, err
	}

	m := requests.NewWithConfig(requests.Config{
		Transport: tr,
		Logger:    &log,
		Metrics:   requests.NewMetrics(reg),
	})
	s, err := dashboard.NewSession(m, dashboard.Options{
		Queries:        cfg.Queries,
		Interval:       cfg.Interval,
		BinSize:        cfg.BinSize(),
		TimelinePoll:   cfg.TimelinePoll(),
		DiscussionPoll: cfg.DiscussionPoll(),
		Overlap:        overlap,
		Logger:         &log,
		PollMetrics:    poll.NewMetrics(reg),
	})
	if err != nil {
		m.Close()
		return nil, nil, err
	}
	return s, m, nil
}

// serve runs the session and its HTTP API until ctx is canceled.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	s, m, err := newSession(cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer m.Close()
	defer s.Close()

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetRefreshTimeout(cfg.RequestTimeout())
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Str("backend", cfg.BaseURL).Msg("livedash listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.Start()
		<-gctx.Done()
		s.Stop()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	err = g.Wait()
	log.Info().Msg("livedash stopped")
	return err
}
