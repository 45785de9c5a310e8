// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPService runs an http.Server under supervision. On context
// cancellation the server shuts down gracefully within the configured
// timeout.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewHTTPService wraps an http.Server as a suture service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("component", "http-server").Logger(),
	}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("graceful shutdown failed, closing")
			s.server.Close() //nolint:errcheck // already failing
		}
		<-errCh
		return ctx.Err()
	}
}

// CacheJanitor periodically runs a sweep function, typically an expired-entry
// scan on an in-memory cache.
type CacheJanitor struct {
	name     string
	interval time.Duration
	sweep    func() int
	logger   zerolog.Logger
}

// NewCacheJanitor creates a janitor running sweep every interval.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheJanitor(name string, interval time.Duration, sweep func() int, logger zerolog.Logger) *CacheJanitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitor{
		name:     name,
		interval: interval,
		sweep:    sweep,
		logger:   logger.With().Str("component", "janitor").Str("cache", name).Logger(),
	}
}

// Serve implements suture.Service.
func (j *CacheJanitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := j.sweep(); removed > 0 {
				j.logger.Debug().Int("removed", removed).Msg("swept expired entries")
			}
		}
	}
}
