// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MatteoBdl31/trailguide/internal/middleware"
)

// RouterConfig configures the route-level middleware.
type RouterConfig struct {
	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string

	// RateLimitReqs and RateLimitWindow throttle API requests per client IP.
	// Zero requests disables rate limiting.
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// NewRouter assembles the full route tree.
func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints get a permissive limit so monitoring can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Use(middleware.SecurityHeaders)
		r.Get("/live", handler.HealthLive)
		r.Get("/ready", handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)

		r.Post("/recommendations", handler.Recommend)
		r.Post("/completions", handler.CreateCompletion)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
