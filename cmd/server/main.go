// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

// Package main is the entry point for the Trailguide server.
//
// Trailguide is a self-hosted trail recommendation service. It evaluates
// declarative adaptation rules against a hiker's profile and context, scores
// the catalog on eight weighted criteria, enriches the top candidates with
// daily forecasts and serves ranked, explained recommendations over HTTP.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 sources (env > config.yaml > defaults)
//  2. Logging: global zerolog logger
//  3. Storage: embedded DuckDB (catalog, rules, completion history)
//  4. Weather: Open-Meteo client with BadgerDB forecast cache (optional)
//  5. Explanations: completion backend with deterministic fallback (optional)
//  6. Engine: the recommendation pipeline
//  7. Supervision: suture tree running the HTTP server and cache janitors
//
// Graceful shutdown runs on SIGINT and SIGTERM: in-flight requests get the
// configured shutdown window, then storage and caches are closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/MatteoBdl31/trailguide/internal/api"
	"github.com/MatteoBdl31/trailguide/internal/config"
	"github.com/MatteoBdl31/trailguide/internal/explain"
	"github.com/MatteoBdl31/trailguide/internal/logging"
	"github.com/MatteoBdl31/trailguide/internal/metrics"
	"github.com/MatteoBdl31/trailguide/internal/recommend"
	"github.com/MatteoBdl31/trailguide/internal/storage"
	"github.com/MatteoBdl31/trailguide/internal/supervisor"
	"github.com/MatteoBdl31/trailguide/internal/weather"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logger := logging.Logger()
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(cfg.Logging)
	logger := logging.Logger()
	logger.Info().Str("version", version).Str("environment", cfg.Server.Environment).Msg("starting trailguide")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	store, err := storage.Open(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close() //nolint:errcheck // shutdown path

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.SeedDemo {
		if err := store.SeedDemo(ctx); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	weatherProvider, forecastCache, err := buildWeather(cfg, logger, tree)
	if err != nil {
		return err
	}
	if forecastCache != nil {
		defer forecastCache.Close() //nolint:errcheck // shutdown path
	}

	explainer := buildExplainer(cfg, logger, tree)

	engine, err := recommend.NewEngine(&cfg.Engine, logger, store, store, store, weatherProvider, explainer)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	handler := api.NewHandler(engine, store, store, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	tree.AddAPI(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout, logger))

	startUptimeCounter(ctx)

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	logger.Info().Msg("shutdown complete")
	return nil
}

// buildWeather assembles the forecast enrichment stack when enabled. A nil
// provider disables enrichment; the pipeline then scores with the neutral
// weather criterion.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func buildWeather(cfg *config.Config, logger zerolog.Logger, tree *supervisor.Tree) (recommend.WeatherProvider, *weather.ForecastCache, error) {
	if !cfg.Weather.Enabled {
		logger.Info().Msg("weather enrichment disabled")
		return nil, nil, nil
	}

	cache, err := weather.OpenCache(cfg.Weather.CachePath, cfg.Weather.CacheTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("open forecast cache: %w", err)
	}

	client := weather.NewClient(cfg.Weather.Client, logger)
	enricher := weather.NewEnricher(cfg.Weather.Enricher, client, cache, logger)

	tree.AddMaintenance(supervisor.NewCacheJanitor("forecast", 10*time.Minute, func() int {
		if err := cache.GC(); err != nil {
			logger.Warn().Err(err).Msg("forecast cache gc failed")
		}
		return 0
	}, logger))

	return enricher, cache, nil
}

// buildExplainer assembles the explanation stack. The enricher is always
// created so every response carries at least deterministic rationales; the
// completion backend is attached only when enabled.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func buildExplainer(cfg *config.Config, logger zerolog.Logger, tree *supervisor.Tree) recommend.Explainer {
	var generator explain.Generator
	if cfg.Explain.Enabled {
		generator = explain.NewClient(cfg.Explain.Client, logger)
	} else {
		logger.Info().Msg("explanation backend disabled, using deterministic fallback")
	}

	enricher := explain.NewEnricher(cfg.Explain.Enricher, generator, logger)
	tree.AddMaintenance(supervisor.NewCacheJanitor("explanation", time.Minute, enricher.SweepCache, logger))
	return enricher
}

// startUptimeCounter feeds the uptime gauge once a minute.
func startUptimeCounter(ctx context.Context) {
	start := time.Now()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.AppUptime.Set(time.Since(start).Seconds())
			}
		}
	}()
}
