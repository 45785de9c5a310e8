// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

// Package storage is the DuckDB persistence layer. It owns the trail
// catalog, the adaptation rules and the completion history, and implements
// the pipeline's Catalog, RuleSource and CompletionStore contracts.
//
// DuckDB is embedded; there is no external database process. An empty path
// opens an in-memory database, used in tests and ephemeral deployments.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
)

// Config configures the embedded database.
type Config struct {
	// Path is the database file path. Empty opens an in-memory database.
	Path string `koanf:"path"`

	// Threads is the DuckDB worker thread count. Default: NumCPU.
	Threads int `koanf:"threads"`

	// MaxMemory is the DuckDB memory ceiling. Default: 512MB.
	MaxMemory string `koanf:"max_memory"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Threads:   runtime.NumCPU(),
		MaxMemory: "512MB",
	}
}

// Store is the embedded DuckDB store. Safe for concurrent use; the
// underlying *sql.DB pools connections.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (or creates) the database and bootstraps the schema.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	def := DefaultConfig()
	if cfg.Threads <= 0 {
		cfg.Threads = def.Threads
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = def.MaxMemory
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", path, cfg.Threads, cfg.MaxMemory)

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Threads)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // open failed, best-effort cleanup
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
	}
	if err := s.createTables(ctx); err != nil {
		db.Close() //nolint:errcheck // open failed, best-effort cleanup
		return nil, err
	}

	s.logger.Info().Str("path", path).Int("threads", cfg.Threads).Msg("database opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection. Used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// createTables bootstraps the schema. All columns are defined up front;
// enum-valued fields and slices are stored as their JSON representation so
// the catalog round-trips through the same structs the pipeline uses.
func (s *Store) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trails (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			difficulty DOUBLE NOT NULL,
			distance_km DOUBLE NOT NULL,
			duration_minutes INTEGER NOT NULL,
			elevation_gain_m DOUBLE NOT NULL DEFAULT 0,
			landscapes TEXT NOT NULL DEFAULT '[]',
			popularity DOUBLE NOT NULL DEFAULT 0,
			safety_risk TEXT NOT NULL DEFAULT 'none',
			closed_seasons TEXT NOT NULL DEFAULT '[]',
			trail_type TEXT NOT NULL DEFAULT 'loop',
			latitude DOUBLE,
			longitude DOUBLE,
			elevation_profile TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT true,
			position INTEGER NOT NULL DEFAULT 0,
			conditions TEXT NOT NULL,
			adaptation TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS completions (
			id UUID PRIMARY KEY,
			trail_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			profile TEXT NOT NULL,
			rating DOUBLE NOT NULL,
			completed_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trails_bounds ON trails (difficulty, distance_km, duration_minutes)`,
		`CREATE INDEX IF NOT EXISTS idx_completions_profile ON completions (profile)`,
		`CREATE INDEX IF NOT EXISTS idx_completions_user ON completions (user_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
