// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"fmt"
	"time"
)

// RankingConfig tunes classification and progressive fallback.
type RankingConfig struct {
	// ExactMatchThreshold is the default relevance percentage a trail needs
	// to be an exact match. Default: 80.
	ExactMatchThreshold float64 `json:"exact_match_threshold" koanf:"exact_match_threshold"`

	// StrictMatchThreshold is the stricter business threshold selected by
	// callers that request strict matching. Default: 95.
	StrictMatchThreshold float64 `json:"strict_match_threshold" koanf:"strict_match_threshold"`

	// MinResults is the minimum combined result count below which the
	// progressive fallback engages. Default: 3.
	MinResults int `json:"min_results" koanf:"min_results"`

	// MaxResults caps each of the two result lists. Default: 20.
	MaxResults int `json:"max_results" koanf:"max_results"`

	// MaxFallbackLevels bounds the progressive relaxation depth. Default: 3.
	MaxFallbackLevels int `json:"max_fallback_levels" koanf:"max_fallback_levels"`

	// RelaxFactor widens distance/duration/difficulty bounds per level.
	// Default: 0.5 (+50% per level).
	RelaxFactor float64 `json:"relax_factor" koanf:"relax_factor"`

	// AlwaysReturn enables the popularity fallback when every relaxation
	// level is exhausted. Default: true.
	AlwaysReturn bool `json:"always_return" koanf:"always_return"`

	// PopularFallbackCount is how many trails the popularity fallback
	// surfaces. Default: 5.
	PopularFallbackCount int `json:"popular_fallback_count" koanf:"popular_fallback_count"`
}

// EnrichmentConfig bounds the external enrichment stages.
type EnrichmentConfig struct {
	// MaxWeatherTrails is how many top-scored candidates get a forecast.
	// Default: 10.
	MaxWeatherTrails int `json:"max_weather_trails" koanf:"max_weather_trails"`

	// Deadline bounds the total time spent in weather and explanation
	// enrichment per request; on expiry the run proceeds with unavailable
	// forecasts and fallback explanations. Default: 10s.
	Deadline time.Duration `json:"deadline" koanf:"deadline"`
}

// Config is the full engine configuration.
type Config struct {
	// Weights are the per-criterion scoring weights.
	Weights CriterionWeights `json:"weights" koanf:"weights"`

	// Ranking tunes classification and fallback.
	Ranking RankingConfig `json:"ranking" koanf:"ranking"`

	// Collab tunes collaborative recommendations.
	Collab CollabConfig `json:"collab" koanf:"collab"`

	// Enrichment bounds external enrichment.
	Enrichment EnrichmentConfig `json:"enrichment" koanf:"enrichment"`
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: DefaultCriterionWeights(),
		Ranking: RankingConfig{
			ExactMatchThreshold:  80,
			StrictMatchThreshold: 95,
			MinResults:           3,
			MaxResults:           20,
			MaxFallbackLevels:    3,
			RelaxFactor:          0.5,
			AlwaysReturn:         true,
			PopularFallbackCount: 5,
		},
		Collab: DefaultCollabConfig(),
		Enrichment: EnrichmentConfig{
			MaxWeatherTrails: 10,
			Deadline:         10 * time.Second,
		},
	}
}

// Validate checks the configuration. Invalid values are fatal at startup:
// the service must not serve requests with a broken scoring contract.
func (c *Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.Ranking.ExactMatchThreshold < 0 || c.Ranking.ExactMatchThreshold > 100 {
		return fmt.Errorf("ranking.exact_match_threshold must be in [0, 100], got %f", c.Ranking.ExactMatchThreshold)
	}
	if c.Ranking.StrictMatchThreshold < 0 || c.Ranking.StrictMatchThreshold > 100 {
		return fmt.Errorf("ranking.strict_match_threshold must be in [0, 100], got %f", c.Ranking.StrictMatchThreshold)
	}
	if c.Ranking.MinResults < 0 {
		return fmt.Errorf("ranking.min_results must be non-negative, got %d", c.Ranking.MinResults)
	}
	if c.Ranking.MaxResults < 1 {
		return fmt.Errorf("ranking.max_results must be positive, got %d", c.Ranking.MaxResults)
	}
	if c.Ranking.MaxFallbackLevels < 0 {
		return fmt.Errorf("ranking.max_fallback_levels must be non-negative, got %d", c.Ranking.MaxFallbackLevels)
	}
	if c.Ranking.RelaxFactor <= 0 {
		return fmt.Errorf("ranking.relax_factor must be positive, got %f", c.Ranking.RelaxFactor)
	}
	if c.Ranking.PopularFallbackCount < 0 {
		return fmt.Errorf("ranking.popular_fallback_count must be non-negative, got %d", c.Ranking.PopularFallbackCount)
	}
	if err := c.Collab.Validate(); err != nil {
		return err
	}
	if c.Enrichment.MaxWeatherTrails < 0 {
		return fmt.Errorf("enrichment.max_weather_trails must be non-negative, got %d", c.Enrichment.MaxWeatherTrails)
	}
	if c.Enrichment.Deadline <= 0 {
		return fmt.Errorf("enrichment.deadline must be positive, got %v", c.Enrichment.Deadline)
	}
	return nil
}

// Clone returns a copy of the configuration. All nested structs hold value
// types only, so a shallow copy suffices.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
