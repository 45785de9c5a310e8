// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// CompletionRecord is one completion event from the persistence layer.
type CompletionRecord struct {
	TrailID string  `json:"trail_id"`
	UserID  string  `json:"user_id"`
	Rating  float64 `json:"rating"`
}

// CompletionStore supplies completion history. Implemented by the storage
// layer; consumed, not owned, by the pipeline.
type CompletionStore interface {
	// CompletionsByProfile returns completions by users carrying the given
	// behavioral profile label.
	CompletionsByProfile(ctx context.Context, label ProfileLabel) ([]CompletionRecord, error)

	// CompletedTrailIDs returns the IDs of trails the user has completed.
	CompletedTrailIDs(ctx context.Context, userID string) ([]string, error)
}

// CollabTrail is a trail favored by users sharing the requester's profile,
// with its aggregate signal.
type CollabTrail struct {
	Trail     Trail   `json:"trail"`
	AvgRating float64 `json:"avg_rating"`
	UserCount int     `json:"user_count"`
}

// CollabConfig tunes the collaborative recommendation service.
type CollabConfig struct {
	// MinAvgRating is the minimum average rating (out of 5) a trail needs.
	// Default: 3.5.
	MinAvgRating float64 `json:"min_avg_rating" koanf:"min_avg_rating"`

	// MinUsers is the minimum number of distinct users behind the signal.
	// Default: 2.
	MinUsers int `json:"min_users" koanf:"min_users"`

	// MaxAppend is how many collaborative trails may be appended to the
	// suggestions list. Default: 5.
	MaxAppend int `json:"max_append" koanf:"max_append"`

	// MaxSupplementary caps the separate collaborative list. Default: 10.
	MaxSupplementary int `json:"max_supplementary" koanf:"max_supplementary"`
}

// DefaultCollabConfig returns the documented defaults.
func DefaultCollabConfig() CollabConfig {
	return CollabConfig{
		MinAvgRating:     3.5,
		MinUsers:         2,
		MaxAppend:        5,
		MaxSupplementary: 10,
	}
}

// Validate checks the configuration.
func (c CollabConfig) Validate() error {
	if c.MinAvgRating < 0 || c.MinAvgRating > 5 {
		return fmt.Errorf("collab.min_avg_rating must be in [0, 5], got %f", c.MinAvgRating)
	}
	if c.MinUsers < 1 {
		return fmt.Errorf("collab.min_users must be positive, got %d", c.MinUsers)
	}
	if c.MaxAppend < 0 || c.MaxSupplementary < 0 {
		return fmt.Errorf("collab.max_append and collab.max_supplementary must be non-negative")
	}
	return nil
}

// CollabService retrieves trails favored by users sharing the requester's
// inferred profile label.
type CollabService struct {
	cfg     CollabConfig
	store   CompletionStore
	catalog Catalog
	logger  zerolog.Logger
}

// NewCollabService creates a collaborative recommendation service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCollabService(cfg CollabConfig, store CompletionStore, catalog Catalog, logger zerolog.Logger) *CollabService {
	return &CollabService{
		cfg:     cfg,
		store:   store,
		catalog: catalog,
		logger:  logger.With().Str("component", "collab").Logger(),
	}
}

// Recommend returns up to limit collaborative trails for the user, excluding
// the given trail IDs and everything the user has already completed. Results
// are ordered by average rating desc, user count desc, trail ID asc.
func (s *CollabService) Recommend(ctx context.Context, user *UserProfile, exclude map[string]struct{}, limit int) ([]CollabTrail, error) {
	records, err := s.store.CompletionsByProfile(ctx, user.Profile)
	if err != nil {
		return nil, fmt.Errorf("completions by profile: %w", err)
	}

	completed, err := s.store.CompletedTrailIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("completed trails: %w", err)
	}

	skip := make(map[string]struct{}, len(exclude)+len(completed))
	for id := range exclude {
		skip[id] = struct{}{}
	}
	for _, id := range completed {
		skip[id] = struct{}{}
	}

	type aggregate struct {
		sum   float64
		count int
		users map[string]struct{}
	}
	byTrail := make(map[string]*aggregate)
	for _, rec := range records {
		if rec.UserID == user.ID {
			continue
		}
		agg := byTrail[rec.TrailID]
		if agg == nil {
			agg = &aggregate{users: make(map[string]struct{})}
			byTrail[rec.TrailID] = agg
		}
		agg.sum += rec.Rating
		agg.count++
		agg.users[rec.UserID] = struct{}{}
	}

	candidates := make([]CollabTrail, 0, len(byTrail))
	ids := make([]string, 0, len(byTrail))
	for trailID, agg := range byTrail {
		if _, skipped := skip[trailID]; skipped {
			continue
		}
		users := len(agg.users)
		avg := agg.sum / float64(agg.count)
		if users < s.cfg.MinUsers || avg < s.cfg.MinAvgRating {
			continue
		}
		candidates = append(candidates, CollabTrail{
			Trail:     Trail{ID: trailID},
			AvgRating: avg,
			UserCount: users,
		})
		ids = append(ids, trailID)
	}

	trails, err := s.catalog.TrailsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("trails by ids: %w", err)
	}
	byID := make(map[string]Trail, len(trails))
	for _, t := range trails {
		byID[t.ID] = t
	}

	// Drop candidates the catalog no longer knows about.
	kept := candidates[:0]
	for _, c := range candidates {
		t, ok := byID[c.Trail.ID]
		if !ok {
			continue
		}
		c.Trail = t
		kept = append(kept, c)
	}
	candidates = kept

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].AvgRating != candidates[j].AvgRating {
			return candidates[i].AvgRating > candidates[j].AvgRating
		}
		if candidates[i].UserCount != candidates[j].UserCount {
			return candidates[i].UserCount > candidates[j].UserCount
		}
		return candidates[i].Trail.ID < candidates[j].Trail.ID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	s.logger.Debug().
		Str("profile", user.Profile.String()).
		Int("records", len(records)).
		Int("returned", len(candidates)).
		Msg("collaborative recommendation complete")

	return candidates, nil
}
