// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package storage

import (
	"context"
	"fmt"

	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

// SeedDemo loads a small realistic catalog, a default rule set and some
// completion history. Intended for demos and first-run setups; existing rows
// with the same IDs are replaced.
func (s *Store) SeedDemo(ctx context.Context) error {
	s.logger.Info().Msg("seeding demo catalog")

	for i := range demoTrails {
		if err := s.InsertTrail(ctx, &demoTrails[i]); err != nil {
			return fmt.Errorf("seed trails: %w", err)
		}
	}
	for i := range demoRules {
		if err := s.InsertRule(ctx, &demoRules[i], i, true); err != nil {
			return fmt.Errorf("seed rules: %w", err)
		}
	}
	for _, c := range demoCompletions {
		if err := s.RecordCompletion(ctx, c.trailID, c.userID, c.profile, c.rating); err != nil {
			return fmt.Errorf("seed completions: %w", err)
		}
	}
	return nil
}

func coords(lat, lon float64) *recommend.Coordinates {
	return &recommend.Coordinates{Latitude: lat, Longitude: lon}
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func riskPtr(v recommend.SafetyRisk) *recommend.SafetyRisk { return &v }

var demoTrails = []recommend.Trail{
	{
		ID: "lac-bleu-loop", Name: "Lac Bleu Loop",
		Difficulty: 2, DistanceKM: 5.5, DurationMinutes: 110, ElevationGainM: 180,
		Landscapes: []string{"lake", "forest"}, Popularity: 88,
		SafetyRisk: recommend.SafetyNone, Type: recommend.TrailLoop,
		Coordinates: coords(45.917, 6.872),
	},
	{
		ID: "cascade-forest-walk", Name: "Cascade Forest Walk",
		Difficulty: 1.5, DistanceKM: 3.8, DurationMinutes: 75, ElevationGainM: 90,
		Landscapes: []string{"forest", "waterfall"}, Popularity: 72,
		SafetyRisk: recommend.SafetyNone, Type: recommend.TrailOneWay,
		Coordinates: coords(45.931, 6.901),
	},
	{
		ID: "plateau-meadows", Name: "Plateau Meadows",
		Difficulty: 3, DistanceKM: 9.2, DurationMinutes: 180, ElevationGainM: 420,
		Landscapes: []string{"meadow", "panorama"}, Popularity: 65,
		SafetyRisk: recommend.SafetyLow, Type: recommend.TrailLoop,
		Coordinates: coords(45.880, 6.810),
	},
	{
		ID: "col-des-aravis", Name: "Col des Aravis Traverse",
		Difficulty: 5.5, DistanceKM: 14.0, DurationMinutes: 300, ElevationGainM: 950,
		Landscapes: []string{"ridge", "panorama"}, Popularity: 58,
		SafetyRisk: recommend.SafetyMedium, Type: recommend.TrailOneWay,
		ClosedSeasons: []recommend.Season{recommend.SeasonWinter},
		Coordinates:   coords(45.867, 6.459),
	},
	{
		ID: "aiguille-ridge", Name: "Aiguille Ridge Route",
		Difficulty: 8.5, DistanceKM: 17.5, DurationMinutes: 540, ElevationGainM: 1750,
		Landscapes: []string{"ridge", "glacier"}, Popularity: 81,
		SafetyRisk: recommend.SafetyHigh, Type: recommend.TrailLoop,
		ClosedSeasons: []recommend.Season{recommend.SeasonWinter, recommend.SeasonSpring},
		Coordinates:   coords(45.899, 6.923),
	},
	{
		ID: "vallon-river-path", Name: "Vallon River Path",
		Difficulty: 2.5, DistanceKM: 7.0, DurationMinutes: 140, ElevationGainM: 150,
		Landscapes: []string{"river", "forest"}, Popularity: 54,
		SafetyRisk: recommend.SafetyNone, Type: recommend.TrailOneWay,
		Coordinates: coords(45.845, 6.781),
	},
}

var demoRules = []recommend.Rule{
	{
		ID:   "beginner-caps",
		Name: "Cap difficulty and risk for beginners",
		Conditions: []recommend.Condition{
			{Attribute: "user.experience", Operator: recommend.OpEqual, Value: "beginner"},
		},
		Adaptation: recommend.Adaptation{
			MaxDifficulty: floatPtr(4),
			MaxSafetyRisk: riskPtr(recommend.SafetyLow),
		},
	},
	{
		ID:   "low-fitness-distance",
		Name: "Shorten trails for low fitness",
		Conditions: []recommend.Condition{
			{Attribute: "user.fitness", Operator: recommend.OpEqual, Value: "low"},
		},
		Adaptation: recommend.Adaptation{
			MaxDistanceKM: floatPtr(8),
		},
	},
	{
		ID:   "short-window",
		Name: "Fit the available time window",
		Conditions: []recommend.Condition{
			{Attribute: "context.time_available", Operator: recommend.OpLessOrEqual, Value: "180"},
		},
		Adaptation: recommend.Adaptation{
			MaxDurationMinutes: intPtr(180),
		},
	},
	{
		ID:   "fear-of-heights",
		Name: "Avoid exposure for hikers afraid of heights",
		Conditions: []recommend.Condition{
			{Attribute: "user.fear_of_heights", Operator: recommend.OpEqual, Value: "true"},
		},
		Adaptation: recommend.Adaptation{
			MaxSafetyRisk: riskPtr(recommend.SafetyLow),
		},
	},
}

var demoCompletions = []struct {
	trailID string
	userID  string
	profile recommend.ProfileLabel
	rating  float64
}{
	{"lac-bleu-loop", "demo-user-2", recommend.ProfileCasual, 4.5},
	{"lac-bleu-loop", "demo-user-3", recommend.ProfileCasual, 5},
	{"cascade-forest-walk", "demo-user-2", recommend.ProfileCasual, 4},
	{"plateau-meadows", "demo-user-4", recommend.ProfileRegular, 4.5},
	{"col-des-aravis", "demo-user-5", recommend.ProfileAthletic, 5},
	{"aiguille-ridge", "demo-user-5", recommend.ProfileAthletic, 4.5},
	{"aiguille-ridge", "demo-user-6", recommend.ProfileAthletic, 5},
}
