// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *UserProfile {
	return &UserProfile{
		ID:                   "u1",
		Experience:           ExperienceIntermediate,
		Fitness:              FitnessMedium,
		LandscapePreferences: []string{"forest", "lake"},
	}
}

func testContext() *HikeContext {
	return &HikeContext{
		HikeDate:             time.Date(2026, 6, 20, 8, 0, 0, 0, time.UTC),
		TimeAvailableMinutes: 240,
		Season:               SeasonSummer,
		DesiredWeather:       WeatherSunny,
	}
}

func criterion(t *testing.T, st ScoredTrail, name string) CriterionResult {
	t.Helper()
	for _, c := range st.Matched {
		if c.Name == name {
			return c
		}
	}
	for _, c := range st.Unmatched {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("criterion %s not evaluated", name)
	return CriterionResult{}
}

func TestScoreEvaluatesAllCriteria(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())
	trail := Trail{
		ID: "t1", Difficulty: 5, DistanceKM: 10, DurationMinutes: 180,
		ElevationGainM: 500, Landscapes: []string{"forest"},
	}

	st := scorer.Score(trail, testUser(), testContext(), nil)

	assert.Len(t, append(st.Matched, st.Unmatched...), 8)
	assert.GreaterOrEqual(t, st.Relevance, 0.0)
	assert.LessOrEqual(t, st.Relevance, 100.0)
}

func TestDifficultyFit(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())

	// Intermediate + medium fitness targets difficulty 5.
	close := scorer.Score(Trail{Difficulty: 5}, testUser(), testContext(), nil)
	far := scorer.Score(Trail{Difficulty: 9.5}, testUser(), testContext(), nil)

	cClose := criterion(t, close, CriterionDifficulty)
	cFar := criterion(t, far, CriterionDifficulty)
	assert.True(t, cClose.Matched)
	assert.False(t, cFar.Matched)
	assert.Greater(t, cClose.Score, cFar.Score)
	assert.InDelta(t, 1.0, cClose.Score, 1e-9)
}

func TestDifficultyFitUsesHistory(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())

	user := testUser()
	user.Stats = PerformanceStats{TrailsCompleted: 20, AvgDifficultyCompleted: 9}
	// Target moves to (5+9)/2 = 7, so difficulty 7 now matches exactly.
	st := scorer.Score(Trail{Difficulty: 7}, user, testContext(), nil)
	assert.InDelta(t, 1.0, criterion(t, st, CriterionDifficulty).Score, 1e-9)

	// Thin history is ignored.
	user.Stats.TrailsCompleted = 2
	st = scorer.Score(Trail{Difficulty: 5}, user, testContext(), nil)
	assert.InDelta(t, 1.0, criterion(t, st, CriterionDifficulty).Score, 1e-9)
}

func TestDurationFit(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())
	hctx := testContext()
	hctx.TimeAvailableMinutes = 120

	tests := []struct {
		name      string
		duration  int
		wantScore float64
		matched   bool
	}{
		{"fits exactly", 120, 1, true},
		{"half the window", 60, 1, true},
		{"slightly over", 150, 0.75, false},
		{"double", 240, 0, false},
		{"far over", 600, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := scorer.Score(Trail{DurationMinutes: tt.duration}, testUser(), hctx, nil)
			c := criterion(t, st, CriterionDuration)
			assert.InDelta(t, tt.wantScore, c.Score, 1e-9)
			assert.Equal(t, tt.matched, c.Matched)
		})
	}
}

func TestDurationFitNeutralWithoutWindow(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())
	hctx := testContext()
	hctx.TimeAvailableMinutes = 0

	st := scorer.Score(Trail{DurationMinutes: 900}, testUser(), hctx, nil)
	c := criterion(t, st, CriterionDuration)
	assert.True(t, c.Matched)
	assert.InDelta(t, neutralScore, c.Score, 1e-9)
}

func TestSafetyFit(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())
	beginner := &UserProfile{Experience: ExperienceBeginner} // tolerance: low

	within := scorer.Score(Trail{SafetyRisk: SafetyLow}, beginner, testContext(), nil)
	oneOver := scorer.Score(Trail{SafetyRisk: SafetyMedium}, beginner, testContext(), nil)
	twoOver := scorer.Score(Trail{SafetyRisk: SafetyHigh}, beginner, testContext(), nil)

	assert.True(t, criterion(t, within, CriterionSafety).Matched)
	assert.InDelta(t, 1.0, criterion(t, within, CriterionSafety).Score, 1e-9)

	assert.False(t, criterion(t, oneOver, CriterionSafety).Matched)
	assert.InDelta(t, 0.65, criterion(t, oneOver, CriterionSafety).Score, 1e-9)
	assert.InDelta(t, 0.30, criterion(t, twoOver, CriterionSafety).Score, 1e-9)
}

func TestSeasonFit(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())
	trail := Trail{ClosedSeasons: []Season{SeasonWinter}}

	hctx := testContext()
	hctx.Season = SeasonWinter
	closed := criterion(t, scorer.Score(trail, testUser(), hctx, nil), CriterionSeason)
	assert.False(t, closed.Matched)
	assert.InDelta(t, 0.0, closed.Score, 1e-9)

	hctx.Season = SeasonSummer
	open := criterion(t, scorer.Score(trail, testUser(), hctx, nil), CriterionSeason)
	assert.True(t, open.Matched)
	assert.InDelta(t, 1.0, open.Score, 1e-9)

	hctx.Season = SeasonUnknown
	unknown := criterion(t, scorer.Score(trail, testUser(), hctx, nil), CriterionSeason)
	assert.True(t, unknown.Matched)
	assert.InDelta(t, neutralScore, unknown.Score, 1e-9)
}

func TestLandscapeFit(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())

	both := scorer.Score(Trail{Landscapes: []string{"forest", "lake", "ridge"}}, testUser(), testContext(), nil)
	assert.InDelta(t, 1.0, criterion(t, both, CriterionLandscape).Score, 1e-9)

	one := scorer.Score(Trail{Landscapes: []string{"lake"}}, testUser(), testContext(), nil)
	assert.InDelta(t, 0.5, criterion(t, one, CriterionLandscape).Score, 1e-9)

	none := scorer.Score(Trail{Landscapes: []string{"desert"}}, testUser(), testContext(), nil)
	c := criterion(t, none, CriterionLandscape)
	assert.False(t, c.Matched)
	assert.InDelta(t, 0.0, c.Score, 1e-9)

	noPrefs := &UserProfile{}
	neutral := scorer.Score(Trail{Landscapes: []string{"desert"}}, noPrefs, testContext(), nil)
	assert.InDelta(t, neutralScore, criterion(t, neutral, CriterionLandscape).Score, 1e-9)
}

func TestWeatherFit(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())
	coords := &Coordinates{Latitude: 45.5, Longitude: 6.5}
	trail := Trail{ID: "t1", Coordinates: coords}

	forecast := func(c WeatherCondition) *WeatherForecast {
		return &WeatherForecast{TrailID: "t1", Condition: c}
	}

	tests := []struct {
		name      string
		forecast  *WeatherForecast
		wantScore float64
		matched   bool
	}{
		{"match", forecast(WeatherSunny), 1, true},
		{"mismatch", forecast(WeatherCloudy), 0.4, false},
		{"rain", forecast(WeatherRainy), 0.2, false},
		{"snow", forecast(WeatherSnowy), 0.2, false},
		{"storm", forecast(WeatherStormRisk), 0, false},
		{"nil forecast", nil, neutralScore, true},
		{"unavailable", forecast(WeatherUnavailable), neutralScore, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := scorer.Score(trail, testUser(), testContext(), tt.forecast)
			c := criterion(t, st, CriterionWeather)
			assert.InDelta(t, tt.wantScore, c.Score, 1e-9)
			assert.Equal(t, tt.matched, c.Matched)
		})
	}
}

// A missing forecast and an unavailable one must produce identical relevance,
// so degraded weather never reshuffles the ranking.
func TestWeatherUnavailableMatchesNilForecast(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())
	trail := Trail{ID: "t1", Difficulty: 5, Coordinates: &Coordinates{Latitude: 45, Longitude: 6}}

	withNil := scorer.Score(trail, testUser(), testContext(), nil)
	withUnavailable := scorer.Score(trail, testUser(), testContext(), &WeatherForecast{TrailID: "t1", Condition: WeatherUnavailable})

	assert.InDelta(t, withNil.Relevance, withUnavailable.Relevance, 1e-9)
}

func TestWeatherNeutralWithoutCoordinates(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())
	st := scorer.Score(Trail{ID: "t1"}, testUser(), testContext(), &WeatherForecast{TrailID: "t1", Condition: WeatherSunny})
	assert.InDelta(t, neutralScore, criterion(t, st, CriterionWeather).Score, 1e-9)
}

func TestRelevanceRange(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())

	ideal := Trail{
		Difficulty: 5, DistanceKM: 8, DurationMinutes: 180, ElevationGainM: 400,
		Landscapes: []string{"forest", "lake"},
	}
	awful := Trail{
		Difficulty: 10, DistanceKM: 60, DurationMinutes: 900, ElevationGainM: 4000,
		SafetyRisk: SafetyHigh, ClosedSeasons: []Season{SeasonSummer},
		Landscapes: []string{"desert"},
	}

	hi := scorer.Score(ideal, testUser(), testContext(), nil)
	lo := scorer.Score(awful, testUser(), testContext(), nil)

	assert.Greater(t, hi.Relevance, 80.0)
	assert.Less(t, lo.Relevance, 30.0)
}

func TestScoreNeverErrorsOnEmptyInput(t *testing.T) {
	scorer := NewTrailScorer(DefaultCriterionWeights())
	st := scorer.Score(Trail{}, &UserProfile{}, &HikeContext{}, nil)
	require.NotNil(t, st.Matched)
	assert.GreaterOrEqual(t, st.Relevance, 0.0)
}

func TestCriterionWeightsValidate(t *testing.T) {
	w := DefaultCriterionWeights()
	require.NoError(t, w.Validate())

	w.Safety = -1
	assert.Error(t, w.Validate())

	assert.Error(t, CriterionWeights{}.Validate())
}
