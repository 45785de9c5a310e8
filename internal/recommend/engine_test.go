// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRuleSource struct {
	rules []Rule
	err   error
}

func (s *stubRuleSource) ActiveRules(_ context.Context) ([]Rule, error) {
	return s.rules, s.err
}

type stubWeather struct {
	condition WeatherCondition
	calls     int
}

func (w *stubWeather) Enrich(_ context.Context, trails []ScoredTrail, hikeDate time.Time, maxTrails int) map[string]WeatherForecast {
	w.calls++
	out := make(map[string]WeatherForecast)
	for i, st := range trails {
		if i >= maxTrails {
			break
		}
		out[st.Trail.ID] = WeatherForecast{TrailID: st.Trail.ID, Condition: w.condition, Date: hikeDate}
	}
	return out
}

type stubExplainer struct{}

func (e *stubExplainer) ExplainAll(_ context.Context, _ *UserProfile, _ *HikeContext, result *RankedResult) Explanation {
	perTrail := make(map[string]string)
	for _, st := range result.ExactMatches {
		perTrail[st.Trail.ID] = "great fit: " + st.Trail.Name
	}
	return Explanation{Summary: "test summary", PerTrail: perTrail, Source: "generated"}
}

func demoCatalog() *stubCatalog {
	return &stubCatalog{trails: []Trail{
		{
			ID: "easy-lake", Name: "Tour du Lac", Difficulty: 2, DistanceKM: 5,
			DurationMinutes: 90, ElevationGainM: 150, Popularity: 80,
			Landscapes:  []string{"lake", "forest"},
			Coordinates: &Coordinates{Latitude: 45.5, Longitude: 6.2},
		},
		{
			ID: "mid-forest", Name: "Sentier des Cimes", Difficulty: 5, DistanceKM: 11,
			DurationMinutes: 210, ElevationGainM: 600, Popularity: 60,
			Landscapes:  []string{"forest", "ridge"},
			Coordinates: &Coordinates{Latitude: 45.6, Longitude: 6.3},
		},
		{
			ID: "hard-ridge", Name: "Arête des Chamois", Difficulty: 9, DistanceKM: 22,
			DurationMinutes: 540, ElevationGainM: 1800, Popularity: 95,
			SafetyRisk: SafetyHigh, Landscapes: []string{"ridge", "glacier"},
			Coordinates: &Coordinates{Latitude: 45.7, Longitude: 6.4},
		},
	}}
}

func beginnerRules() []Rule {
	return []Rule{
		{
			ID:   "beginner-caps",
			Name: "Beginner difficulty cap",
			Conditions: []Condition{
				{Attribute: "user.experience", Operator: OpEqual, Value: "beginner"},
			},
			Adaptation: Adaptation{MaxDifficulty: floatPtr(4), MaxSafetyRisk: riskPtr(SafetyLow)},
		},
		{
			ID:   "short-window",
			Name: "Short time window",
			Conditions: []Condition{
				{Attribute: "context.time_available", Operator: OpLessOrEqual, Value: "150"},
			},
			Adaptation: Adaptation{MaxDurationMinutes: intPtr(150)},
		},
	}
}

func newTestEngine(t *testing.T, cfg *Config, rules RuleSource, catalog Catalog, completions CompletionStore, weather WeatherProvider, explain Explainer) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, zerolog.Nop(), rules, catalog, completions, weather, explain)
	require.NoError(t, err)
	return e
}

// A beginner with two hours gets the easy lake loop as an exact match, with
// the demanding trails filtered out by the fired rules.
func TestRecommendBeginnerShortWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ranking.MinResults = 1
	engine := newTestEngine(t, cfg, &stubRuleSource{rules: beginnerRules()}, demoCatalog(), nil, nil, nil)

	user := &UserProfile{ID: "u1", Experience: ExperienceBeginner, Fitness: FitnessLow, LandscapePreferences: []string{"lake"}}
	hctx := &HikeContext{TimeAvailableMinutes: 120, Season: SeasonSummer}

	result, err := engine.Recommend(context.Background(), user, hctx, Options{})

	require.NoError(t, err)
	require.Len(t, result.ExactMatches, 1)
	assert.Equal(t, "easy-lake", result.ExactMatches[0].Trail.ID)
	assert.True(t, result.ExactMatches[0].Recommended)
	require.Len(t, result.FiredRules, 2)
	assert.Equal(t, 0, result.Metadata.FallbackLevel)
	assert.NotEmpty(t, result.Metadata.RequestID)
}

// With no candidate inside the initial bounds, one relaxation level widens
// the window enough to surface a trail; the run reports the level consumed.
func TestRecommendProgressiveFallback(t *testing.T) {
	catalog := &stubCatalog{trails: []Trail{
		{ID: "only", Name: "Seule Option", Difficulty: 3, DistanceKM: 20, DurationMinutes: 170, Popularity: 10},
	}}
	rules := []Rule{{
		ID:         "short-window",
		Conditions: []Condition{{Attribute: "context.time_available", Operator: OpLessOrEqual, Value: "150"}},
		Adaptation: Adaptation{MaxDurationMinutes: intPtr(120)},
	}}

	cfg := DefaultConfig()
	cfg.Ranking.MinResults = 1

	engine := newTestEngine(t, cfg, &stubRuleSource{rules: rules}, catalog, nil, nil, nil)

	user := &UserProfile{ID: "u1", Experience: ExperienceIntermediate, Fitness: FitnessMedium}
	hctx := &HikeContext{TimeAvailableMinutes: 120, Season: SeasonSummer}

	result, err := engine.Recommend(context.Background(), user, hctx, Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Metadata.FallbackLevel)
	require.Equal(t, 1, len(result.ExactMatches)+len(result.Suggestions))
	// 170 min against a 120 min window and 20 km against a medium-fitness
	// user keep the relevance below the exact-match bar.
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "only", result.Suggestions[0].Trail.ID)
}

// When every relaxation level is exhausted, the popularity fallback surfaces
// trails flagged low-confidence instead of returning nothing.
func TestRecommendPopularityFallback(t *testing.T) {
	catalog := demoCatalog()
	rules := []Rule{{
		ID:         "impossible",
		Conditions: []Condition{{Attribute: "user.experience", Operator: OpEqual, Value: "beginner"}},
		Adaptation: Adaptation{MaxSafetyRisk: riskPtr(SafetyNone), MaxDifficulty: floatPtr(0.5)},
	}}

	engine := newTestEngine(t, nil, &stubRuleSource{rules: rules}, catalog, nil, nil, nil)

	user := &UserProfile{ID: "u1", Experience: ExperienceBeginner}
	hctx := &HikeContext{Season: SeasonSummer}

	result, err := engine.Recommend(context.Background(), user, hctx, Options{})

	require.NoError(t, err)
	assert.Empty(t, result.ExactMatches)
	assert.NotEmpty(t, result.Suggestions)
	assert.True(t, result.Metadata.LowConfidence)
	for _, st := range result.Suggestions {
		assert.True(t, st.LowConfidence)
	}
	assert.NotEmpty(t, result.Metadata.Warnings)
}

func TestRecommendAlwaysReturnDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ranking.AlwaysReturn = false

	rules := []Rule{{
		ID:         "impossible",
		Conditions: []Condition{{Attribute: "user.experience", Operator: OpEqual, Value: "beginner"}},
		Adaptation: Adaptation{MaxDifficulty: floatPtr(0.5)},
	}}
	engine := newTestEngine(t, cfg, &stubRuleSource{rules: rules}, demoCatalog(), nil, nil, nil)

	result, err := engine.Recommend(context.Background(), &UserProfile{ID: "u1"}, &HikeContext{}, Options{})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.ExactMatches)
	assert.Empty(t, result.Suggestions)
	assert.False(t, result.Metadata.LowConfidence)
}

// An unreachable weather provider must not change what is returned or its
// order compared to running with no provider at all.
func TestRecommendWeatherUnavailableDeterminism(t *testing.T) {
	user := &UserProfile{ID: "u1", Experience: ExperienceExpert, Fitness: FitnessHigh}
	hctx := &HikeContext{TimeAvailableMinutes: 600, Season: SeasonSummer, DesiredWeather: WeatherSunny}

	run := func(weather WeatherProvider) *Result {
		engine := newTestEngine(t, nil, &stubRuleSource{}, demoCatalog(), nil, weather, nil)
		result, err := engine.Recommend(context.Background(), user, hctx, Options{})
		require.NoError(t, err)
		return result
	}

	without := run(nil)
	degraded := run(&stubWeather{condition: WeatherUnavailable})

	require.Equal(t, len(without.ExactMatches), len(degraded.ExactMatches))
	require.Equal(t, len(without.Suggestions), len(degraded.Suggestions))
	for i := range without.ExactMatches {
		assert.Equal(t, without.ExactMatches[i].Trail.ID, degraded.ExactMatches[i].Trail.ID)
		assert.InDelta(t, without.ExactMatches[i].Relevance, degraded.ExactMatches[i].Relevance, 1e-9)
	}
	for i := range without.Suggestions {
		assert.Equal(t, without.Suggestions[i].Trail.ID, degraded.Suggestions[i].Trail.ID)
		assert.InDelta(t, without.Suggestions[i].Relevance, degraded.Suggestions[i].Relevance, 1e-9)
	}
}

func TestRecommendWeatherEnrichmentRescores(t *testing.T) {
	weather := &stubWeather{condition: WeatherSunny}
	engine := newTestEngine(t, nil, &stubRuleSource{}, demoCatalog(), nil, weather, nil)

	user := &UserProfile{ID: "u1", Experience: ExperienceExpert, Fitness: FitnessHigh}
	hctx := &HikeContext{TimeAvailableMinutes: 600, Season: SeasonSummer, DesiredWeather: WeatherSunny}

	result, err := engine.Recommend(context.Background(), user, hctx, Options{})

	require.NoError(t, err)
	assert.Positive(t, weather.calls)
	var withForecast int
	for _, st := range append(result.ExactMatches, result.Suggestions...) {
		if st.Forecast != nil {
			withForecast++
			assert.Equal(t, WeatherSunny, st.Forecast.Condition)
		}
	}
	assert.Positive(t, withForecast)
}

// The strict threshold demotes a trail that the default threshold accepts.
func TestRecommendStrictThreshold(t *testing.T) {
	user := &UserProfile{ID: "u1", Experience: ExperienceBeginner, Fitness: FitnessLow, LandscapePreferences: []string{"lake"}}
	hctx := &HikeContext{TimeAvailableMinutes: 120, Season: SeasonSummer}

	run := func(strict bool) *Result {
		engine := newTestEngine(t, nil, &stubRuleSource{rules: beginnerRules()}, demoCatalog(), nil, nil, nil)
		result, err := engine.Recommend(context.Background(), user, hctx, Options{Strict: strict})
		require.NoError(t, err)
		return result
	}

	lenient := run(false)
	strict := run(true)

	require.Len(t, lenient.ExactMatches, 1)
	// Same trail, same relevance, but below the 95% strict bar.
	assert.Empty(t, strict.ExactMatches)
	require.NotEmpty(t, strict.Suggestions)
	assert.Equal(t, lenient.ExactMatches[0].Trail.ID, strict.Suggestions[0].Trail.ID)
}

func TestRecommendCollaborativeIntegration(t *testing.T) {
	catalog := demoCatalog()
	store := &stubCompletionStore{
		records: []CompletionRecord{
			// easy-lake will already be in the results: annotate in place.
			{TrailID: "easy-lake", UserID: "u2", Rating: 5},
			{TrailID: "easy-lake", UserID: "u3", Rating: 4},
			// hard-ridge is filtered out for beginners: appended as suggestion.
			{TrailID: "hard-ridge", UserID: "u2", Rating: 5},
			{TrailID: "hard-ridge", UserID: "u3", Rating: 5},
		},
	}

	cfg := DefaultConfig()
	cfg.Ranking.MinResults = 1
	engine := newTestEngine(t, cfg, &stubRuleSource{rules: beginnerRules()}, catalog, store, nil, nil)

	user := &UserProfile{ID: "u1", Experience: ExperienceBeginner, Fitness: FitnessLow, Profile: ProfileCasual}
	hctx := &HikeContext{TimeAvailableMinutes: 120, Season: SeasonSummer}

	result, err := engine.Recommend(context.Background(), user, hctx, Options{})

	require.NoError(t, err)
	require.Len(t, result.ExactMatches, 1)
	annotated := result.ExactMatches[0]
	assert.Equal(t, "easy-lake", annotated.Trail.ID)
	assert.True(t, annotated.Collaborative)
	assert.InDelta(t, 4.5, annotated.CollabRating, 1e-9)
	assert.Equal(t, 2, annotated.CollabUsers)

	var appendedIDs []string
	for _, st := range result.Suggestions {
		if st.Collaborative {
			appendedIDs = append(appendedIDs, st.Trail.ID)
		}
	}
	assert.Contains(t, appendedIDs, "hard-ridge")
}

func TestRecommendCollaborativeFailureDegrades(t *testing.T) {
	store := &stubCompletionStore{err: errors.New("store down")}
	cfg := DefaultConfig()
	cfg.Ranking.MinResults = 1
	engine := newTestEngine(t, cfg, &stubRuleSource{rules: beginnerRules()}, demoCatalog(), store, nil, nil)

	user := &UserProfile{ID: "u1", Experience: ExperienceBeginner, Fitness: FitnessLow}
	hctx := &HikeContext{TimeAvailableMinutes: 120, Season: SeasonSummer}

	result, err := engine.Recommend(context.Background(), user, hctx, Options{})

	require.NoError(t, err)
	assert.NotEmpty(t, result.ExactMatches)
	assert.NotEmpty(t, result.Metadata.Warnings)
}

func TestRecommendExplanationAttached(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ranking.MinResults = 1
	engine := newTestEngine(t, cfg, &stubRuleSource{rules: beginnerRules()}, demoCatalog(), nil, nil, &stubExplainer{})

	user := &UserProfile{ID: "u1", Experience: ExperienceBeginner, Fitness: FitnessLow}
	hctx := &HikeContext{TimeAvailableMinutes: 120, Season: SeasonSummer}

	result, err := engine.Recommend(context.Background(), user, hctx, Options{})

	require.NoError(t, err)
	assert.Equal(t, "test summary", result.Explanation.Summary)
	require.NotEmpty(t, result.ExactMatches)
	assert.NotEmpty(t, result.ExactMatches[0].Rationale)
}

func TestRecommendDebugMetadata(t *testing.T) {
	engine := newTestEngine(t, nil, &stubRuleSource{}, demoCatalog(), nil, nil, nil)
	user := &UserProfile{ID: "u1", Experience: ExperienceExpert, Fitness: FitnessHigh}
	hctx := &HikeContext{Season: SeasonSummer}

	plain, err := engine.Recommend(context.Background(), user, hctx, Options{})
	require.NoError(t, err)
	assert.Empty(t, plain.Metadata.Stages)

	debug, err := engine.Recommend(context.Background(), user, hctx, Options{Debug: true})
	require.NoError(t, err)
	assert.NotEmpty(t, debug.Metadata.Stages)
	assert.GreaterOrEqual(t, debug.Metadata.LatencyMS, int64(0))
}

func TestRecommendRuleSourceError(t *testing.T) {
	engine := newTestEngine(t, nil, &stubRuleSource{err: errors.New("rule store down")}, demoCatalog(), nil, nil, nil)
	_, err := engine.Recommend(context.Background(), &UserProfile{ID: "u1"}, &HikeContext{}, Options{})
	assert.Error(t, err)
}

func TestRecommendCatalogError(t *testing.T) {
	engine := newTestEngine(t, nil, &stubRuleSource{}, &stubCatalog{err: errors.New("catalog down")}, nil, nil, nil)
	_, err := engine.Recommend(context.Background(), &UserProfile{ID: "u1"}, &HikeContext{}, Options{})
	assert.Error(t, err)
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(nil, zerolog.Nop(), nil, nil, nil, nil, nil)
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.Ranking.RelaxFactor = 0
	_, err = NewEngine(bad, zerolog.Nop(), &stubRuleSource{}, &stubCatalog{}, nil, nil, nil)
	assert.Error(t, err)
}
