// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredTrail(id string, relevance float64, opts ...func(*ScoredTrail)) ScoredTrail {
	st := ScoredTrail{Trail: Trail{ID: id}, Relevance: relevance}
	for _, opt := range opts {
		opt(&st)
	}
	return st
}

func withPopularity(p float64) func(*ScoredTrail) {
	return func(st *ScoredTrail) { st.Trail.Popularity = p }
}

func TestRankSplitsAtThreshold(t *testing.T) {
	ranker := NewTrailRanker()
	scored := []ScoredTrail{
		scoredTrail("a", 92),
		scoredTrail("b", 80), // exactly at threshold: exact match
		scoredTrail("c", 79.9),
		scoredTrail("d", 40),
	}

	out := ranker.Rank(scored, NewFilterSet(), &UserProfile{Experience: ExperienceExpert}, &HikeContext{}, 80)

	require.Len(t, out.ExactMatches, 2)
	require.Len(t, out.Suggestions, 2)
	assert.Equal(t, "a", out.ExactMatches[0].Trail.ID)
	assert.Equal(t, "b", out.ExactMatches[1].Trail.ID)
	assert.True(t, out.ExactMatches[0].Recommended)
	assert.True(t, out.Suggestions[0].Suggested)
	assert.Equal(t, 0, out.Disqualified)
}

func TestRankCriticalCriterionDemotes(t *testing.T) {
	ranker := NewTrailRanker()
	// High relevance but an unmatched safety criterion: never an exact match.
	st := scoredTrail("a", 95)
	st.Unmatched = []CriterionResult{{Name: CriterionSafety}}

	out := ranker.Rank([]ScoredTrail{st}, NewFilterSet(), &UserProfile{Experience: ExperienceExpert}, &HikeContext{}, 80)

	assert.Empty(t, out.ExactMatches)
	require.Len(t, out.Suggestions, 1)
}

func TestRankDisqualifiesSeasonClosure(t *testing.T) {
	ranker := NewTrailRanker()
	st := scoredTrail("a", 95)
	st.Trail.ClosedSeasons = []Season{SeasonWinter}

	out := ranker.Rank([]ScoredTrail{st}, NewFilterSet(), &UserProfile{Experience: ExperienceExpert}, &HikeContext{Season: SeasonWinter}, 80)

	assert.Equal(t, 1, out.Disqualified)
	assert.Equal(t, 0, out.Survivors())
}

func TestRankDisqualifiesExcludedSeasons(t *testing.T) {
	ranker := NewTrailRanker()
	st := scoredTrail("a", 95)
	st.Trail.ClosedSeasons = []Season{SeasonWinter}

	fs := NewFilterSet()
	fs.ExcludedSeasons = []Season{SeasonWinter}
	// Request season is summer; the rule-driven exclusion still applies.
	out := ranker.Rank([]ScoredTrail{st}, fs, &UserProfile{Experience: ExperienceExpert}, &HikeContext{Season: SeasonSummer}, 80)

	assert.Equal(t, 1, out.Disqualified)
}

func TestRankDisqualifiesSafety(t *testing.T) {
	ranker := NewTrailRanker()
	st := scoredTrail("a", 95)
	st.Trail.SafetyRisk = SafetyHigh

	// Above the filter set's ceiling.
	fs := NewFilterSet()
	fs.MaxSafetyRisk = SafetyMedium
	out := ranker.Rank([]ScoredTrail{st}, fs, &UserProfile{Experience: ExperienceExpert}, &HikeContext{}, 80)
	assert.Equal(t, 1, out.Disqualified)

	// Above the user's tolerance even with a permissive filter set.
	out = ranker.Rank([]ScoredTrail{st}, NewFilterSet(), &UserProfile{Experience: ExperienceBeginner}, &HikeContext{}, 80)
	assert.Equal(t, 1, out.Disqualified)
}

func TestRankDisqualifiesStormWithFearOfHeights(t *testing.T) {
	ranker := NewTrailRanker()
	st := scoredTrail("a", 95)
	st.Forecast = &WeatherForecast{TrailID: "a", Condition: WeatherStormRisk}

	fearful := &UserProfile{Experience: ExperienceExpert, FearOfHeights: true}
	out := ranker.Rank([]ScoredTrail{st}, NewFilterSet(), fearful, &HikeContext{}, 80)
	assert.Equal(t, 1, out.Disqualified)

	// Without the fear, storm risk only hurts the score.
	fearless := &UserProfile{Experience: ExperienceExpert}
	out = ranker.Rank([]ScoredTrail{st}, NewFilterSet(), fearless, &HikeContext{}, 80)
	assert.Equal(t, 0, out.Disqualified)
}

func TestRankDisqualifiesBoundExcess(t *testing.T) {
	ranker := NewTrailRanker()
	fs := NewFilterSet()
	fs.MaxDifficulty = 5
	fs.MaxDistanceKM = 10
	fs.MaxDurationMinutes = 120

	expert := &UserProfile{Experience: ExperienceExpert}
	tests := []struct {
		name  string
		trail Trail
	}{
		{"difficulty", Trail{ID: "a", Difficulty: 5.1}},
		{"distance", Trail{ID: "b", DistanceKM: 10.5}},
		{"duration", Trail{ID: "c", DurationMinutes: 121}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ranker.Rank([]ScoredTrail{{Trail: tt.trail, Relevance: 90}}, fs, expert, &HikeContext{}, 80)
			assert.Equal(t, 1, out.Disqualified)
		})
	}
}

func TestRankOrderingIsDeterministic(t *testing.T) {
	ranker := NewTrailRanker()
	scored := []ScoredTrail{
		scoredTrail("c", 90, withPopularity(10)),
		scoredTrail("b", 90, withPopularity(50)),
		scoredTrail("a", 90, withPopularity(50)),
		scoredTrail("d", 95),
	}

	out := ranker.Rank(scored, NewFilterSet(), &UserProfile{Experience: ExperienceExpert}, &HikeContext{}, 80)

	require.Len(t, out.ExactMatches, 4)
	// Relevance desc, then popularity desc, then ID asc.
	ids := []string{
		out.ExactMatches[0].Trail.ID, out.ExactMatches[1].Trail.ID,
		out.ExactMatches[2].Trail.ID, out.ExactMatches[3].Trail.ID,
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
}

func TestPopularityFallback(t *testing.T) {
	ranker := NewTrailRanker()
	scored := []ScoredTrail{
		scoredTrail("a", 10, withPopularity(5)),
		scoredTrail("b", 20, withPopularity(90)),
		scoredTrail("c", 30, withPopularity(40)),
	}

	out := ranker.PopularityFallback(scored, 2)

	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Trail.ID)
	assert.Equal(t, "c", out[1].Trail.ID)
	for _, st := range out {
		assert.True(t, st.Suggested)
		assert.True(t, st.LowConfidence)
	}
	// Input order untouched.
	assert.Equal(t, "a", scored[0].Trail.ID)
}
