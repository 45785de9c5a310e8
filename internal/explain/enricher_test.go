// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package explain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

type fakeGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func testProfile() *recommend.UserProfile {
	return &recommend.UserProfile{
		ID:         "user-1",
		Experience: recommend.ExperienceBeginner,
		Fitness:    recommend.FitnessMedium,
	}
}

func testHikeContext() *recommend.HikeContext {
	return &recommend.HikeContext{
		Season:               recommend.SeasonSummer,
		TimeAvailableMinutes: 180,
	}
}

func rankedResult() *recommend.RankedResult {
	return &recommend.RankedResult{
		ExactMatches: []recommend.ScoredTrail{
			{
				Trail:     recommend.Trail{ID: "lake-loop", Name: "Lake Loop", Difficulty: 2, DistanceKM: 5},
				Relevance: 92,
				Matched: []recommend.CriterionResult{
					{Name: recommend.CriterionDifficulty, Matched: true, Message: "difficulty suits your experience"},
					{Name: recommend.CriterionDuration, Matched: true, Message: "fits in your available time"},
				},
			},
		},
		Suggestions: []recommend.ScoredTrail{
			{
				Trail:     recommend.Trail{ID: "ridge-walk", Name: "Ridge Walk", Difficulty: 6, DistanceKM: 14},
				Relevance: 71,
				Unmatched: []recommend.CriterionResult{
					{Name: recommend.CriterionDifficulty, Matched: false, Message: "difficulty is above your usual range"},
				},
			},
		},
	}
}

func TestExplainAllGenerated(t *testing.T) {
	gen := &fakeGenerator{reply: "These trails suit a beginner with medium fitness."}
	enricher := NewEnricher(EnricherConfig{}, gen, zerolog.Nop())

	got := enricher.ExplainAll(context.Background(), testProfile(), testHikeContext(), rankedResult())

	assert.Equal(t, "generated", got.Source)
	assert.Equal(t, gen.reply, got.Summary)
	assert.Contains(t, got.PerTrail["lake-loop"], "difficulty suits your experience")
	assert.Contains(t, got.PerTrail["ridge-walk"], "however difficulty is above your usual range")
}

func TestExplainAllFallbackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("backend down")}
	enricher := NewEnricher(EnricherConfig{}, gen, zerolog.Nop())

	got := enricher.ExplainAll(context.Background(), testProfile(), testHikeContext(), rankedResult())

	assert.Equal(t, "fallback", got.Source)
	assert.Contains(t, got.Summary, "Found 1 trail(s)")
	assert.Contains(t, got.Summary, "180 available minutes")
	require.Len(t, got.PerTrail, 2)
}

func TestExplainAllNilGenerator(t *testing.T) {
	enricher := NewEnricher(EnricherConfig{}, nil, zerolog.Nop())

	got := enricher.ExplainAll(context.Background(), testProfile(), testHikeContext(), rankedResult())

	assert.Equal(t, "fallback", got.Source)
	assert.NotEmpty(t, got.Summary)
}

func TestExplainAllCachesGenerated(t *testing.T) {
	gen := &fakeGenerator{reply: "cached summary"}
	enricher := NewEnricher(EnricherConfig{}, gen, zerolog.Nop())

	user, hctx := testProfile(), testHikeContext()
	first := enricher.ExplainAll(context.Background(), user, hctx, rankedResult())
	second := enricher.ExplainAll(context.Background(), user, hctx, rankedResult())

	assert.Equal(t, "generated", first.Source)
	assert.Equal(t, "cache", second.Source)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, 1, gen.callCount())
}

func TestExplainAllCacheKeyVariesWithResult(t *testing.T) {
	gen := &fakeGenerator{reply: "summary"}
	enricher := NewEnricher(EnricherConfig{}, gen, zerolog.Nop())

	user, hctx := testProfile(), testHikeContext()
	enricher.ExplainAll(context.Background(), user, hctx, rankedResult())

	other := rankedResult()
	other.ExactMatches[0].Relevance = 85
	enricher.ExplainAll(context.Background(), user, hctx, other)

	assert.Equal(t, 2, gen.callCount())
}

func TestFallbackSummaryVariants(t *testing.T) {
	user, hctx := testProfile(), testHikeContext()

	lowConf := &recommend.RankedResult{}
	lowConf.Metadata.LowConfidence = true
	assert.Contains(t, fallbackSummary(user, hctx, lowConf), "popular trails")

	suggestionsOnly := &recommend.RankedResult{Suggestions: rankedResult().Suggestions}
	assert.Contains(t, fallbackSummary(user, hctx, suggestionsOnly), "No exact match")

	relaxed := rankedResult()
	relaxed.Metadata.FallbackLevel = 2
	assert.Contains(t, fallbackSummary(user, hctx, relaxed), "relaxed 2 time(s)")

	empty := &recommend.RankedResult{}
	assert.Equal(t, "No trails matched your criteria.", fallbackSummary(user, hctx, empty))
}

func TestExplainTrailCollaborative(t *testing.T) {
	st := &recommend.ScoredTrail{
		Trail:         recommend.Trail{ID: "t", Name: "Summit Path"},
		Relevance:     68,
		Collaborative: true,
		CollabRating:  4.5,
		CollabUsers:   3,
	}
	got := ExplainTrail(st)
	assert.Contains(t, got, "rated 4.5/5 by 3 similar hiker(s)")
}

func TestExplainTrailEmptyOutcomes(t *testing.T) {
	st := &recommend.ScoredTrail{Trail: recommend.Trail{ID: "t", Name: "Plain Trail"}, Relevance: 55}
	assert.Equal(t, "Plain Trail scores 55% for your profile.", ExplainTrail(st))
}
