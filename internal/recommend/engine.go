// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

// Package recommend implements the trail recommendation pipeline: rule-driven
// filter construction, weighted criterion scoring, hard-filter ranking with
// progressive fallback, weather enrichment, collaborative recommendations and
// explanation generation.
//
// The package has no dependencies on other internal packages; external
// collaborators (catalog, rule store, completion store, weather, explanation)
// are injected through interfaces so the pipeline can be tested in isolation.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RuleSource supplies the ordered adaptation rules. Implemented by the
// storage layer.
type RuleSource interface {
	// ActiveRules returns the active rules in declaration order.
	ActiveRules(ctx context.Context) ([]Rule, error)
}

// Catalog is the trail catalog query interface. Implemented by the storage
// layer.
type Catalog interface {
	// FilterTrails returns trails satisfying the filter set's bounds.
	FilterTrails(ctx context.Context, fs FilterSet) ([]Trail, error)

	// TrailsByIDs returns the trails with the given IDs; unknown IDs are
	// silently omitted.
	TrailsByIDs(ctx context.Context, ids []string) ([]Trail, error)
}

// WeatherProvider fetches forecasts for the top-scored candidates. A nil
// provider, a failed call or a missing key all degrade to "unavailable";
// enrichment never fails the pipeline.
type WeatherProvider interface {
	// Enrich returns forecasts keyed by trail ID for up to maxTrails of the
	// given candidates (highest relevance first).
	Enrich(ctx context.Context, trails []ScoredTrail, hikeDate time.Time, maxTrails int) map[string]WeatherForecast
}

// Explainer produces the natural-language rationale for a result. It must
// always return a usable Explanation; internal failures degrade to a
// deterministic fallback.
type Explainer interface {
	ExplainAll(ctx context.Context, user *UserProfile, hctx *HikeContext, result *RankedResult) Explanation
}

// Options are per-request pipeline options.
type Options struct {
	// Strict selects the stricter business threshold for exact matches.
	Strict bool `json:"strict,omitempty"`

	// Debug includes stage timings in the response metadata.
	Debug bool `json:"debug,omitempty"`
}

// Result is the composed pipeline output.
type Result struct {
	RankedResult
	Explanation Explanation `json:"explanation"`
}

// Engine orchestrates the recommendation pipeline. It is safe for concurrent
// use; all per-request state lives on the stack.
type Engine struct {
	cfg     *Config
	logger  zerolog.Logger
	rules   RuleSource
	catalog Catalog
	weather WeatherProvider
	explain Explainer
	collab  *CollabService

	builder *FilterBuilder
	scorer  *TrailScorer
	ranker  *TrailRanker
}

// NewEngine creates an engine. rules and catalog are required; weather,
// explain and completion store are optional and degrade gracefully when nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger, rules RuleSource, catalog Catalog, completions CompletionStore, weather WeatherProvider, explain Explainer) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if rules == nil || catalog == nil {
		return nil, fmt.Errorf("rule source and catalog are required")
	}

	e := &Engine{
		cfg:     cfg,
		logger:  logger.With().Str("component", "engine").Logger(),
		rules:   rules,
		catalog: catalog,
		weather: weather,
		explain: explain,
		builder: NewFilterBuilder(),
		scorer:  NewTrailScorer(cfg.Weights),
		ranker:  NewTrailRanker(),
	}
	if completions != nil {
		e.collab = NewCollabService(cfg.Collab, completions, catalog, logger)
	}
	return e, nil
}

// Recommend runs the full pipeline for one request.
//
// The only error paths are rule store and catalog failures; weather,
// explanation and collaborative failures degrade to warnings per the error
// taxonomy, and an exhausted fallback with always-return disabled yields an
// empty (not nil) result.
func (e *Engine) Recommend(ctx context.Context, user *UserProfile, hctx *HikeContext, opts Options) (*Result, error) {
	requestID := uuid.NewString()
	dbg := newDebugger()
	logger := e.logger.With().Str("request_id", requestID).Str("user_id", user.ID).Logger()
	logger.Debug().Msg("processing recommendation request")

	// Stage 1: rule evaluation and filter construction. Pure.
	endStage := dbg.Stage("filter_build")
	rules, err := e.rules.ActiveRules(ctx)
	if err != nil {
		endStage()
		return nil, fmt.Errorf("load rules: %w", err)
	}
	baseFilter, fired := e.builder.Build(user, hctx, rules)
	endStage()

	threshold := e.cfg.Ranking.ExactMatchThreshold
	if opts.Strict {
		threshold = e.cfg.Ranking.StrictMatchThreshold
	}

	// Stages 2-5: candidate fetch, scoring, weather enrichment and ranking,
	// re-run under progressively relaxed bounds while too few survive.
	outcome, scored, level, err := e.rankWithFallback(ctx, baseFilter, user, hctx, threshold, dbg, logger)
	if err != nil {
		return nil, err
	}
	dbg.SetFallbackLevel(level)

	if outcome.Survivors() < e.cfg.Ranking.MinResults && e.cfg.Ranking.AlwaysReturn {
		popular := e.popularityFallback(ctx, scored, user, hctx, dbg)
		if len(popular) > 0 {
			outcome.Suggestions = append(outcome.Suggestions, dedupeAgainst(popular, outcome)...)
			dbg.MarkLowConfidence()
			dbg.Warn("popularity fallback engaged: filters exhausted below minimum result count")
			logger.Debug().Int("popular", len(popular)).Msg("popularity fallback engaged")
		}
	}

	truncate(&outcome.ExactMatches, e.cfg.Ranking.MaxResults)
	truncate(&outcome.Suggestions, e.cfg.Ranking.MaxResults)

	result := &Result{
		RankedResult: RankedResult{
			ExactMatches:        outcome.ExactMatches,
			Suggestions:         outcome.Suggestions,
			CollaborativeTrails: []ScoredTrail{},
			FiredRules:          fired,
		},
	}

	// Stage 6: collaborative integration.
	e.integrateCollaborative(ctx, user, hctx, result, dbg, logger)

	// Stage 7: explanation generation.
	if e.explain != nil {
		endStage = dbg.Stage("explanation")
		result.Explanation = e.explain.ExplainAll(ctx, user, hctx, &result.RankedResult)
		endStage()
		attachRationales(result)
	}

	result.Metadata = dbg.Metadata(requestID, opts.Debug)
	logger.Debug().
		Int("exact", len(result.ExactMatches)).
		Int("suggestions", len(result.Suggestions)).
		Int("collaborative", len(result.CollaborativeTrails)).
		Int("fallback_level", result.Metadata.FallbackLevel).
		Int64("latency_ms", result.Metadata.LatencyMS).
		Msg("recommendation complete")

	return result, nil
}

// rankWithFallback runs fetch -> score -> enrich -> rank, relaxing the
// filter set one level at a time while the survivor count stays below the
// configured minimum. The relaxation level never decreases and the loop
// terminates within MaxFallbackLevels.
func (e *Engine) rankWithFallback(ctx context.Context, baseFilter FilterSet, user *UserProfile, hctx *HikeContext, threshold float64, dbg *PipelineDebugger, logger zerolog.Logger) (RankOutcome, []ScoredTrail, int, error) {
	fs := baseFilter
	var outcome RankOutcome
	var scored []ScoredTrail

	for level := 0; ; level++ {
		endStage := dbg.Stage(fmt.Sprintf("candidates_l%d", level))
		candidates, err := e.catalog.FilterTrails(ctx, fs)
		endStage()
		if err != nil {
			return RankOutcome{}, nil, level, fmt.Errorf("filter trails: %w", err)
		}

		endStage = dbg.Stage(fmt.Sprintf("scoring_l%d", level))
		scored = make([]ScoredTrail, 0, len(candidates))
		for _, trail := range candidates {
			scored = append(scored, e.scorer.Score(trail, user, hctx, nil))
		}
		endStage()

		e.enrichWeather(ctx, scored, user, hctx, dbg)

		endStage = dbg.Stage(fmt.Sprintf("ranking_l%d", level))
		outcome = e.ranker.Rank(scored, fs, user, hctx, threshold)
		endStage()

		if outcome.Survivors() >= e.cfg.Ranking.MinResults {
			return outcome, scored, level, nil
		}
		if level >= e.cfg.Ranking.MaxFallbackLevels {
			return outcome, scored, level, nil
		}

		fs = fs.Relax(e.cfg.Ranking.RelaxFactor)
		logger.Debug().
			Int("level", level+1).
			Int("survivors", outcome.Survivors()).
			Msg("relaxing filter bounds")
	}
}

// popularityFallback returns the most popular trails from the whole catalog,
// ignoring every filter. The relaxed candidate sets may be empty when the
// rules pinned a bound below every trail in the catalog, so the fallback
// re-fetches with fully permissive bounds.
func (e *Engine) popularityFallback(ctx context.Context, scored []ScoredTrail, user *UserProfile, hctx *HikeContext, dbg *PipelineDebugger) []ScoredTrail {
	endStage := dbg.Stage("popularity_fallback")
	defer endStage()

	pool := scored
	if len(pool) == 0 {
		all, err := e.catalog.FilterTrails(ctx, NewFilterSet())
		if err != nil {
			dbg.Warn("popularity fallback catalog fetch failed: " + err.Error())
			return nil
		}
		pool = make([]ScoredTrail, 0, len(all))
		for _, trail := range all {
			pool = append(pool, e.scorer.Score(trail, user, hctx, nil))
		}
	}
	return e.ranker.PopularityFallback(pool, e.cfg.Ranking.PopularFallbackCount)
}

// enrichWeather fetches forecasts for the top-scored candidates and rescores
// them so the weather criterion reflects real data. Sorting here only picks
// which trails get a forecast; ranking order is decided later by the ranker.
func (e *Engine) enrichWeather(ctx context.Context, scored []ScoredTrail, user *UserProfile, hctx *HikeContext, dbg *PipelineDebugger) {
	if e.weather == nil || len(scored) == 0 || e.cfg.Enrichment.MaxWeatherTrails == 0 {
		return
	}

	endStage := dbg.Stage("weather")
	defer endStage()

	enrichCtx, cancel := context.WithTimeout(ctx, e.cfg.Enrichment.Deadline)
	defer cancel()

	forecasts := e.weather.Enrich(enrichCtx, scored, hctx.HikeDate, e.cfg.Enrichment.MaxWeatherTrails)
	if len(forecasts) == 0 {
		dbg.Warn("weather enrichment returned no forecasts")
		return
	}

	for i := range scored {
		fc, ok := forecasts[scored[i].Trail.ID]
		if !ok {
			continue
		}
		scored[i] = e.scorer.Rescore(scored[i], user, hctx, &fc)
	}
}

// integrateCollaborative applies the collaborative integration rule: annotate
// overlapping trails in place, append a bounded number of new collaborative
// trails to the suggestions, and put the remainder on the supplementary list.
func (e *Engine) integrateCollaborative(ctx context.Context, user *UserProfile, hctx *HikeContext, result *Result, dbg *PipelineDebugger, logger zerolog.Logger) {
	if e.collab == nil {
		return
	}

	endStage := dbg.Stage("collaborative")
	defer endStage()

	limit := e.cfg.Collab.MaxAppend + e.cfg.Collab.MaxSupplementary +
		len(result.ExactMatches) + len(result.Suggestions)
	collabTrails, err := e.collab.Recommend(ctx, user, nil, limit)
	if err != nil {
		dbg.Warn("collaborative recommendations unavailable: " + err.Error())
		logger.Warn().Err(err).Msg("collaborative recommendation failed")
		return
	}

	appended := 0
	for _, ct := range collabTrails {
		if annotate(result.ExactMatches, ct) || annotate(result.Suggestions, ct) {
			continue
		}
		st := e.scorer.Score(ct.Trail, user, hctx, nil)
		st.Collaborative = true
		st.CollabRating = ct.AvgRating
		st.CollabUsers = ct.UserCount

		if appended < e.cfg.Collab.MaxAppend {
			st.Suggested = true
			result.Suggestions = append(result.Suggestions, st)
			appended++
			continue
		}
		if len(result.CollaborativeTrails) < e.cfg.Collab.MaxSupplementary {
			result.CollaborativeTrails = append(result.CollaborativeTrails, st)
		}
	}
}

// annotate marks a trail already present in the list as collaborative.
func annotate(trails []ScoredTrail, ct CollabTrail) bool {
	for i := range trails {
		if trails[i].Trail.ID == ct.Trail.ID {
			trails[i].Collaborative = true
			trails[i].CollabRating = ct.AvgRating
			trails[i].CollabUsers = ct.UserCount
			return true
		}
	}
	return false
}

// dedupeAgainst removes popular-fallback trails already present in the
// outcome's lists.
func dedupeAgainst(popular []ScoredTrail, outcome RankOutcome) []ScoredTrail {
	seen := make(map[string]struct{}, outcome.Survivors())
	for _, st := range outcome.ExactMatches {
		seen[st.Trail.ID] = struct{}{}
	}
	for _, st := range outcome.Suggestions {
		seen[st.Trail.ID] = struct{}{}
	}
	out := popular[:0]
	for _, st := range popular {
		if _, dup := seen[st.Trail.ID]; !dup {
			out = append(out, st)
		}
	}
	return out
}

// attachRationales copies per-trail explanation texts onto the trails.
func attachRationales(result *Result) {
	if len(result.Explanation.PerTrail) == 0 {
		return
	}
	for _, list := range [][]ScoredTrail{result.ExactMatches, result.Suggestions, result.CollaborativeTrails} {
		for i := range list {
			if text, ok := result.Explanation.PerTrail[list[i].Trail.ID]; ok {
				list[i].Rationale = text
			}
		}
	}
}

func truncate(trails *[]ScoredTrail, n int) {
	if n > 0 && len(*trails) > n {
		*trails = (*trails)[:n]
	}
}
