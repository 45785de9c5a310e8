// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package explain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/MatteoBdl31/trailguide/internal/cache"
	"github.com/MatteoBdl31/trailguide/internal/metrics"
	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

// Explanation sources, recorded on every result and in metrics.
const (
	sourceGenerated = "generated"
	sourceFallback  = "fallback"
	sourceCache     = "cache"
)

// EnricherConfig configures the explanation stage.
type EnricherConfig struct {
	// Timeout bounds one generation call. Default: 5s.
	Timeout time.Duration `koanf:"timeout"`

	// CacheSize is the LRU capacity. Default: 500.
	CacheSize int `koanf:"cache_size"`

	// CacheTTL is how long a generated explanation stays valid. Default: 1h.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// MaxPromptTrails caps how many trails the prompt describes. Default: 5.
	MaxPromptTrails int `koanf:"max_prompt_trails"`
}

// DefaultEnricherConfig returns the documented defaults.
func DefaultEnricherConfig() EnricherConfig {
	return EnricherConfig{
		Timeout:         5 * time.Second,
		CacheSize:       500,
		CacheTTL:        time.Hour,
		MaxPromptTrails: 5,
	}
}

// Enricher produces the Explanation for a ranked result. Generated summaries
// are cached by a content hash of the result, so identical result sets share
// one generation call. A nil generator disables generation and every request
// gets the deterministic fallback.
type Enricher struct {
	cfg       EnricherConfig
	generator Generator
	cache     *cache.LRU[recommend.Explanation]
	logger    zerolog.Logger
}

// NewEnricher creates an enricher. generator may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEnricher(cfg EnricherConfig, generator Generator, logger zerolog.Logger) *Enricher {
	def := DefaultEnricherConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.MaxPromptTrails <= 0 {
		cfg.MaxPromptTrails = def.MaxPromptTrails
	}

	return &Enricher{
		cfg:       cfg,
		generator: generator,
		cache:     cache.NewLRU[recommend.Explanation](cfg.CacheSize, cfg.CacheTTL),
		logger:    logger.With().Str("component", "explain").Logger(),
	}
}

// SweepCache removes expired cache entries and returns how many were
// removed. Called periodically by the maintenance janitor.
func (e *Enricher) SweepCache() int {
	return e.cache.RemoveExpired()
}

// ExplainAll builds the explanation for a ranked result. Per-trail rationales
// are always deterministic; the overall summary is generated when a backend
// is configured and reachable, otherwise templated from the same data.
func (e *Enricher) ExplainAll(ctx context.Context, user *recommend.UserProfile, hctx *recommend.HikeContext, result *recommend.RankedResult) recommend.Explanation {
	start := time.Now()

	key := contentKey(user, hctx, result)
	if cached, ok := e.cache.Get(key); ok {
		metrics.RecordCacheLookup("explanation", true)
		cached.Source = sourceCache
		metrics.RecordExplanation(sourceCache, time.Since(start))
		return cached
	}
	metrics.RecordCacheLookup("explanation", false)

	out := recommend.Explanation{
		PerTrail: perTrailRationales(result),
		Source:   sourceFallback,
	}

	if e.generator != nil {
		genCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		summary, err := e.generator.Generate(genCtx, e.buildPrompt(user, hctx, result))
		cancel()
		if err == nil {
			out.Summary = summary
			out.Source = sourceGenerated
			e.cache.Add(key, out)
			metrics.RecordExplanation(sourceGenerated, time.Since(start))
			return out
		}
		e.logger.Warn().Err(err).Msg("explanation generation failed, using fallback")
	}

	// Fallback summaries are deliberately not cached: caching one would
	// shadow a later successful generation for the same result set.
	out.Summary = fallbackSummary(user, hctx, result)
	metrics.RecordExplanation(sourceFallback, time.Since(start))
	return out
}

// contentKey hashes everything the explanation depends on. Two runs that rank
// the same trails at the same relevance for the same profile share an entry.
func contentKey(user *recommend.UserProfile, hctx *recommend.HikeContext, result *recommend.RankedResult) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d|", user.Experience, user.Fitness, user.Profile, hctx.Season, result.Metadata.FallbackLevel)
	for _, st := range result.ExactMatches {
		fmt.Fprintf(h, "e:%s:%.1f|", st.Trail.ID, st.Relevance)
	}
	for _, st := range result.Suggestions {
		fmt.Fprintf(h, "s:%s:%.1f|", st.Trail.ID, st.Relevance)
	}
	for _, rule := range result.FiredRules {
		fmt.Fprintf(h, "r:%s|", rule.ID)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// buildPrompt renders the ranked result as a compact factual brief for the
// completion backend. Only already-computed data goes in; the model is asked
// to phrase, not to reason.
func (e *Enricher) buildPrompt(user *recommend.UserProfile, hctx *recommend.HikeContext, result *recommend.RankedResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hiker: %s experience, %s fitness", user.Experience, user.Fitness)
	if user.FearOfHeights {
		b.WriteString(", afraid of heights")
	}
	if len(user.LandscapePreferences) > 0 {
		fmt.Fprintf(&b, ", prefers %s landscapes", strings.Join(user.LandscapePreferences, ", "))
	}
	fmt.Fprintf(&b, ". Season: %s. Time available: %d minutes.\n", hctx.Season, hctx.TimeAvailableMinutes)

	writeTrails := func(label string, trails []recommend.ScoredTrail) {
		if len(trails) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", label)
		for i, st := range trails {
			if i >= e.cfg.MaxPromptTrails {
				break
			}
			fmt.Fprintf(&b, "- %s (%.0f%% relevance, difficulty %.1f, %.1f km)\n",
				st.Trail.Name, st.Relevance, st.Trail.Difficulty, st.Trail.DistanceKM)
		}
	}
	writeTrails("Exact matches", result.ExactMatches)
	writeTrails("Suggestions", result.Suggestions)

	if result.Metadata.FallbackLevel > 0 {
		fmt.Fprintf(&b, "Filters were relaxed %d time(s) to find enough trails.\n", result.Metadata.FallbackLevel)
	}
	if result.Metadata.LowConfidence {
		b.WriteString("These are popular trails shown because nothing matched the criteria well.\n")
	}

	b.WriteString("Write a 2-3 sentence summary of why these trails suit this hiker.")
	return b.String()
}

// fallbackSummary templates an overall summary from the ranked result alone.
// Deterministic for a given result, so cached and fresh runs read the same.
func fallbackSummary(user *recommend.UserProfile, hctx *recommend.HikeContext, result *recommend.RankedResult) string {
	var b strings.Builder

	switch {
	case result.Metadata.LowConfidence:
		b.WriteString("No trail matched your criteria closely, so these are popular trails other hikers enjoyed.")
	case len(result.ExactMatches) > 0:
		fmt.Fprintf(&b, "Found %d trail(s) matching your %s experience and %s fitness", len(result.ExactMatches), user.Experience, user.Fitness)
		if hctx.TimeAvailableMinutes > 0 {
			fmt.Fprintf(&b, " within your %d available minutes", hctx.TimeAvailableMinutes)
		}
		b.WriteString(".")
	case len(result.Suggestions) > 0:
		fmt.Fprintf(&b, "No exact match, but %d trail(s) come close to your criteria.", len(result.Suggestions))
	default:
		b.WriteString("No trails matched your criteria.")
	}

	if result.Metadata.FallbackLevel > 0 && !result.Metadata.LowConfidence {
		fmt.Fprintf(&b, " Your filters were relaxed %d time(s) to widen the search.", result.Metadata.FallbackLevel)
	}
	return b.String()
}

// perTrailRationales builds a deterministic rationale per trail from the
// criterion outcomes computed during scoring.
func perTrailRationales(result *recommend.RankedResult) map[string]string {
	out := make(map[string]string)
	for _, list := range [][]recommend.ScoredTrail{result.ExactMatches, result.Suggestions, result.CollaborativeTrails} {
		for i := range list {
			st := &list[i]
			if _, done := out[st.Trail.ID]; done {
				continue
			}
			out[st.Trail.ID] = ExplainTrail(st)
		}
	}
	return out
}

// ExplainTrail builds the deterministic rationale for one scored trail from
// its matched and unmatched criterion messages. It never calls the backend.
func ExplainTrail(st *recommend.ScoredTrail) string {
	var parts []string

	for _, c := range st.Matched {
		if c.Message != "" {
			parts = append(parts, c.Message)
		}
	}
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for _, c := range st.Unmatched {
		if c.Message != "" {
			parts = append(parts, "however "+c.Message)
			break
		}
	}

	if st.Collaborative && st.CollabUsers > 0 {
		parts = append(parts, fmt.Sprintf("rated %.1f/5 by %d similar hiker(s)", st.CollabRating, st.CollabUsers))
	}
	if st.LowConfidence {
		parts = append(parts, "shown as a popular alternative")
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%s scores %.0f%% for your profile.", st.Trail.Name, st.Relevance)
	}
	sentence := strings.Join(parts, "; ")
	return strings.ToUpper(sentence[:1]) + sentence[1:] + "."
}
