// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package weather

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

// EnricherConfig configures the forecast enrichment worker pool.
type EnricherConfig struct {
	// MaxConcurrent bounds parallel provider calls. Default: 20.
	MaxConcurrent int64 `koanf:"max_concurrent"`

	// PerCallTimeout bounds each individual provider call. Default: 3s.
	PerCallTimeout time.Duration `koanf:"per_call_timeout"`
}

// DefaultEnricherConfig returns the documented defaults.
func DefaultEnricherConfig() EnricherConfig {
	return EnricherConfig{
		MaxConcurrent:  20,
		PerCallTimeout: 3 * time.Second,
	}
}

// Enricher fetches forecasts for the top-scored candidates through a bounded
// worker pool. It implements the pipeline's weather provider contract:
// failures and timeouts produce missing entries, never errors, and trails
// are never dropped by enrichment.
type Enricher struct {
	cfg      EnricherConfig
	provider Provider
	cache    *ForecastCache
	sem      *semaphore.Weighted
	logger   zerolog.Logger
}

// NewEnricher creates an enricher. cache may be nil to disable caching.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEnricher(cfg EnricherConfig, provider Provider, cache *ForecastCache, logger zerolog.Logger) *Enricher {
	def := DefaultEnricherConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.PerCallTimeout <= 0 {
		cfg.PerCallTimeout = def.PerCallTimeout
	}

	return &Enricher{
		cfg:      cfg,
		provider: provider,
		cache:    cache,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
		logger:   logger.With().Str("component", "weather").Logger(),
	}
}

// Enrich fetches forecasts for up to maxTrails of the given candidates,
// highest relevance first, and returns them keyed by trail ID. Trails
// without coordinates are skipped. The caller bounds the whole batch through
// ctx; calls that miss the deadline simply leave their trail without a
// forecast.
func (e *Enricher) Enrich(ctx context.Context, trails []recommend.ScoredTrail, hikeDate time.Time, maxTrails int) map[string]recommend.WeatherForecast {
	candidates := topCandidates(trails, maxTrails)
	if len(candidates) == 0 {
		return nil
	}
	groups := groupByPosition(candidates)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]recommend.WeatherForecast, len(candidates))
	)

	for _, group := range groups {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			// Deadline hit while queueing; the remaining trails stay
			// un-enriched.
			break
		}

		wg.Add(1)
		go func(group positionGroup) {
			defer wg.Done()
			defer e.sem.Release(1)

			condition, ok := e.fetchOne(ctx, group.coords, hikeDate)
			if !ok {
				return
			}

			mu.Lock()
			for _, trailID := range group.trailIDs {
				out[trailID] = recommend.WeatherForecast{
					TrailID:   trailID,
					Condition: condition,
					Date:      hikeDate,
				}
			}
			mu.Unlock()
		}(group)
	}

	wg.Wait()
	e.logger.Debug().
		Int("requested", len(candidates)).
		Int("positions", len(groups)).
		Int("fetched", len(out)).
		Msg("weather enrichment complete")
	return out
}

// positionGroup collects the trail IDs sharing one rounded position.
type positionGroup struct {
	coords   recommend.Coordinates
	trailIDs []string
}

// groupByPosition merges candidates whose coordinates round to the same cache
// position, so each position is fetched at most once per batch. Groups keep
// the order in which their position first appears in the ranked candidates.
func groupByPosition(candidates []recommend.ScoredTrail) []positionGroup {
	index := make(map[string]int, len(candidates))
	groups := make([]positionGroup, 0, len(candidates))
	for _, st := range candidates {
		coords := *st.Trail.Coordinates
		key := fmt.Sprintf("%.3f:%.3f", coords.Latitude, coords.Longitude)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, positionGroup{coords: coords})
		}
		groups[i].trailIDs = append(groups[i].trailIDs, st.Trail.ID)
	}
	return groups
}

// fetchOne resolves one forecast through the cache, falling back to the
// provider under the per-call timeout.
func (e *Enricher) fetchOne(ctx context.Context, coords recommend.Coordinates, hikeDate time.Time) (recommend.WeatherCondition, bool) {
	if e.cache != nil {
		if condition, hit := e.cache.Get(coords.Latitude, coords.Longitude, hikeDate); hit {
			return condition, true
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.PerCallTimeout)
	defer cancel()

	condition, err := e.provider.Forecast(callCtx, coords.Latitude, coords.Longitude, hikeDate)
	if err != nil {
		e.logger.Warn().Err(err).
			Float64("lat", coords.Latitude).
			Float64("lon", coords.Longitude).
			Msg("forecast fetch failed")
		return recommend.WeatherUnavailable, false
	}

	if e.cache != nil {
		if err := e.cache.Set(coords.Latitude, coords.Longitude, hikeDate, condition); err != nil {
			e.logger.Warn().Err(err).Msg("forecast cache write failed")
		}
	}
	return condition, true
}

// topCandidates returns up to maxTrails trails with coordinates, ordered by
// relevance desc then trail ID asc. The input slice is not modified.
func topCandidates(trails []recommend.ScoredTrail, maxTrails int) []recommend.ScoredTrail {
	eligible := make([]recommend.ScoredTrail, 0, len(trails))
	for _, st := range trails {
		if st.Trail.Coordinates != nil {
			eligible = append(eligible, st)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Relevance != eligible[j].Relevance {
			return eligible[i].Relevance > eligible[j].Relevance
		}
		return eligible[i].Trail.ID < eligible[j].Trail.ID
	})

	if maxTrails > 0 && len(eligible) > maxTrails {
		eligible = eligible[:maxTrails]
	}
	return eligible
}
