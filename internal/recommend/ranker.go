// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"sort"
)

// RankOutcome is the result of one ranking pass over a scored candidate set.
type RankOutcome struct {
	// ExactMatches and Suggestions are the two ordered survivor lists.
	ExactMatches []ScoredTrail
	Suggestions  []ScoredTrail

	// Disqualified counts trails removed by hard filters. They appear in
	// neither list.
	Disqualified int
}

// Survivors returns the total number of trails across both lists.
func (o *RankOutcome) Survivors() int {
	return len(o.ExactMatches) + len(o.Suggestions)
}

// TrailRanker applies hard filters and classifies survivors into exact
// matches and suggestions. It is pure: no I/O, deterministic output.
//
// Progressive fallback is driven by the engine, which relaxes the FilterSet
// and re-fetches candidates between ranking passes; the ranker itself only
// ever ranks one candidate set.
type TrailRanker struct{}

// NewTrailRanker creates a TrailRanker.
func NewTrailRanker() *TrailRanker {
	return &TrailRanker{}
}

// Rank applies hard filters, splits survivors at the given relevance
// threshold, and orders both lists by relevance desc, popularity desc,
// trail ID asc for full determinism.
func (r *TrailRanker) Rank(scored []ScoredTrail, fs FilterSet, user *UserProfile, hctx *HikeContext, threshold float64) RankOutcome {
	var out RankOutcome

	for _, st := range scored {
		if disqualified(&st, fs, user, hctx) {
			out.Disqualified++
			continue
		}

		if st.Relevance >= threshold && !st.FailedCritical() {
			st.Recommended = true
			out.ExactMatches = append(out.ExactMatches, st)
		} else {
			st.Suggested = true
			out.Suggestions = append(out.Suggestions, st)
		}
	}

	sortByRelevance(out.ExactMatches)
	sortByRelevance(out.Suggestions)
	return out
}

// PopularityFallback returns the top n trails by popularity from the scored
// set, ignoring every filter, flagged low-confidence. Used only when all
// fallback levels are exhausted and the always-return policy is enabled.
func (r *TrailRanker) PopularityFallback(scored []ScoredTrail, n int) []ScoredTrail {
	out := make([]ScoredTrail, len(scored))
	copy(out, scored)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Trail.Popularity != out[j].Trail.Popularity {
			return out[i].Trail.Popularity > out[j].Trail.Popularity
		}
		return out[i].Trail.ID < out[j].Trail.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Suggested = true
		out[i].LowConfidence = true
	}
	return out
}

// disqualified applies the hard (disqualifying) filters: season closure,
// safety above tolerance, storm risk with fear of heights, and FilterSet
// bound excess. Disqualified trails appear in neither result list.
func disqualified(st *ScoredTrail, fs FilterSet, user *UserProfile, hctx *HikeContext) bool {
	t := &st.Trail

	if t.ClosedIn(hctx.Season) {
		return true
	}
	for _, season := range fs.ExcludedSeasons {
		if t.ClosedIn(season) {
			return true
		}
	}
	if t.SafetyRisk > fs.MaxSafetyRisk || t.SafetyRisk > user.SafetyTolerance() {
		return true
	}
	if user.FearOfHeights && st.Forecast != nil && st.Forecast.Condition == WeatherStormRisk {
		return true
	}
	if t.Difficulty > fs.MaxDifficulty ||
		t.DistanceKM > fs.MaxDistanceKM ||
		t.DurationMinutes > fs.MaxDurationMinutes {
		return true
	}
	return false
}

// sortByRelevance orders trails by relevance desc, popularity desc, ID asc.
func sortByRelevance(trails []ScoredTrail) {
	sort.SliceStable(trails, func(i, j int) bool {
		if trails[i].Relevance != trails[j].Relevance {
			return trails[i].Relevance > trails[j].Relevance
		}
		if trails[i].Trail.Popularity != trails[j].Trail.Popularity {
			return trails[i].Trail.Popularity > trails[j].Trail.Popularity
		}
		return trails[i].Trail.ID < trails[j].Trail.ID
	})
}
