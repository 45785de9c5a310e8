// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"fmt"
	"math"
)

// Criterion names. The scorer always evaluates all eight, in this order.
const (
	CriterionDifficulty = "difficulty"
	CriterionDuration   = "duration"
	CriterionDistance   = "distance"
	CriterionElevation  = "elevation"
	CriterionSafety     = "safety"
	CriterionSeason     = "season"
	CriterionLandscape  = "landscape"
	CriterionWeather    = "weather"
)

// neutralScore is contributed by a criterion with no applicable data.
// Scoring never fails; it degrades to neutral.
const neutralScore = 0.5

// CriterionWeights holds the per-criterion weights. Weights are renormalized
// to sum to 1 at scoring time, so they need not sum to anything particular.
type CriterionWeights struct {
	// Safety is the weight for the safety-fit criterion. Default: 2.5.
	Safety float64 `json:"safety" koanf:"safety"`

	// Duration is the weight for the duration-fit criterion. Default: 2.0.
	Duration float64 `json:"duration" koanf:"duration"`

	// Season is the weight for the season-fit criterion. Default: 1.5.
	Season float64 `json:"season" koanf:"season"`

	// Weather is the weight for the weather-preference criterion. Default: 1.5.
	Weather float64 `json:"weather" koanf:"weather"`

	// Difficulty is the weight for the difficulty-fit criterion. Default: 1.5.
	Difficulty float64 `json:"difficulty" koanf:"difficulty"`

	// Elevation is the weight for the elevation-fit criterion. Default: 1.2.
	Elevation float64 `json:"elevation" koanf:"elevation"`

	// Distance is the weight for the distance-fit criterion. Default: 1.0.
	Distance float64 `json:"distance" koanf:"distance"`

	// Landscape is the weight for the landscape-fit criterion. Default: 1.0.
	Landscape float64 `json:"landscape" koanf:"landscape"`
}

// DefaultCriterionWeights returns the documented default weights.
func DefaultCriterionWeights() CriterionWeights {
	return CriterionWeights{
		Safety:     2.5,
		Duration:   2.0,
		Season:     1.5,
		Weather:    1.5,
		Difficulty: 1.5,
		Elevation:  1.2,
		Distance:   1.0,
		Landscape:  1.0,
	}
}

// Sum returns the total of all weights.
func (w CriterionWeights) Sum() float64 {
	return w.Safety + w.Duration + w.Season + w.Weather +
		w.Difficulty + w.Elevation + w.Distance + w.Landscape
}

// Validate rejects negative weights and all-zero weight sets. Invalid weights
// are a configuration error and must prevent startup.
func (w CriterionWeights) Validate() error {
	for name, v := range w.toMap() {
		if v < 0 {
			return fmt.Errorf("criterion weight %s must be non-negative, got %f", name, v)
		}
	}
	if w.Sum() == 0 {
		return fmt.Errorf("criterion weights must not all be zero")
	}
	return nil
}

func (w CriterionWeights) toMap() map[string]float64 {
	return map[string]float64{
		CriterionSafety:     w.Safety,
		CriterionDuration:   w.Duration,
		CriterionSeason:     w.Season,
		CriterionWeather:    w.Weather,
		CriterionDifficulty: w.Difficulty,
		CriterionElevation:  w.Elevation,
		CriterionDistance:   w.Distance,
		CriterionLandscape:  w.Landscape,
	}
}

// TrailScorer evaluates the fixed criterion list for one trail. All criteria
// are pure; the scorer performs no I/O and never errors.
type TrailScorer struct {
	weights CriterionWeights
}

// NewTrailScorer creates a scorer with the given weights.
func NewTrailScorer(weights CriterionWeights) *TrailScorer {
	return &TrailScorer{weights: weights}
}

// Score evaluates all criteria for the trail and returns it with its
// relevance percentage and matched/unmatched criterion lists. forecast may
// be nil (or carry WeatherUnavailable); the weather criterion then
// contributes the neutral score so missing forecasts never shift ranking.
func (s *TrailScorer) Score(trail Trail, user *UserProfile, hctx *HikeContext, forecast *WeatherForecast) ScoredTrail {
	results := []CriterionResult{
		s.difficultyFit(&trail, user),
		s.durationFit(&trail, hctx),
		s.distanceFit(&trail, user),
		s.elevationFit(&trail, user),
		s.safetyFit(&trail, user),
		s.seasonFit(&trail, hctx),
		s.landscapeFit(&trail, user),
		s.weatherFit(&trail, hctx, forecast),
	}

	var weighted, total float64
	scored := ScoredTrail{Trail: trail, Forecast: forecast}
	for _, r := range results {
		weighted += r.Score * r.Weight
		total += r.Weight
		if r.Matched {
			scored.Matched = append(scored.Matched, r)
		} else {
			scored.Unmatched = append(scored.Unmatched, r)
		}
	}

	if total > 0 {
		scored.Relevance = clamp(weighted/total, 0, 1) * 100
	}
	return scored
}

// Rescore recomputes a scored trail with a newly available forecast. Used
// after weather enrichment so the weather criterion reflects real data.
func (s *TrailScorer) Rescore(scored ScoredTrail, user *UserProfile, hctx *HikeContext, forecast *WeatherForecast) ScoredTrail {
	return s.Score(scored.Trail, user, hctx, forecast)
}

// targetDifficulty derives the difficulty the user is comfortable with on
// the catalog's 0-10 scale.
func targetDifficulty(user *UserProfile) float64 {
	var target float64
	switch user.Experience {
	case ExperienceExpert:
		target = 8
	case ExperienceIntermediate:
		target = 5
	default:
		target = 2
	}
	switch user.Fitness {
	case FitnessHigh:
		target++
	case FitnessLow:
		target--
	}
	// Completed history pulls the target toward demonstrated ability.
	if user.Stats.TrailsCompleted >= 5 {
		target = (target + user.Stats.AvgDifficultyCompleted) / 2
	}
	return clamp(target, 0, 10)
}

func (s *TrailScorer) difficultyFit(trail *Trail, user *UserProfile) CriterionResult {
	target := targetDifficulty(user)
	gap := math.Abs(trail.Difficulty - target)
	score := clamp(1-gap/10, 0, 1)
	matched := gap <= 2

	msg := fmt.Sprintf("difficulty %.1f close to your comfortable level of %.1f", trail.Difficulty, target)
	if !matched {
		msg = fmt.Sprintf("difficulty %.1f far from your comfortable level of %.1f", trail.Difficulty, target)
	}
	return CriterionResult{Name: CriterionDifficulty, Matched: matched, Score: score, Weight: s.weights.Difficulty, Message: msg}
}

func (s *TrailScorer) durationFit(trail *Trail, hctx *HikeContext) CriterionResult {
	if hctx.TimeAvailableMinutes <= 0 {
		return CriterionResult{
			Name: CriterionDuration, Matched: true, Score: neutralScore,
			Weight: s.weights.Duration, Message: "no time constraint supplied",
		}
	}

	ratio := float64(trail.DurationMinutes) / float64(hctx.TimeAvailableMinutes)
	var score float64
	switch {
	case ratio <= 1:
		score = 1
	case ratio >= 2:
		score = 0
	default:
		score = 2 - ratio
	}
	matched := ratio <= 1

	msg := fmt.Sprintf("%d min fits your %d min window", trail.DurationMinutes, hctx.TimeAvailableMinutes)
	if !matched {
		msg = fmt.Sprintf("%d min exceeds your %d min window", trail.DurationMinutes, hctx.TimeAvailableMinutes)
	}
	return CriterionResult{Name: CriterionDuration, Matched: matched, Score: score, Weight: s.weights.Duration, Message: msg}
}

// comfortableDistanceKM is the distance the user handles well, by fitness.
func comfortableDistanceKM(fitness FitnessLevel) float64 {
	switch fitness {
	case FitnessHigh:
		return 20
	case FitnessMedium:
		return 12
	default:
		return 6
	}
}

func (s *TrailScorer) distanceFit(trail *Trail, user *UserProfile) CriterionResult {
	limit := comfortableDistanceKM(user.Fitness)
	var score float64
	if trail.DistanceKM <= limit {
		score = 1
	} else {
		score = clamp(1-(trail.DistanceKM-limit)/limit, 0, 1)
	}
	matched := trail.DistanceKM <= limit

	msg := fmt.Sprintf("%.1f km within your comfortable %.0f km", trail.DistanceKM, limit)
	if !matched {
		msg = fmt.Sprintf("%.1f km beyond your comfortable %.0f km", trail.DistanceKM, limit)
	}
	return CriterionResult{Name: CriterionDistance, Matched: matched, Score: score, Weight: s.weights.Distance, Message: msg}
}

// comfortableElevationM is the ascent the user handles well, by fitness.
func comfortableElevationM(fitness FitnessLevel) float64 {
	switch fitness {
	case FitnessHigh:
		return 1500
	case FitnessMedium:
		return 800
	default:
		return 300
	}
}

func (s *TrailScorer) elevationFit(trail *Trail, user *UserProfile) CriterionResult {
	limit := comfortableElevationM(user.Fitness)
	var score float64
	if trail.ElevationGainM <= limit {
		score = 1
	} else {
		score = clamp(1-(trail.ElevationGainM-limit)/limit, 0, 1)
	}
	matched := trail.ElevationGainM <= limit

	msg := fmt.Sprintf("%.0f m ascent within your comfortable %.0f m", trail.ElevationGainM, limit)
	if !matched {
		msg = fmt.Sprintf("%.0f m ascent beyond your comfortable %.0f m", trail.ElevationGainM, limit)
	}
	return CriterionResult{Name: CriterionElevation, Matched: matched, Score: score, Weight: s.weights.Elevation, Message: msg}
}

func (s *TrailScorer) safetyFit(trail *Trail, user *UserProfile) CriterionResult {
	tolerance := user.SafetyTolerance()
	matched := trail.SafetyRisk <= tolerance

	var score float64
	if matched {
		score = 1
	} else {
		// Each level above tolerance costs 0.35; two levels over is near zero.
		over := float64(trail.SafetyRisk - tolerance)
		score = clamp(1-0.35*over, 0, 1)
	}

	msg := fmt.Sprintf("safety risk %s within your tolerance (%s)", trail.SafetyRisk, tolerance)
	if !matched {
		msg = fmt.Sprintf("safety risk %s above your tolerance (%s)", trail.SafetyRisk, tolerance)
	}
	return CriterionResult{Name: CriterionSafety, Matched: matched, Score: score, Weight: s.weights.Safety, Message: msg}
}

func (s *TrailScorer) seasonFit(trail *Trail, hctx *HikeContext) CriterionResult {
	if hctx.Season == SeasonUnknown {
		return CriterionResult{
			Name: CriterionSeason, Matched: true, Score: neutralScore,
			Weight: s.weights.Season, Message: "season not supplied",
		}
	}
	if trail.ClosedIn(hctx.Season) {
		return CriterionResult{
			Name: CriterionSeason, Matched: false, Score: 0,
			Weight:  s.weights.Season,
			Message: fmt.Sprintf("closed in %s", hctx.Season),
		}
	}
	return CriterionResult{
		Name: CriterionSeason, Matched: true, Score: 1,
		Weight:  s.weights.Season,
		Message: fmt.Sprintf("open in %s", hctx.Season),
	}
}

func (s *TrailScorer) landscapeFit(trail *Trail, user *UserProfile) CriterionResult {
	if len(user.LandscapePreferences) == 0 {
		return CriterionResult{
			Name: CriterionLandscape, Matched: true, Score: neutralScore,
			Weight: s.weights.Landscape, Message: "no landscape preference",
		}
	}

	tags := make(map[string]struct{}, len(trail.Landscapes))
	for _, tag := range trail.Landscapes {
		tags[tag] = struct{}{}
	}
	var overlap int
	for _, pref := range user.LandscapePreferences {
		if _, ok := tags[pref]; ok {
			overlap++
		}
	}

	score := float64(overlap) / float64(len(user.LandscapePreferences))
	matched := overlap > 0

	msg := fmt.Sprintf("%d of %d preferred landscapes present", overlap, len(user.LandscapePreferences))
	if !matched {
		msg = "none of your preferred landscapes"
	}
	return CriterionResult{Name: CriterionLandscape, Matched: matched, Score: score, Weight: s.weights.Landscape, Message: msg}
}

func (s *TrailScorer) weatherFit(trail *Trail, hctx *HikeContext, forecast *WeatherForecast) CriterionResult {
	if forecast == nil || forecast.Condition == WeatherUnavailable ||
		hctx.DesiredWeather == WeatherUnavailable || trail.Coordinates == nil {
		return CriterionResult{
			Name: CriterionWeather, Matched: true, Score: neutralScore,
			Weight: s.weights.Weather, Message: "forecast unavailable",
		}
	}

	if forecast.Condition == hctx.DesiredWeather {
		return CriterionResult{
			Name: CriterionWeather, Matched: true, Score: 1,
			Weight:  s.weights.Weather,
			Message: fmt.Sprintf("forecast %s matches your preference", forecast.Condition),
		}
	}

	// Adverse conditions score worse than a mere mismatch.
	score := 0.4
	if forecast.Condition == WeatherRainy || forecast.Condition == WeatherSnowy {
		score = 0.2
	}
	if forecast.Condition == WeatherStormRisk {
		score = 0
	}
	return CriterionResult{
		Name: CriterionWeather, Matched: false, Score: score,
		Weight:  s.weights.Weather,
		Message: fmt.Sprintf("forecast %s, you wanted %s", forecast.Condition, hctx.DesiredWeather),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
