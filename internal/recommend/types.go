// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"time"
)

// SafetyRisk is the ordered safety-risk level of a trail.
// The ordering matters: none < low < medium < high.
type SafetyRisk int

const (
	// SafetyNone indicates no notable hazard on the trail.
	SafetyNone SafetyRisk = iota
	// SafetyLow indicates minor hazards (loose gravel, short steep steps).
	SafetyLow
	// SafetyMedium indicates sustained exposure or scrambling sections.
	SafetyMedium
	// SafetyHigh indicates serious exposure, via ferrata or glacier travel.
	SafetyHigh
)

// String returns a human-readable name for the safety risk.
func (s SafetyRisk) String() string {
	switch s {
	case SafetyNone:
		return "none"
	case SafetyLow:
		return "low"
	case SafetyMedium:
		return "medium"
	case SafetyHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseSafetyRisk parses a safety-risk name. Unknown names map to SafetyHigh
// so malformed catalog data is never treated as safer than it is.
func ParseSafetyRisk(s string) SafetyRisk {
	switch s {
	case "none":
		return SafetyNone
	case "low":
		return SafetyLow
	case "medium":
		return SafetyMedium
	default:
		return SafetyHigh
	}
}

// Season identifies a hiking season.
type Season int

const (
	// SeasonUnknown means the season was not supplied with the request.
	SeasonUnknown Season = iota
	// SeasonSpring is March-May.
	SeasonSpring
	// SeasonSummer is June-August.
	SeasonSummer
	// SeasonAutumn is September-November.
	SeasonAutumn
	// SeasonWinter is December-February.
	SeasonWinter
)

// String returns a human-readable season name.
func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "spring"
	case SeasonSummer:
		return "summer"
	case SeasonAutumn:
		return "autumn"
	case SeasonWinter:
		return "winter"
	default:
		return "unknown"
	}
}

// ParseSeason parses a season name; unrecognized input yields SeasonUnknown.
func ParseSeason(s string) Season {
	switch s {
	case "spring":
		return SeasonSpring
	case "summer":
		return SeasonSummer
	case "autumn", "fall":
		return SeasonAutumn
	case "winter":
		return SeasonWinter
	default:
		return SeasonUnknown
	}
}

// TrailType distinguishes loop trails from one-way trails.
type TrailType int

const (
	// TrailLoop returns to its starting point.
	TrailLoop TrailType = iota
	// TrailOneWay ends away from its starting point.
	TrailOneWay
)

// String returns a human-readable trail-type name.
func (t TrailType) String() string {
	if t == TrailOneWay {
		return "one_way"
	}
	return "loop"
}

// ParseTrailType parses a trail-type name; unrecognized input yields TrailLoop.
func ParseTrailType(s string) TrailType {
	if s == "one_way" || s == "one-way" {
		return TrailOneWay
	}
	return TrailLoop
}

// WeatherCondition is a normalized forecast condition.
type WeatherCondition int

const (
	// WeatherUnavailable means no forecast could be obtained.
	WeatherUnavailable WeatherCondition = iota
	// WeatherSunny is clear or mostly clear sky.
	WeatherSunny
	// WeatherCloudy is overcast without precipitation.
	WeatherCloudy
	// WeatherRainy is rain or drizzle.
	WeatherRainy
	// WeatherSnowy is snowfall.
	WeatherSnowy
	// WeatherStormRisk is thunderstorm risk. Combined with a user's fear of
	// heights it disqualifies the trail outright.
	WeatherStormRisk
)

// String returns a human-readable condition name.
func (w WeatherCondition) String() string {
	switch w {
	case WeatherSunny:
		return "sunny"
	case WeatherCloudy:
		return "cloudy"
	case WeatherRainy:
		return "rainy"
	case WeatherSnowy:
		return "snowy"
	case WeatherStormRisk:
		return "storm_risk"
	default:
		return "unavailable"
	}
}

// ParseWeatherCondition parses a condition name; unrecognized input yields
// WeatherUnavailable.
func ParseWeatherCondition(s string) WeatherCondition {
	switch s {
	case "sunny":
		return WeatherSunny
	case "cloudy":
		return WeatherCloudy
	case "rainy":
		return WeatherRainy
	case "snowy":
		return WeatherSnowy
	case "storm_risk":
		return WeatherStormRisk
	default:
		return WeatherUnavailable
	}
}

// ProfileLabel is the behavioral profile inferred by the external profiling
// subsystem. The set is closed; unknown labels map to ProfileCasual.
type ProfileLabel int

const (
	// ProfileCasual hikes occasionally, short easy trails.
	ProfileCasual ProfileLabel = iota
	// ProfileRegular hikes most weeks at moderate difficulty.
	ProfileRegular
	// ProfileAthletic favors long, demanding trails.
	ProfileAthletic
	// ProfileExplorer favors novelty and varied landscapes.
	ProfileExplorer
	// ProfileContemplative favors scenic, low-intensity trails.
	ProfileContemplative
)

// String returns a human-readable profile name.
func (p ProfileLabel) String() string {
	switch p {
	case ProfileRegular:
		return "regular"
	case ProfileAthletic:
		return "athletic"
	case ProfileExplorer:
		return "explorer"
	case ProfileContemplative:
		return "contemplative"
	default:
		return "casual"
	}
}

// ParseProfileLabel parses a profile label. The second return value reports
// whether the label was recognized; unrecognized labels map to ProfileCasual.
func ParseProfileLabel(s string) (ProfileLabel, bool) {
	switch s {
	case "casual":
		return ProfileCasual, true
	case "regular":
		return ProfileRegular, true
	case "athletic":
		return ProfileAthletic, true
	case "explorer":
		return ProfileExplorer, true
	case "contemplative":
		return ProfileContemplative, true
	default:
		return ProfileCasual, false
	}
}

// ExperienceLevel is the user's self-reported hiking experience.
type ExperienceLevel int

const (
	// ExperienceBeginner has little or no hiking experience.
	ExperienceBeginner ExperienceLevel = iota
	// ExperienceIntermediate hikes regularly on marked trails.
	ExperienceIntermediate
	// ExperienceExpert handles technical and exposed terrain.
	ExperienceExpert
)

// String returns a human-readable experience name.
func (e ExperienceLevel) String() string {
	switch e {
	case ExperienceIntermediate:
		return "intermediate"
	case ExperienceExpert:
		return "expert"
	default:
		return "beginner"
	}
}

// ParseExperienceLevel parses an experience name; unrecognized input yields
// ExperienceBeginner.
func ParseExperienceLevel(s string) ExperienceLevel {
	switch s {
	case "intermediate":
		return ExperienceIntermediate
	case "expert":
		return ExperienceExpert
	default:
		return ExperienceBeginner
	}
}

// FitnessLevel is the user's self-reported fitness.
type FitnessLevel int

const (
	// FitnessLow tires on sustained climbs or long distances.
	FitnessLow FitnessLevel = iota
	// FitnessMedium handles half-day hikes comfortably.
	FitnessMedium
	// FitnessHigh handles full-day mountain hikes.
	FitnessHigh
)

// String returns a human-readable fitness name.
func (f FitnessLevel) String() string {
	switch f {
	case FitnessMedium:
		return "medium"
	case FitnessHigh:
		return "high"
	default:
		return "low"
	}
}

// ParseFitnessLevel parses a fitness name; unrecognized input yields FitnessLow.
func ParseFitnessLevel(s string) FitnessLevel {
	switch s {
	case "medium":
		return FitnessMedium
	case "high":
		return FitnessHigh
	default:
		return FitnessLow
	}
}

// Coordinates is a WGS84 geographic position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Trail is one geographic trail record from the catalog.
// Trails are immutable for the lifetime of a pipeline run.
type Trail struct {
	// ID uniquely identifies the trail in the catalog.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Difficulty is a continuous difficulty rating on a 0-10 scale.
	Difficulty float64 `json:"difficulty"`

	// DistanceKM is the trail length in kilometers.
	DistanceKM float64 `json:"distance_km"`

	// DurationMinutes is the estimated walking time in minutes.
	DurationMinutes int `json:"duration_minutes"`

	// ElevationGainM is the cumulative ascent in meters.
	ElevationGainM float64 `json:"elevation_gain_m"`

	// Landscapes is the set of landscape tags (forest, lake, ridge, ...).
	Landscapes []string `json:"landscapes,omitempty"`

	// Popularity is a pre-computed popularity score (higher is more popular).
	Popularity float64 `json:"popularity"`

	// SafetyRisk is the trail's hazard level.
	SafetyRisk SafetyRisk `json:"safety_risk"`

	// ClosedSeasons lists seasons during which the trail is closed.
	ClosedSeasons []Season `json:"closed_seasons,omitempty"`

	// Type distinguishes loop from one-way trails.
	Type TrailType `json:"type"`

	// Coordinates is the trailhead position. Nil when the catalog record has
	// no geometry; weather enrichment is skipped for such trails.
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	// ElevationProfile is an optional sampled elevation series in meters.
	ElevationProfile []float64 `json:"elevation_profile,omitempty"`
}

// ClosedIn reports whether the trail is closed during the given season.
func (t *Trail) ClosedIn(season Season) bool {
	if season == SeasonUnknown {
		return false
	}
	for _, s := range t.ClosedSeasons {
		if s == season {
			return true
		}
	}
	return false
}

// PerformanceStats are the requester's aggregate completion statistics,
// produced by the external profiling subsystem.
type PerformanceStats struct {
	TrailsCompleted          int     `json:"trails_completed"`
	AvgDifficultyCompleted   float64 `json:"avg_difficulty_completed"`
	Persistence              float64 `json:"persistence"`
	ExplorationLevel         float64 `json:"exploration_level"`
	AvgCompletionTimeMinutes float64 `json:"avg_completion_time_minutes"`
	ActivityFrequency        float64 `json:"activity_frequency"`
}

// UserProfile is the requester's profile as supplied by the request layer.
type UserProfile struct {
	ID                   string           `json:"id"`
	Experience           ExperienceLevel  `json:"experience"`
	Fitness              FitnessLevel     `json:"fitness"`
	FearOfHeights        bool             `json:"fear_of_heights"`
	LandscapePreferences []string         `json:"landscape_preferences,omitempty"`
	Stats                PerformanceStats `json:"stats"`
	Profile              ProfileLabel     `json:"profile"`
}

// SafetyTolerance returns the highest safety risk the user should be exposed
// to, derived from experience and lowered one level by fear of heights.
func (u *UserProfile) SafetyTolerance() SafetyRisk {
	var tol SafetyRisk
	switch u.Experience {
	case ExperienceExpert:
		tol = SafetyHigh
	case ExperienceIntermediate:
		tol = SafetyMedium
	default:
		tol = SafetyLow
	}
	if u.FearOfHeights && tol > SafetyNone {
		tol--
	}
	return tol
}

// HikeContext is the situational context of one request. It is never
// persisted by the pipeline.
type HikeContext struct {
	// HikeDate is the planned start of the hike.
	HikeDate time.Time `json:"hike_date"`

	// HikeDateEnd is the planned end of the hike window.
	HikeDateEnd time.Time `json:"hike_date_end"`

	// TimeAvailableMinutes is how long the user has, in minutes.
	TimeAvailableMinutes int `json:"time_available_minutes"`

	// Device is the requesting device class (mobile, desktop, watch).
	Device string `json:"device,omitempty"`

	// DesiredWeather is the weather the user hopes for.
	DesiredWeather WeatherCondition `json:"desired_weather"`

	// Connectivity is the connection quality (offline, poor, good).
	Connectivity string `json:"connectivity,omitempty"`

	// Season is the current hiking season.
	Season Season `json:"season"`
}

// FilterSet is the resolved set of catalog filter bounds produced by folding
// the adaptations of all fired rules. Tighter bounds always win over looser
// ones; DisplayMode is last-writer-wins in rule declaration order.
type FilterSet struct {
	// MaxDifficulty is the difficulty ceiling (0-10 scale).
	MaxDifficulty float64 `json:"max_difficulty"`

	// MaxDistanceKM is the distance ceiling in kilometers.
	MaxDistanceKM float64 `json:"max_distance_km"`

	// MaxDurationMinutes is the duration ceiling in minutes.
	MaxDurationMinutes int `json:"max_duration_minutes"`

	// MaxSafetyRisk is the highest acceptable safety risk.
	MaxSafetyRisk SafetyRisk `json:"max_safety_risk"`

	// ExcludedSeasons lists seasons whose closed trails must not surface.
	ExcludedSeasons []Season `json:"excluded_seasons,omitempty"`

	// DisplayMode is a display hint for the presentation layer.
	DisplayMode string `json:"display_mode,omitempty"`
}

// Unbounded ceilings for a FilterSet before any rule fires.
const (
	UnboundedDifficulty = 10.0
	UnboundedDistanceKM = 10000.0
	UnboundedDurationM  = 100000
)

// NewFilterSet returns a fully permissive FilterSet.
func NewFilterSet() FilterSet {
	return FilterSet{
		MaxDifficulty:      UnboundedDifficulty,
		MaxDistanceKM:      UnboundedDistanceKM,
		MaxDurationMinutes: UnboundedDurationM,
		MaxSafetyRisk:      SafetyHigh,
	}
}

// Relax returns a copy with the numeric bounds widened by the given factor
// (0.5 widens by 50%). Safety and season bounds are never relaxed; they are
// hard constraints.
func (f FilterSet) Relax(factor float64) FilterSet {
	out := f
	out.MaxDifficulty = minFloat(f.MaxDifficulty*(1+factor), UnboundedDifficulty)
	out.MaxDistanceKM = minFloat(f.MaxDistanceKM*(1+factor), UnboundedDistanceKM)
	d := float64(f.MaxDurationMinutes) * (1 + factor)
	if d > UnboundedDurationM {
		d = UnboundedDurationM
	}
	out.MaxDurationMinutes = int(d)
	return out
}

// Excludes reports whether the given season is excluded by the filter set.
func (f FilterSet) Excludes(season Season) bool {
	for _, s := range f.ExcludedSeasons {
		if s == season {
			return true
		}
	}
	return false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// CriterionResult is the outcome of one scoring criterion for one trail.
type CriterionResult struct {
	// Name identifies the criterion (difficulty, duration, ...).
	Name string `json:"name"`

	// Matched reports whether the trail satisfies the criterion.
	Matched bool `json:"matched"`

	// Score is the normalized criterion score in [0, 1].
	Score float64 `json:"score"`

	// Weight is the configured criterion weight used for this run.
	Weight float64 `json:"weight"`

	// Message is a human-readable outcome, consumed by explanations.
	Message string `json:"message"`
}

// ScoredTrail is a trail plus its computed relevance and criterion outcomes.
type ScoredTrail struct {
	Trail Trail `json:"trail"`

	// Relevance is the weighted relevance percentage in [0, 100].
	Relevance float64 `json:"relevance"`

	// Matched and Unmatched partition the criterion results.
	Matched   []CriterionResult `json:"matched,omitempty"`
	Unmatched []CriterionResult `json:"unmatched,omitempty"`

	// View tags. Non-exclusive: a trail may carry several.
	Recommended   bool `json:"recommended,omitempty"`
	Suggested     bool `json:"suggested,omitempty"`
	Collaborative bool `json:"collaborative,omitempty"`

	// LowConfidence marks trails surfaced by the popularity fallback.
	LowConfidence bool `json:"low_confidence,omitempty"`

	// Forecast is the enriched weather forecast, when available.
	Forecast *WeatherForecast `json:"forecast,omitempty"`

	// CollabRating and CollabUsers carry aggregate collaborative metadata
	// when Collaborative is set.
	CollabRating float64 `json:"collab_rating,omitempty"`
	CollabUsers  int     `json:"collab_users,omitempty"`

	// Rationale is the per-trail explanation text, when generated.
	Rationale string `json:"rationale,omitempty"`
}

// FailedCritical reports whether any critical criterion (safety, season) is
// among the unmatched criteria.
func (s *ScoredTrail) FailedCritical() bool {
	for _, c := range s.Unmatched {
		if c.Name == CriterionSafety || c.Name == CriterionSeason {
			return true
		}
	}
	return false
}

// WeatherForecast is a normalized forecast for one trail on one date.
type WeatherForecast struct {
	TrailID   string           `json:"trail_id"`
	Condition WeatherCondition `json:"condition"`
	Date      time.Time        `json:"date"`
}

// StageTiming records the wall-clock duration of one pipeline stage.
type StageTiming struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms"`
}

// RunMetadata is diagnostic metadata attached to a RankedResult.
type RunMetadata struct {
	// RequestID is the unique pipeline-run identifier.
	RequestID string `json:"request_id"`

	// FallbackLevel is the deepest filter relaxation level used (0 = none).
	FallbackLevel int `json:"fallback_level"`

	// LowConfidence is set when the popularity fallback produced results.
	LowConfidence bool `json:"low_confidence"`

	// LatencyMS is the total pipeline latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Stages holds per-stage timings. Populated only in debug mode.
	Stages []StageTiming `json:"stages,omitempty"`

	// Warnings lists degraded behaviors encountered during the run.
	Warnings []string `json:"warnings,omitempty"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// RankedResult is the composed output of the pipeline.
type RankedResult struct {
	// ExactMatches are trails meeting the exact-match contract, best first.
	ExactMatches []ScoredTrail `json:"exact_matches"`

	// Suggestions are surviving trails below the threshold, best first.
	Suggestions []ScoredTrail `json:"suggestions"`

	// CollaborativeTrails is the supplementary "popular with similar users"
	// list, deduplicated against the two lists above.
	CollaborativeTrails []ScoredTrail `json:"collaborative_trails"`

	// FiredRules lists the rules that fired during filter construction.
	FiredRules []Rule `json:"fired_rules"`

	// Metadata is the run's diagnostic metadata.
	Metadata RunMetadata `json:"metadata"`
}

// Explanation is the natural-language rationale attached to a result.
type Explanation struct {
	// Summary is the overall free-text summary.
	Summary string `json:"summary"`

	// PerTrail maps trail IDs to their individual rationales.
	PerTrail map[string]string `json:"per_trail,omitempty"`

	// Source records how the explanation was produced:
	// "generated", "fallback" or "cache".
	Source string `json:"source"`
}
