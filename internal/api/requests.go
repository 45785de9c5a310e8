// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package api

import (
	"time"

	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

// RecommendationRequest is the POST /api/v1/recommendations body. Enum
// fields arrive as their wire names and are validated before parsing;
// parsing itself never fails (unknown values map to conservative defaults).
type RecommendationRequest struct {
	User    UserProfileRequest `json:"user" validate:"required"`
	Context HikeContextRequest `json:"context" validate:"required"`
	Options OptionsRequest     `json:"options"`
}

// UserProfileRequest is the requester's profile as supplied by the client.
type UserProfileRequest struct {
	ID                   string   `json:"id" validate:"required,max=128"`
	Experience           string   `json:"experience" validate:"omitempty,oneof=beginner intermediate expert"`
	Fitness              string   `json:"fitness" validate:"omitempty,oneof=low medium high"`
	FearOfHeights        bool     `json:"fear_of_heights"`
	LandscapePreferences []string `json:"landscape_preferences" validate:"max=20,dive,max=64"`
	Profile              string   `json:"profile" validate:"omitempty,oneof=casual regular athletic explorer contemplative"`

	Stats PerformanceStatsRequest `json:"stats"`
}

// PerformanceStatsRequest carries the aggregate completion statistics
// computed by the profiling subsystem.
type PerformanceStatsRequest struct {
	TrailsCompleted          int     `json:"trails_completed" validate:"min=0"`
	AvgDifficultyCompleted   float64 `json:"avg_difficulty_completed" validate:"min=0,max=10"`
	Persistence              float64 `json:"persistence" validate:"min=0,max=1"`
	ExplorationLevel         float64 `json:"exploration_level" validate:"min=0,max=1"`
	AvgCompletionTimeMinutes float64 `json:"avg_completion_time_minutes" validate:"min=0"`
	ActivityFrequency        float64 `json:"activity_frequency" validate:"min=0"`
}

// HikeContextRequest is the situational context of the request.
type HikeContextRequest struct {
	HikeDate             time.Time `json:"hike_date"`
	HikeDateEnd          time.Time `json:"hike_date_end"`
	TimeAvailableMinutes int       `json:"time_available_minutes" validate:"min=0,max=100000"`
	Device               string    `json:"device" validate:"omitempty,oneof=mobile desktop watch"`
	DesiredWeather       string    `json:"desired_weather" validate:"omitempty,oneof=sunny cloudy rainy snowy storm_risk"`
	Connectivity         string    `json:"connectivity" validate:"omitempty,oneof=offline poor good"`
	Season               string    `json:"season" validate:"omitempty,oneof=spring summer autumn winter"`
}

// OptionsRequest carries per-request pipeline options.
type OptionsRequest struct {
	Strict bool `json:"strict"`
	Debug  bool `json:"debug"`
}

// CompletionRequest is the POST /api/v1/completions body.
type CompletionRequest struct {
	TrailID string  `json:"trail_id" validate:"required,max=128"`
	UserID  string  `json:"user_id" validate:"required,max=128"`
	Profile string  `json:"profile" validate:"omitempty,oneof=casual regular athletic explorer contemplative"`
	Rating  float64 `json:"rating" validate:"min=0,max=5"`
}

// toUserProfile converts the validated request to the pipeline's profile.
func (r *UserProfileRequest) toUserProfile() *recommend.UserProfile {
	profile, _ := recommend.ParseProfileLabel(r.Profile)
	return &recommend.UserProfile{
		ID:                   r.ID,
		Experience:           recommend.ParseExperienceLevel(r.Experience),
		Fitness:              recommend.ParseFitnessLevel(r.Fitness),
		FearOfHeights:        r.FearOfHeights,
		LandscapePreferences: r.LandscapePreferences,
		Profile:              profile,
		Stats: recommend.PerformanceStats{
			TrailsCompleted:          r.Stats.TrailsCompleted,
			AvgDifficultyCompleted:   r.Stats.AvgDifficultyCompleted,
			Persistence:              r.Stats.Persistence,
			ExplorationLevel:         r.Stats.ExplorationLevel,
			AvgCompletionTimeMinutes: r.Stats.AvgCompletionTimeMinutes,
			ActivityFrequency:        r.Stats.ActivityFrequency,
		},
	}
}

// toHikeContext converts the validated request to the pipeline's context.
// A missing hike date defaults to now; a missing season is derived from the
// hike date's month.
func (r *HikeContextRequest) toHikeContext() *recommend.HikeContext {
	hikeDate := r.HikeDate
	if hikeDate.IsZero() {
		hikeDate = time.Now()
	}

	season := recommend.ParseSeason(r.Season)
	if season == recommend.SeasonUnknown {
		season = seasonOf(hikeDate)
	}

	return &recommend.HikeContext{
		HikeDate:             hikeDate,
		HikeDateEnd:          r.HikeDateEnd,
		TimeAvailableMinutes: r.TimeAvailableMinutes,
		Device:               r.Device,
		DesiredWeather:       recommend.ParseWeatherCondition(r.DesiredWeather),
		Connectivity:         r.Connectivity,
		Season:               season,
	}
}

func seasonOf(date time.Time) recommend.Season {
	switch date.Month() {
	case time.March, time.April, time.May:
		return recommend.SeasonSpring
	case time.June, time.July, time.August:
		return recommend.SeasonSummer
	case time.September, time.October, time.November:
		return recommend.SeasonAutumn
	default:
		return recommend.SeasonWinter
	}
}
