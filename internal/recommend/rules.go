// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"strconv"
	"strings"
)

// Operator is a rule condition operator.
type Operator int

const (
	// OpEqual compares for equality (numeric or case-insensitive string).
	OpEqual Operator = iota
	// OpLessOrEqual compares numerically.
	OpLessOrEqual
	// OpGreaterOrEqual compares numerically.
	OpGreaterOrEqual
	// OpContains tests set membership on set-valued attributes.
	OpContains
)

// String returns the operator's wire representation.
func (o Operator) String() string {
	switch o {
	case OpLessOrEqual:
		return "<="
	case OpGreaterOrEqual:
		return ">="
	case OpContains:
		return "CONTAINS"
	default:
		return "="
	}
}

// ParseOperator parses an operator's wire representation. The second return
// value reports whether the input was recognized.
func ParseOperator(s string) (Operator, bool) {
	switch s {
	case "=":
		return OpEqual, true
	case "<=":
		return OpLessOrEqual, true
	case ">=":
		return OpGreaterOrEqual, true
	case "CONTAINS":
		return OpContains, true
	default:
		return OpEqual, false
	}
}

// Condition is one rule condition: attribute OP value. Conditions within a
// rule combine with logical AND. A condition over a missing or unknown
// attribute evaluates to false, never errors.
type Condition struct {
	// Attribute is a dotted path into the user profile or hike context,
	// e.g. "user.experience" or "context.time_available".
	Attribute string `json:"attribute"`

	// Operator is one of =, <=, >=, CONTAINS.
	Operator Operator `json:"operator"`

	// Value is the literal to compare against, as a string. Numeric
	// attributes parse it as a float; enum attributes compare by name.
	Value string `json:"value"`
}

// Adaptation describes the filter mutations and display hints applied when a
// rule fires. Nil fields leave the corresponding bound untouched.
type Adaptation struct {
	MaxDifficulty      *float64    `json:"max_difficulty,omitempty"`
	MaxDistanceKM      *float64    `json:"max_distance_km,omitempty"`
	MaxDurationMinutes *int        `json:"max_duration_minutes,omitempty"`
	MaxSafetyRisk      *SafetyRisk `json:"max_safety_risk,omitempty"`
	ExcludeSeasons     []Season    `json:"exclude_seasons,omitempty"`
	DisplayMode        *string     `json:"display_mode,omitempty"`
}

// Rule is one declarative adaptation rule. Rules are read-only inputs owned
// by the rule store; the pipeline never mutates them.
type Rule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Adaptation Adaptation  `json:"adaptation"`
}

// attrValue is the typed value of an attribute, produced by the accessor map.
type attrValue struct {
	num   float64
	str   string
	set   []string
	isNum bool
	isSet bool
}

func numAttr(v float64) attrValue  { return attrValue{num: v, isNum: true} }
func strAttr(v string) attrValue   { return attrValue{str: v} }
func setAttr(v []string) attrValue { return attrValue{set: v, isSet: true} }

// attrAccessors maps attribute paths to typed accessors. Conditions over
// attributes absent from this table evaluate to false. Extending the rule
// vocabulary means adding a row here, nothing else.
var attrAccessors = map[string]func(u *UserProfile, c *HikeContext) (attrValue, bool){
	"user.experience": func(u *UserProfile, _ *HikeContext) (attrValue, bool) {
		return strAttr(u.Experience.String()), true
	},
	"user.fitness": func(u *UserProfile, _ *HikeContext) (attrValue, bool) {
		return strAttr(u.Fitness.String()), true
	},
	"user.fear_of_heights": func(u *UserProfile, _ *HikeContext) (attrValue, bool) {
		return strAttr(strconv.FormatBool(u.FearOfHeights)), true
	},
	"user.profile": func(u *UserProfile, _ *HikeContext) (attrValue, bool) {
		return strAttr(u.Profile.String()), true
	},
	"user.landscapes": func(u *UserProfile, _ *HikeContext) (attrValue, bool) {
		return setAttr(u.LandscapePreferences), len(u.LandscapePreferences) > 0
	},
	"user.trails_completed": func(u *UserProfile, _ *HikeContext) (attrValue, bool) {
		return numAttr(float64(u.Stats.TrailsCompleted)), true
	},
	"user.avg_difficulty": func(u *UserProfile, _ *HikeContext) (attrValue, bool) {
		return numAttr(u.Stats.AvgDifficultyCompleted), u.Stats.TrailsCompleted > 0
	},
	"user.activity_frequency": func(u *UserProfile, _ *HikeContext) (attrValue, bool) {
		return numAttr(u.Stats.ActivityFrequency), true
	},
	"context.time_available": func(_ *UserProfile, c *HikeContext) (attrValue, bool) {
		return numAttr(float64(c.TimeAvailableMinutes)), c.TimeAvailableMinutes > 0
	},
	"context.device": func(_ *UserProfile, c *HikeContext) (attrValue, bool) {
		return strAttr(c.Device), c.Device != ""
	},
	"context.connectivity": func(_ *UserProfile, c *HikeContext) (attrValue, bool) {
		return strAttr(c.Connectivity), c.Connectivity != ""
	},
	"context.season": func(_ *UserProfile, c *HikeContext) (attrValue, bool) {
		return strAttr(c.Season.String()), c.Season != SeasonUnknown
	},
	"context.desired_weather": func(_ *UserProfile, c *HikeContext) (attrValue, bool) {
		return strAttr(c.DesiredWeather.String()), c.DesiredWeather != WeatherUnavailable
	},
}

// evalCondition evaluates one condition against user and context.
// Missing attributes and type mismatches evaluate to false.
func evalCondition(cond Condition, user *UserProfile, hctx *HikeContext) bool {
	accessor, ok := attrAccessors[cond.Attribute]
	if !ok {
		return false
	}
	val, present := accessor(user, hctx)
	if !present {
		return false
	}

	switch cond.Operator {
	case OpContains:
		if !val.isSet {
			return false
		}
		want := strings.ToLower(strings.TrimSpace(cond.Value))
		for _, member := range val.set {
			if strings.ToLower(member) == want {
				return true
			}
		}
		return false

	case OpLessOrEqual, OpGreaterOrEqual:
		if !val.isNum {
			return false
		}
		lit, err := strconv.ParseFloat(cond.Value, 64)
		if err != nil {
			return false
		}
		if cond.Operator == OpLessOrEqual {
			return val.num <= lit
		}
		return val.num >= lit

	default: // OpEqual
		if val.isNum {
			lit, err := strconv.ParseFloat(cond.Value, 64)
			if err != nil {
				return false
			}
			return val.num == lit
		}
		if val.isSet {
			return false
		}
		return strings.EqualFold(val.str, strings.TrimSpace(cond.Value))
	}
}

// fires reports whether every condition of the rule holds. A rule with no
// conditions never fires; an unconditional adaptation belongs in config, not
// in the rule store.
func (r *Rule) fires(user *UserProfile, hctx *HikeContext) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, cond := range r.Conditions {
		if !evalCondition(cond, user, hctx) {
			return false
		}
	}
	return true
}

// FilterBuilder folds rule adaptations into a FilterSet. It is pure and
// deterministic: identical inputs always produce identical outputs.
type FilterBuilder struct{}

// NewFilterBuilder creates a FilterBuilder.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{}
}

// Build evaluates every rule in declaration order and applies the adaptations
// of the rules that fire. Bounds only ever tighten: a looser bound from a
// later rule never overrides a tighter one already applied. DisplayMode is
// last-writer-wins, excluded seasons accumulate as a set.
func (b *FilterBuilder) Build(user *UserProfile, hctx *HikeContext, rules []Rule) (FilterSet, []Rule) {
	fs := NewFilterSet()
	fired := make([]Rule, 0, len(rules))

	for _, rule := range rules {
		if !rule.fires(user, hctx) {
			continue
		}
		fired = append(fired, rule)
		applyAdaptation(&fs, &rule.Adaptation)
	}

	return fs, fired
}

// applyAdaptation merges one adaptation into the filter set under the
// tightening policy.
func applyAdaptation(fs *FilterSet, a *Adaptation) {
	if a.MaxDifficulty != nil && *a.MaxDifficulty < fs.MaxDifficulty {
		fs.MaxDifficulty = *a.MaxDifficulty
	}
	if a.MaxDistanceKM != nil && *a.MaxDistanceKM < fs.MaxDistanceKM {
		fs.MaxDistanceKM = *a.MaxDistanceKM
	}
	if a.MaxDurationMinutes != nil && *a.MaxDurationMinutes < fs.MaxDurationMinutes {
		fs.MaxDurationMinutes = *a.MaxDurationMinutes
	}
	if a.MaxSafetyRisk != nil && *a.MaxSafetyRisk < fs.MaxSafetyRisk {
		fs.MaxSafetyRisk = *a.MaxSafetyRisk
	}
	for _, season := range a.ExcludeSeasons {
		if !fs.Excludes(season) {
			fs.ExcludedSeasons = append(fs.ExcludedSeasons, season)
		}
	}
	if a.DisplayMode != nil {
		fs.DisplayMode = *a.DisplayMode
	}
}
