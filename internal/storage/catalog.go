// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/MatteoBdl31/trailguide/internal/metrics"
	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

const trailColumns = `id, name, difficulty, distance_km, duration_minutes, elevation_gain_m,
	landscapes, popularity, safety_risk, closed_seasons, trail_type,
	latitude, longitude, elevation_profile`

// FilterTrails returns the catalog trails within the filter's numeric and
// safety bounds. Season closures are not applied here: the ranker needs the
// full candidate set to disqualify with a recorded reason.
func (s *Store) FilterTrails(ctx context.Context, fs recommend.FilterSet) ([]recommend.Trail, error) {
	start := time.Now()

	query := `SELECT ` + trailColumns + `
		FROM trails
		WHERE difficulty <= ? AND distance_km <= ? AND duration_minutes <= ?
		ORDER BY popularity DESC, id`
	rows, err := s.db.QueryContext(ctx, query, fs.MaxDifficulty, fs.MaxDistanceKM, fs.MaxDurationMinutes)
	metrics.RecordDBQuery("select", "trails", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("filter trails: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	trails, err := scanTrails(rows)
	if err != nil {
		return nil, err
	}

	// Safety is an ordered enum stored by name, so the bound is applied
	// after scanning rather than in SQL.
	out := trails[:0]
	for _, t := range trails {
		if t.SafetyRisk <= fs.MaxSafetyRisk {
			out = append(out, t)
		}
	}
	return out, nil
}

// TrailsByIDs returns the trails with the given IDs. Unknown IDs are
// silently absent from the result.
func (s *Store) TrailsByIDs(ctx context.Context, ids []string) ([]recommend.Trail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	start := time.Now()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT ` + trailColumns + ` FROM trails WHERE id IN (` + placeholders + `) ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "trails", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("trails by ids: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	return scanTrails(rows)
}

// InsertTrail inserts or replaces one catalog trail.
func (s *Store) InsertTrail(ctx context.Context, t *recommend.Trail) error {
	landscapes, err := json.Marshal(t.Landscapes)
	if err != nil {
		return fmt.Errorf("marshal landscapes: %w", err)
	}
	closedSeasons, err := json.Marshal(seasonNames(t.ClosedSeasons))
	if err != nil {
		return fmt.Errorf("marshal closed seasons: %w", err)
	}

	var lat, lon any
	if t.Coordinates != nil {
		lat, lon = t.Coordinates.Latitude, t.Coordinates.Longitude
	}
	var profile any
	if len(t.ElevationProfile) > 0 {
		data, err := json.Marshal(t.ElevationProfile)
		if err != nil {
			return fmt.Errorf("marshal elevation profile: %w", err)
		}
		profile = string(data)
	}

	start := time.Now()
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO trails
		(id, name, difficulty, distance_km, duration_minutes, elevation_gain_m,
		 landscapes, popularity, safety_risk, closed_seasons, trail_type,
		 latitude, longitude, elevation_profile)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Difficulty, t.DistanceKM, t.DurationMinutes, t.ElevationGainM,
		string(landscapes), t.Popularity, t.SafetyRisk.String(), string(closedSeasons), t.Type.String(),
		lat, lon, profile)
	metrics.RecordDBQuery("insert", "trails", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert trail %s: %w", t.ID, err)
	}
	return nil
}

func scanTrails(rows *sql.Rows) ([]recommend.Trail, error) {
	var trails []recommend.Trail
	for rows.Next() {
		var (
			t                recommend.Trail
			landscapes       string
			safetyRisk       string
			closedSeasons    string
			trailType        string
			lat, lon         sql.NullFloat64
			elevationProfile sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Difficulty, &t.DistanceKM, &t.DurationMinutes,
			&t.ElevationGainM, &landscapes, &t.Popularity, &safetyRisk, &closedSeasons,
			&trailType, &lat, &lon, &elevationProfile); err != nil {
			return nil, fmt.Errorf("scan trail: %w", err)
		}

		if err := json.Unmarshal([]byte(landscapes), &t.Landscapes); err != nil {
			return nil, fmt.Errorf("unmarshal landscapes for %s: %w", t.ID, err)
		}
		var seasonStrs []string
		if err := json.Unmarshal([]byte(closedSeasons), &seasonStrs); err != nil {
			return nil, fmt.Errorf("unmarshal closed seasons for %s: %w", t.ID, err)
		}
		for _, name := range seasonStrs {
			t.ClosedSeasons = append(t.ClosedSeasons, recommend.ParseSeason(name))
		}

		t.SafetyRisk = recommend.ParseSafetyRisk(safetyRisk)
		t.Type = recommend.ParseTrailType(trailType)
		if lat.Valid && lon.Valid {
			t.Coordinates = &recommend.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		if elevationProfile.Valid && elevationProfile.String != "" {
			if err := json.Unmarshal([]byte(elevationProfile.String), &t.ElevationProfile); err != nil {
				return nil, fmt.Errorf("unmarshal elevation profile for %s: %w", t.ID, err)
			}
		}

		trails = append(trails, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trails: %w", err)
	}
	return trails, nil
}

func seasonNames(seasons []recommend.Season) []string {
	out := make([]string, len(seasons))
	for i, s := range seasons {
		out[i] = s.String()
	}
	return out
}
