// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MatteoBdl31/trailguide/internal/metrics"
	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

// CompletionsByProfile returns completions recorded by users carrying the
// given behavioral profile label.
func (s *Store) CompletionsByProfile(ctx context.Context, label recommend.ProfileLabel) ([]recommend.CompletionRecord, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx,
		`SELECT trail_id, user_id, rating FROM completions WHERE profile = ? ORDER BY completed_at`,
		label.String())
	metrics.RecordDBQuery("select", "completions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("completions by profile: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var records []recommend.CompletionRecord
	for rows.Next() {
		var rec recommend.CompletionRecord
		if err := rows.Scan(&rec.TrailID, &rec.UserID, &rec.Rating); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return records, nil
}

// CompletedTrailIDs returns the distinct trail IDs the user has completed.
func (s *Store) CompletedTrailIDs(ctx context.Context, userID string) ([]string, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT trail_id FROM completions WHERE user_id = ? ORDER BY trail_id`, userID)
	metrics.RecordDBQuery("select", "completions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("completed trail ids: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan trail id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trail ids: %w", err)
	}
	return ids, nil
}

// RecordCompletion stores one trail completion with the user's profile label
// at completion time.
func (s *Store) RecordCompletion(ctx context.Context, trailID, userID string, profile recommend.ProfileLabel, rating float64) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO completions (id, trail_id, user_id, profile, rating) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), trailID, userID, profile.String(), rating)
	metrics.RecordDBQuery("insert", "completions", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}
