// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/MatteoBdl31/trailguide/internal/metrics"
	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

// ActiveRules returns the enabled adaptation rules in declaration order.
// Declaration order matters: DisplayMode folding is last-writer-wins.
func (s *Store) ActiveRules(ctx context.Context) ([]recommend.Rule, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, conditions, adaptation FROM rules WHERE enabled ORDER BY position, id`)
	metrics.RecordDBQuery("select", "rules", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var rules []recommend.Rule
	for rows.Next() {
		var (
			rule                   recommend.Rule
			conditions, adaptation string
		)
		if err := rows.Scan(&rule.ID, &rule.Name, &conditions, &adaptation); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshal conditions for rule %s: %w", rule.ID, err)
		}
		if err := json.Unmarshal([]byte(adaptation), &rule.Adaptation); err != nil {
			return nil, fmt.Errorf("unmarshal adaptation for rule %s: %w", rule.ID, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

// InsertRule inserts or replaces one adaptation rule at the given position.
func (s *Store) InsertRule(ctx context.Context, rule *recommend.Rule, position int, enabled bool) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}
	adaptation, err := json.Marshal(rule.Adaptation)
	if err != nil {
		return fmt.Errorf("marshal adaptation: %w", err)
	}

	start := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO rules (id, name, enabled, position, conditions, adaptation)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Name, enabled, position, string(conditions), string(adaptation))
	metrics.RecordDBQuery("insert", "rules", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert rule %s: %w", rule.ID, err)
	}
	return nil
}
