// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package weather

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/MatteoBdl31/trailguide/internal/metrics"
	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

// forecastKeyPrefix namespaces forecast entries in BadgerDB.
const forecastKeyPrefix = "forecast:"

// ForecastCache is a BadgerDB-backed forecast cache keyed by rounded
// coordinates and date. Entries expire via Badger's native TTL, so a
// forecast is re-fetched at most once per position per TTL window.
type ForecastCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenCache opens a forecast cache at the given path. An empty path opens an
// in-memory database, used in tests and ephemeral deployments.
func OpenCache(path string, ttl time.Duration) (*ForecastCache, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open forecast cache: %w", err)
	}
	return &ForecastCache{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (c *ForecastCache) Close() error {
	return c.db.Close()
}

// GC runs one value-log garbage collection pass. Badger reports
// ErrNoRewrite when there was nothing to collect; that is not an error.
func (c *ForecastCache) GC() error {
	err := c.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// cacheKey rounds coordinates to 3 decimals (~110 m) so nearby trailheads
// share one forecast entry.
func cacheKey(lat, lon float64, date time.Time) []byte {
	return []byte(fmt.Sprintf("%s%.3f:%.3f:%s", forecastKeyPrefix, lat, lon, date.UTC().Format("2006-01-02")))
}

// Get returns the cached condition for a position and date, if present and
// not expired.
func (c *ForecastCache) Get(lat, lon float64, date time.Time) (recommend.WeatherCondition, bool) {
	var condition recommend.WeatherCondition

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(lat, lon, date))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &condition)
		})
	})

	hit := err == nil
	metrics.RecordCacheLookup("weather", hit)
	if !hit {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return recommend.WeatherUnavailable, false
		}
		return recommend.WeatherUnavailable, false
	}
	return condition, true
}

// Set stores a condition with the cache TTL. Unavailable conditions are not
// cached so a transient provider failure does not suppress retries for the
// whole TTL window.
func (c *ForecastCache) Set(lat, lon float64, date time.Time, condition recommend.WeatherCondition) error {
	if condition == recommend.WeatherUnavailable {
		return nil
	}

	data, err := json.Marshal(condition)
	if err != nil {
		return fmt.Errorf("marshal condition: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(lat, lon, date), data).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
}
