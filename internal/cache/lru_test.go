// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetAdd(t *testing.T) {
	c := NewLRU[string](10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Add("k1", "v1")
	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	// Update keeps a single entry.
	c.Add("k1", "v2")
	got, _ = c.Get("k1")
	assert.Equal(t, "v2", got)
	assert.Equal(t, 1, c.Len())
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Add("d", 4)

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, c.Len())
}

func TestLRUTTLExpiry(t *testing.T) {
	c := NewLRU[int](10, 20*time.Millisecond)
	c.Add("k", 42)

	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRURemoveExpired(t *testing.T) {
	c := NewLRU[int](10, 20*time.Millisecond)
	c.Add("a", 1)
	c.Add("b", 2)

	time.Sleep(30 * time.Millisecond)
	c.Add("c", 3)

	removed := c.RemoveExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("c")
	assert.True(t, ok)
}

func TestLRUStats(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Add("k", 1)
	c.Get("k")
	c.Get("nope")

	hits, misses, size := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, size)
}

func TestLRUClear(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRUDefaults(t *testing.T) {
	c := NewLRU[int](0, 0)
	c.Add("k", 1)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewLRU[int](100, time.Minute)
	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("k%d", j%20)
				c.Add(key, n*j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 100)
}
