// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package recommend

import (
	"sync"
	"time"
)

// PipelineDebugger records stage timings, warnings and the fallback level
// consumed during one pipeline run. It is always active; the engine decides
// whether the collected stage timings are exposed to the caller.
// Safe for concurrent use: enrichment stages may warn from worker goroutines.
type PipelineDebugger struct {
	mu            sync.Mutex
	start         time.Time
	stages        []StageTiming
	warnings      []string
	fallbackLevel int
	lowConfidence bool
}

// newDebugger starts a debugger for one run.
func newDebugger() *PipelineDebugger {
	return &PipelineDebugger{start: time.Now()}
}

// Stage starts timing a named stage and returns a function that ends it.
//
//	defer dbg.Stage("scoring")()
func (d *PipelineDebugger) Stage(name string) func() {
	begin := time.Now()
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.stages = append(d.stages, StageTiming{
			Stage:      name,
			DurationMS: time.Since(begin).Milliseconds(),
		})
	}
}

// Warn records a degraded behavior encountered during the run.
func (d *PipelineDebugger) Warn(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.warnings = append(d.warnings, msg)
}

// SetFallbackLevel records the deepest filter relaxation level used.
func (d *PipelineDebugger) SetFallbackLevel(level int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if level > d.fallbackLevel {
		d.fallbackLevel = level
	}
}

// MarkLowConfidence records that the popularity fallback produced results.
func (d *PipelineDebugger) MarkLowConfidence() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lowConfidence = true
}

// Metadata assembles the run metadata. Stage timings are included only when
// debug is set; fallback level and warnings are always reported.
func (d *PipelineDebugger) Metadata(requestID string, debug bool) RunMetadata {
	d.mu.Lock()
	defer d.mu.Unlock()

	md := RunMetadata{
		RequestID:     requestID,
		FallbackLevel: d.fallbackLevel,
		LowConfidence: d.lowConfidence,
		LatencyMS:     time.Since(d.start).Milliseconds(),
		Warnings:      append([]string(nil), d.warnings...),
		Timestamp:     time.Now(),
	}
	if debug {
		md.Stages = append([]StageTiming(nil), d.stages...)
	}
	return md
}
