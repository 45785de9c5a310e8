// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "trails"))

	RecordDBQuery("select", "trails", 10*time.Millisecond, nil)
	assert.InDelta(t, before, testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "trails")), 1e-9)

	RecordDBQuery("select", "trails", 10*time.Millisecond, errors.New("boom"))
	assert.InDelta(t, before+1, testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "trails")), 1e-9)
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/recommendations", "200"))
	RecordAPIRequest("POST", "/api/v1/recommendations", "200", 50*time.Millisecond)
	assert.InDelta(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/recommendations", "200")), 1e-9)
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	assert.InDelta(t, before+1, testutil.ToFloat64(APIActiveRequests), 1e-9)
	TrackActiveRequest(false)
	assert.InDelta(t, before, testutil.ToFloat64(APIActiveRequests), 1e-9)
}

func TestRecordPipelineRun(t *testing.T) {
	okBefore := testutil.ToFloat64(PipelineRuns.WithLabelValues("ok"))
	lowBefore := testutil.ToFloat64(PipelineRuns.WithLabelValues("low_confidence"))
	errBefore := testutil.ToFloat64(PipelineRuns.WithLabelValues("error"))

	RecordPipelineRun(100*time.Millisecond, 0, false, nil)
	RecordPipelineRun(100*time.Millisecond, 3, true, nil)
	RecordPipelineRun(100*time.Millisecond, 0, false, errors.New("boom"))

	assert.InDelta(t, okBefore+1, testutil.ToFloat64(PipelineRuns.WithLabelValues("ok")), 1e-9)
	assert.InDelta(t, lowBefore+1, testutil.ToFloat64(PipelineRuns.WithLabelValues("low_confidence")), 1e-9)
	assert.InDelta(t, errBefore+1, testutil.ToFloat64(PipelineRuns.WithLabelValues("error")), 1e-9)
}

func TestRecordCacheLookup(t *testing.T) {
	hitsBefore := testutil.ToFloat64(CacheHits.WithLabelValues("weather"))
	missesBefore := testutil.ToFloat64(CacheMisses.WithLabelValues("weather"))

	RecordCacheLookup("weather", true)
	RecordCacheLookup("weather", false)

	assert.InDelta(t, hitsBefore+1, testutil.ToFloat64(CacheHits.WithLabelValues("weather")), 1e-9)
	assert.InDelta(t, missesBefore+1, testutil.ToFloat64(CacheMisses.WithLabelValues("weather")), 1e-9)
}

func TestRecordExplanation(t *testing.T) {
	before := testutil.ToFloat64(ExplanationsTotal.WithLabelValues("fallback"))
	RecordExplanation("fallback", 5*time.Millisecond)
	assert.InDelta(t, before+1, testutil.ToFloat64(ExplanationsTotal.WithLabelValues("fallback")), 1e-9)
}
