// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

// Package weather fetches and caches daily forecasts for trailheads and
// enriches scored trails with them. Forecast retrieval is best-effort: every
// failure degrades to "unavailable" and never fails a recommendation run.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/MatteoBdl31/trailguide/internal/metrics"
	"github.com/MatteoBdl31/trailguide/internal/recommend"
)

// maxErrorBodySize limits how much of an error response body is read back
// for diagnostics.
const maxErrorBodySize = 16 * 1024

// Provider fetches the forecast condition for one position on one date.
type Provider interface {
	Forecast(ctx context.Context, lat, lon float64, date time.Time) (recommend.WeatherCondition, error)
}

// ClientConfig configures the Open-Meteo forecast client.
type ClientConfig struct {
	// BaseURL is the forecast API base URL.
	// Default: https://api.open-meteo.com.
	BaseURL string `koanf:"base_url"`

	// Timeout is the per-request HTTP timeout. Default: 3s.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond throttles outbound calls. Default: 10.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the rate limiter burst size. Default: 20.
	Burst int `koanf:"burst"`
}

// DefaultClientConfig returns the documented defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           "https://api.open-meteo.com",
		Timeout:           3 * time.Second,
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// Client is an Open-Meteo daily forecast client with rate limiting and
// circuit breaker protection. Safe for concurrent use.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[recommend.WeatherCondition]
	logger  zerolog.Logger
}

// NewClient creates a forecast client.
// Circuit breaker configuration:
//   - max 3 concurrent probes in half-open state
//   - 1 minute measurement window, 1 minute open period
//   - opens after 60% failure rate with minimum 10 requests
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	def := DefaultClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}

	cbName := "open-meteo"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	clog := logger.With().Str("component", "weather-client").Logger()
	cb := gobreaker.NewCircuitBreaker[recommend.WeatherCondition](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			clog.Info().Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cb:      cb,
		logger:  clog,
	}
}

// dailyResponse is the subset of the Open-Meteo daily forecast payload we
// consume.
type dailyResponse struct {
	Daily struct {
		Time        []string `json:"time"`
		WeatherCode []int    `json:"weather_code"`
	} `json:"daily"`
}

// Forecast fetches the daily condition for one position. The call is rate
// limited and circuit-breaker protected; an open breaker fails fast.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, date time.Time) (recommend.WeatherCondition, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return recommend.WeatherUnavailable, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	condition, err := c.cb.Execute(func() (recommend.WeatherCondition, error) {
		return c.fetch(ctx, lat, lon, date)
	})
	metrics.WeatherFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.WeatherFetchErrors.WithLabelValues(classifyError(err)).Inc()
		return recommend.WeatherUnavailable, err
	}
	return condition, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64, date time.Time) (recommend.WeatherCondition, error) {
	day := date.UTC().Format("2006-01-02")
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", lat))
	query.Set("longitude", fmt.Sprintf("%.4f", lon))
	query.Set("daily", "weather_code")
	query.Set("start_date", day)
	query.Set("end_date", day)
	query.Set("timezone", "UTC")

	endpoint := c.cfg.BaseURL + "/v1/forecast?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return recommend.WeatherUnavailable, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return recommend.WeatherUnavailable, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return recommend.WeatherUnavailable, fmt.Errorf("forecast API returned %d: %s", resp.StatusCode, body)
	}

	var payload dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return recommend.WeatherUnavailable, fmt.Errorf("decode forecast: %w", err)
	}
	if len(payload.Daily.WeatherCode) == 0 {
		return recommend.WeatherUnavailable, fmt.Errorf("forecast API returned no daily data for %s", day)
	}

	return conditionFromWMOCode(payload.Daily.WeatherCode[0]), nil
}

// conditionFromWMOCode maps WMO weather interpretation codes to the
// normalized condition set.
func conditionFromWMOCode(code int) recommend.WeatherCondition {
	switch {
	case code <= 1:
		return recommend.WeatherSunny
	case code <= 3, code == 45, code == 48:
		return recommend.WeatherCloudy
	case code >= 51 && code <= 67, code >= 80 && code <= 82:
		return recommend.WeatherRainy
	case code >= 71 && code <= 77, code == 85, code == 86:
		return recommend.WeatherSnowy
	case code >= 95:
		return recommend.WeatherStormRisk
	default:
		return recommend.WeatherCloudy
	}
}

// classifyError buckets provider failures for metrics.
func classifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "http"
	}
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
