// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package integrations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/helliott20/managarr-sub001/internal/config"
	"github.com/helliott20/managarr-sub001/internal/logging"
	"github.com/helliott20/managarr-sub001/internal/metrics"
)

// maxErrorBody caps how much of an error response is read into memory.
const maxErrorBody = 64 * 1024

// arrClient is the HTTP plumbing shared by the Radarr and Sonarr clients:
// API key auth, client-side rate limiting and bounded retries with
// exponential backoff on retryable failures.
type arrClient struct {
	name           string
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

func newArrClient(name string, cfg *config.IntegrationConfig) *arrClient {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	return &arrClient{
		name:    name,
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(limit, burst),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// doJSON performs one API call, retrying retryable failures, and decodes a
// JSON response into out when out is non-nil. A 404 is returned as *Error
// with StatusCode 404 so callers can treat missing items as already gone.
func (c *arrClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal %s body: %w", c.name, path, err)
		}
	}

	operation := method + " " + path
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryBaseDelay * time.Duration(1<<(attempt-1))
			logging.Debug().
				Str("integration", c.name).
				Str("operation", operation).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying integration request")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.doOnce(ctx, method, path, payload, out)
		if lastErr == nil {
			return nil
		}
		var apiErr *Error
		if !errors.As(lastErr, &apiErr) || !apiErr.Retryable() {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *arrClient) doOnce(ctx context.Context, method, path string, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", c.name, err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	operation := method + " " + path
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordIntegrationRequest(c.name, operation, 0, time.Since(start))
		return &Error{Integration: c.name, Operation: operation, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordIntegrationRequest(c.name, operation, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			msg = []byte("(failed to read body)")
		}
		return &Error{
			Integration: c.name,
			Operation:   operation,
			StatusCode:  resp.StatusCode,
			Message:     strings.TrimSpace(string(msg)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode %s response: %w", c.name, operation, err)
		}
	}
	return nil
}

// isNotFound reports whether err is an API 404.
func isNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
