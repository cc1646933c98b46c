// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package integrations

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/helliott20/managarr-sub001/internal/logging"
	"github.com/helliott20/managarr-sub001/internal/metrics"
	"github.com/helliott20/managarr-sub001/internal/models"
)

// Ensure BreakerClient implements Client.
var _ Client = (*BreakerClient)(nil)

// BreakerClient wraps a Client with a circuit breaker so a downloader that
// is down or misbehaving stops receiving traffic until it recovers.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should exercise the wrapped client directly.
type BreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker[int64]
}

// WithBreaker wraps a client with circuit breaker protection:
// max 3 requests in half-open state, a 1 minute measurement window, a
// 2 minute recovery timeout, opening at a 60% failure rate over at least
// 10 requests.
func WithBreaker(client Client) *BreakerClient {
	name := client.Name()
	metrics.SetCircuitBreakerState(name, 0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Str("integration", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening integration circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("integration", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Integration circuit state changed")
			metrics.SetCircuitBreakerState(name, stateToFloat(to))
		},
	})

	return &BreakerClient{client: client, cb: cb}
}

// Name implements Client.
func (b *BreakerClient) Name() string { return b.client.Name() }

// Ping implements Client with breaker protection.
func (b *BreakerClient) Ping(ctx context.Context) error {
	_, err := b.cb.Execute(func() (int64, error) {
		return 0, b.client.Ping(ctx)
	})
	return err
}

// Delete implements Client with breaker protection. When the circuit is
// open the call fails fast with gobreaker.ErrOpenState.
func (b *BreakerClient) Delete(ctx context.Context, media *models.Media, strategy models.IntegrationStrategy) (int64, error) {
	return b.cb.Execute(func() (int64, error) {
		return b.client.Delete(ctx, media, strategy)
	})
}

func stateToString(s gobreaker.State) string {
	switch s {
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

func stateToFloat(s gobreaker.State) float64 {
	switch s {
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
