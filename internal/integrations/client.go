// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package integrations implements the downloader-side clients (Radarr,
// Sonarr) that carry out approved deletions, with rate limiting, bounded
// retries and circuit breaker protection.
package integrations

import (
	"context"
	"fmt"

	"github.com/helliott20/managarr-sub001/internal/models"
)

// Client is the surface the executor uses to carry out one deletion.
// Implementations must be safe for concurrent use and idempotent: deleting
// an item the integration no longer knows about succeeds with zero bytes.
type Client interface {
	// Name identifies the integration in logs, metrics and history rows.
	Name() string

	// Ping verifies connectivity and credentials.
	Ping(ctx context.Context) error

	// Delete applies the strategy to the media item and reports the bytes
	// freed on disk.
	Delete(ctx context.Context, media *models.Media, strategy models.IntegrationStrategy) (int64, error)
}

// Error is a failed integration call. StatusCode is zero for transport
// errors.
type Error struct {
	Integration string
	Operation   string
	StatusCode  int
	Message     string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Integration, e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Integration, e.Operation, e.Message)
}

// Retryable reports whether the failure is worth retrying: transport errors
// and server-side failures are, client errors are not.
func (e *Error) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == 429
}
