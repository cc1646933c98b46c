// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package integrations

import (
	"context"
	"fmt"
	"net/http"

	"github.com/helliott20/managarr-sub001/internal/config"
	"github.com/helliott20/managarr-sub001/internal/logging"
	"github.com/helliott20/managarr-sub001/internal/models"
)

// Ensure SonarrClient implements Client.
var _ Client = (*SonarrClient)(nil)

// SonarrClient manages series deletions through the Sonarr v3 API.
// Media.ExternalID is the Sonarr series ID.
type SonarrClient struct {
	*arrClient
}

// sonarrSeries is the subset of the Sonarr series resource this client
// reads. Updates round-trip the full document as a map.
type sonarrSeries struct {
	ID         int64 `json:"id"`
	Monitored  bool  `json:"monitored"`
	Statistics struct {
		SizeOnDisk int64 `json:"sizeOnDisk"`
	} `json:"statistics"`
}

type sonarrEpisodeFile struct {
	ID   int64 `json:"id"`
	Size int64 `json:"size"`
}

// NewSonarrClient creates a Sonarr client from integration config.
func NewSonarrClient(cfg *config.IntegrationConfig) *SonarrClient {
	return &SonarrClient{arrClient: newArrClient("sonarr", cfg)}
}

// Name implements Client.
func (c *SonarrClient) Name() string { return "sonarr" }

// Ping verifies connectivity and the API key.
func (c *SonarrClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/v3/system/status", nil, nil)
}

// Delete applies the strategy to one series. A series Sonarr no longer
// knows about is treated as already deleted.
func (c *SonarrClient) Delete(ctx context.Context, media *models.Media, strategy models.IntegrationStrategy) (int64, error) {
	switch strategy.Action {
	case models.ActionRemove:
		return c.remove(ctx, media, strategy)
	case models.ActionUnmonitor:
		return c.unmonitor(ctx, media, strategy)
	case models.ActionFileOnly:
		return c.deleteFiles(ctx, media)
	default:
		return 0, fmt.Errorf("sonarr: unknown action %q", strategy.Action)
	}
}

func (c *SonarrClient) remove(ctx context.Context, media *models.Media, strategy models.IntegrationStrategy) (int64, error) {
	var series sonarrSeries
	getPath := fmt.Sprintf("/api/v3/series/%d", media.ExternalID)
	if err := c.doJSON(ctx, http.MethodGet, getPath, nil, &series); err != nil {
		if isNotFound(err) {
			c.logAlreadyGone(media)
			return 0, nil
		}
		return 0, err
	}

	freed := int64(0)
	if strategy.DeleteFiles {
		freed = series.Statistics.SizeOnDisk
	}

	path := fmt.Sprintf("/api/v3/series/%d?deleteFiles=%t&addImportListExclusion=%t",
		media.ExternalID, strategy.DeleteFiles, strategy.AddImportExclusion)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		if isNotFound(err) {
			c.logAlreadyGone(media)
			return 0, nil
		}
		return 0, err
	}
	return freed, nil
}

func (c *SonarrClient) unmonitor(ctx context.Context, media *models.Media, strategy models.IntegrationStrategy) (int64, error) {
	var series map[string]any
	path := fmt.Sprintf("/api/v3/series/%d", media.ExternalID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &series); err != nil {
		if isNotFound(err) {
			c.logAlreadyGone(media)
			return 0, nil
		}
		return 0, err
	}

	series["monitored"] = false
	if err := c.doJSON(ctx, http.MethodPut, path, series, nil); err != nil {
		return 0, err
	}

	if !strategy.DeleteFiles {
		return 0, nil
	}
	return c.deleteFiles(ctx, media)
}

// deleteFiles removes every episode file of the series while keeping the
// library entry.
func (c *SonarrClient) deleteFiles(ctx context.Context, media *models.Media) (int64, error) {
	var files []sonarrEpisodeFile
	path := fmt.Sprintf("/api/v3/episodefile?seriesId=%d", media.ExternalID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &files); err != nil {
		if isNotFound(err) {
			c.logAlreadyGone(media)
			return 0, nil
		}
		return 0, err
	}

	var freed int64
	for _, f := range files {
		err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/v3/episodefile/%d", f.ID), nil, nil)
		if err != nil && !isNotFound(err) {
			return freed, err
		}
		freed += f.Size
	}
	return freed, nil
}

func (c *SonarrClient) logAlreadyGone(media *models.Media) {
	logging.Debug().
		Str("media_id", media.ID).
		Int64("external_id", media.ExternalID).
		Msg("Sonarr no longer tracks the series, treating as deleted")
}
