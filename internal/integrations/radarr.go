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

// Ensure RadarrClient implements Client.
var _ Client = (*RadarrClient)(nil)

// RadarrClient manages movie deletions through the Radarr v3 API.
// Media.ExternalID is the Radarr movie ID.
type RadarrClient struct {
	*arrClient
}

// radarrMovie is the subset of the Radarr movie resource this client reads.
// Updates round-trip the full document as a map so fields the client does
// not model are preserved.
type radarrMovie struct {
	ID         int64 `json:"id"`
	Monitored  bool  `json:"monitored"`
	SizeOnDisk int64 `json:"sizeOnDisk"`
	HasFile    bool  `json:"hasFile"`
}

type radarrMovieFile struct {
	ID   int64 `json:"id"`
	Size int64 `json:"size"`
}

// NewRadarrClient creates a Radarr client from integration config.
func NewRadarrClient(cfg *config.IntegrationConfig) *RadarrClient {
	return &RadarrClient{arrClient: newArrClient("radarr", cfg)}
}

// Name implements Client.
func (c *RadarrClient) Name() string { return "radarr" }

// Ping verifies connectivity and the API key.
func (c *RadarrClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/v3/system/status", nil, nil)
}

// Delete applies the strategy to one movie. A movie Radarr no longer knows
// about is treated as already deleted.
func (c *RadarrClient) Delete(ctx context.Context, media *models.Media, strategy models.IntegrationStrategy) (int64, error) {
	switch strategy.Action {
	case models.ActionRemove:
		return c.remove(ctx, media, strategy)
	case models.ActionUnmonitor:
		return c.unmonitor(ctx, media, strategy)
	case models.ActionFileOnly:
		return c.deleteFiles(ctx, media)
	default:
		return 0, fmt.Errorf("radarr: unknown action %q", strategy.Action)
	}
}

// remove deletes the movie entry, optionally its files, and optionally adds
// an import exclusion so the movie is not re-imported by a list sync.
func (c *RadarrClient) remove(ctx context.Context, media *models.Media, strategy models.IntegrationStrategy) (int64, error) {
	movie, err := c.getMovie(ctx, media.ExternalID)
	if err != nil {
		if isNotFound(err) {
			c.logAlreadyGone(media)
			return 0, nil
		}
		return 0, err
	}

	freed := int64(0)
	if strategy.DeleteFiles && movie.HasFile {
		freed = movie.SizeOnDisk
	}

	path := fmt.Sprintf("/api/v3/movie/%d?deleteFiles=%t&addImportExclusion=%t",
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

// unmonitor flips monitoring off so Radarr stops upgrading the movie, and
// deletes the files when the strategy asks for that too.
func (c *RadarrClient) unmonitor(ctx context.Context, media *models.Media, strategy models.IntegrationStrategy) (int64, error) {
	var movie map[string]any
	path := fmt.Sprintf("/api/v3/movie/%d", media.ExternalID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &movie); err != nil {
		if isNotFound(err) {
			c.logAlreadyGone(media)
			return 0, nil
		}
		return 0, err
	}

	movie["monitored"] = false
	if err := c.doJSON(ctx, http.MethodPut, path, movie, nil); err != nil {
		return 0, err
	}

	if !strategy.DeleteFiles {
		return 0, nil
	}
	return c.deleteFiles(ctx, media)
}

// deleteFiles removes the movie's files while keeping the library entry.
func (c *RadarrClient) deleteFiles(ctx context.Context, media *models.Media) (int64, error) {
	var files []radarrMovieFile
	path := fmt.Sprintf("/api/v3/moviefile?movieId=%d", media.ExternalID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &files); err != nil {
		if isNotFound(err) {
			c.logAlreadyGone(media)
			return 0, nil
		}
		return 0, err
	}

	var freed int64
	for _, f := range files {
		err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/v3/moviefile/%d", f.ID), nil, nil)
		if err != nil && !isNotFound(err) {
			return freed, err
		}
		freed += f.Size
	}
	return freed, nil
}

func (c *RadarrClient) getMovie(ctx context.Context, id int64) (*radarrMovie, error) {
	var movie radarrMovie
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/v3/movie/%d", id), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *RadarrClient) logAlreadyGone(media *models.Media) {
	logging.Debug().
		Str("media_id", media.ID).
		Int64("external_id", media.ExternalID).
		Msg("Radarr no longer tracks the movie, treating as deleted")
}
