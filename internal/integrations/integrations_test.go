// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package integrations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/helliott20/managarr-sub001/internal/config"
	"github.com/helliott20/managarr-sub001/internal/models"
)

func testConfig(url string) *config.IntegrationConfig {
	return &config.IntegrationConfig{
		Enabled:        true,
		URL:            url,
		APIKey:         "test-key",
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
		RateLimit:      0, // unlimited in tests
	}
}

func testMovie() *models.Media {
	return &models.Media{
		ID:         "m1",
		ExternalID: 42,
		Type:       models.MediaTypeMovie,
		Title:      "Old Movie",
		SizeBytes:  4 << 30,
	}
}

func TestRadarrRemove(t *testing.T) {
	var deleteQuery string
	var apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("X-Api-Key")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/movie/42":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": 42, "monitored": true, "hasFile": true, "sizeOnDisk": 1000,
			})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v3/movie/42":
			deleteQuery = r.URL.RawQuery
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewRadarrClient(testConfig(server.URL))
	freed, err := client.Delete(context.Background(), testMovie(), models.IntegrationStrategy{
		Action:             models.ActionRemove,
		DeleteFiles:        true,
		AddImportExclusion: true,
	})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if freed != 1000 {
		t.Errorf("freed = %d, want 1000", freed)
	}
	if apiKey != "test-key" {
		t.Errorf("X-Api-Key = %q, want test-key", apiKey)
	}
	if deleteQuery != "deleteFiles=true&addImportExclusion=true" {
		t.Errorf("delete query = %q", deleteQuery)
	}
}

func TestRadarrRemoveKeepFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 42, "hasFile": true, "sizeOnDisk": 1000})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client := NewRadarrClient(testConfig(server.URL))
	freed, err := client.Delete(context.Background(), testMovie(), models.IntegrationStrategy{
		Action: models.ActionRemove,
	})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if freed != 0 {
		t.Errorf("freed = %d, want 0 when files are kept", freed)
	}
}

func TestRadarrAlreadyGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewRadarrClient(testConfig(server.URL))
	for _, action := range []string{models.ActionRemove, models.ActionUnmonitor, models.ActionFileOnly} {
		freed, err := client.Delete(context.Background(), testMovie(), models.IntegrationStrategy{Action: action})
		if err != nil {
			t.Errorf("action %s: error = %v, want already-gone success", action, err)
		}
		if freed != 0 {
			t.Errorf("action %s: freed = %d, want 0", action, freed)
		}
	}
}

func TestRadarrUnmonitorRoundTripsDocument(t *testing.T) {
	var updated map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": 42, "monitored": true, "qualityProfileId": 7, "path": "/movies/old",
			})
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&updated)
			w.WriteHeader(http.StatusAccepted)
		}
	}))
	defer server.Close()

	client := NewRadarrClient(testConfig(server.URL))
	freed, err := client.Delete(context.Background(), testMovie(), models.IntegrationStrategy{
		Action: models.ActionUnmonitor,
	})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if freed != 0 {
		t.Errorf("freed = %d, want 0 without file deletion", freed)
	}
	if updated["monitored"] != false {
		t.Error("update should set monitored=false")
	}
	// Fields the client does not model survive the round trip.
	if updated["qualityProfileId"] != float64(7) || updated["path"] != "/movies/old" {
		t.Errorf("unmodeled fields dropped: %v", updated)
	}
}

func TestRadarrFileOnlySumsSizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/moviefile":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": 1, "size": 600},
				{"id": 2, "size": 400},
			})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client := NewRadarrClient(testConfig(server.URL))
	freed, err := client.Delete(context.Background(), testMovie(), models.IntegrationStrategy{
		Action: models.ActionFileOnly,
	})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if freed != 1000 {
		t.Errorf("freed = %d, want 1000", freed)
	}
}

func TestSonarrRemoveUsesImportListExclusion(t *testing.T) {
	var deleteQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": 42, "statistics": map[string]any{"sizeOnDisk": 5000},
			})
		case http.MethodDelete:
			deleteQuery = r.URL.RawQuery
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	series := testMovie()
	series.Type = models.MediaTypeSeries

	client := NewSonarrClient(testConfig(server.URL))
	freed, err := client.Delete(context.Background(), series, models.IntegrationStrategy{
		Action:             models.ActionRemove,
		DeleteFiles:        true,
		AddImportExclusion: true,
	})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if freed != 5000 {
		t.Errorf("freed = %d, want 5000", freed)
	}
	if deleteQuery != "deleteFiles=true&addImportListExclusion=true" {
		t.Errorf("delete query = %q", deleteQuery)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRadarrClient(testConfig(server.URL))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v, want success after retries", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewRadarrClient(testConfig(server.URL))
	err := client.Ping(context.Background())
	if err == nil {
		t.Fatal("Ping() should fail on 401")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("error = %v, want *Error with status 401", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retries)", calls.Load())
	}
}

type failingClient struct{}

func (failingClient) Name() string                    { return "failing" }
func (failingClient) Ping(context.Context) error      { return errors.New("down") }
func (failingClient) Delete(context.Context, *models.Media, models.IntegrationStrategy) (int64, error) {
	return 0, errors.New("down")
}

func TestBreakerOpensAndRejects(t *testing.T) {
	client := WithBreaker(failingClient{})

	for i := 0; i < 10; i++ {
		if _, err := client.Delete(context.Background(), testMovie(), models.IntegrationStrategy{}); err == nil {
			t.Fatal("Delete() should fail")
		}
	}

	_, err := client.Delete(context.Background(), testMovie(), models.IntegrationStrategy{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want circuit open rejection", err)
	}
}
