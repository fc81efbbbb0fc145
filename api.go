package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultAPIBaseURL = "https://www.amiiboapi.com/api"

// APIClient downloads the figure catalog from AmiiboAPI.
type APIClient struct {
	baseURL string
	http    *http.Client
}

// NewAPIClient creates a client for the given base URL. An empty URL
// falls back to the public AmiiboAPI endpoint.
func NewAPIClient(baseURL string) *APIClient {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiAmiibo mirrors one element of AmiiboAPI's amiibo array.
type apiAmiibo struct {
	Head         string `json:"head"`
	Tail         string `json:"tail"`
	Name         string `json:"name"`
	Character    string `json:"character"`
	GameSeries   string `json:"gameSeries"`
	AmiiboSeries string `json:"amiiboSeries"`
	Type         string `json:"type"`
	Image        string `json:"image"`
	Release      struct {
		NA *string `json:"na"`
		EU *string `json:"eu"`
		JP *string `json:"jp"`
		AU *string `json:"au"`
	} `json:"release"`
}

// apiEnvelope is the top-level response shape.
type apiEnvelope struct {
	Amiibo []apiAmiibo `json:"amiibo"`
}

// FetchAll downloads the full catalog. AmiiboAPI has no server-side
// pagination, so the repository caches everything locally and pages
// out of the cache.
func (c *APIClient) FetchAll(ctx context.Context) ([]Amiibo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/amiibo/", nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch catalog [%s]: %w", reqID, errStatus{code: resp.StatusCode})
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode catalog [%s]: %w", reqID, err)
	}

	items := make([]Amiibo, 0, len(envelope.Amiibo))
	for _, a := range envelope.Amiibo {
		items = append(items, Amiibo{
			ID:           a.Head + a.Tail,
			Name:         a.Name,
			Character:    a.Character,
			GameSeries:   a.GameSeries,
			AmiiboSeries: a.AmiiboSeries,
			Type:         a.Type,
			ImageURL:     a.Image,
			ReleaseNA:    deref(a.Release.NA),
			ReleaseEU:    deref(a.Release.EU),
			ReleaseJP:    deref(a.Release.JP),
			ReleaseAU:    deref(a.Release.AU),
		})
	}
	log.Printf("api: fetched %d figures in %v [%s]", len(items), time.Since(start).Round(time.Millisecond), reqID)
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
