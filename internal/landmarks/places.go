package landmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/example/tour-guide/internal/models"
)

// PlacesClient queries a third-party places search API to enrich the curated
// catalog. Thin boundary client; failures surface as errors and the caller
// degrades to curated data only.
type PlacesClient struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewPlacesClient(endpoint, key string) *PlacesClient {
	return &PlacesClient{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (p *PlacesClient) Search(ctx context.Context, query string, near models.Coord, radiusM float64) ([]models.Landmark, error) {
	u := fmt.Sprintf("%s/search?q=%s&lat=%.6f&lon=%.6f&radius=%.0f",
		p.Endpoint, url.QueryEscape(query), near.Lat, near.Lon, radiusM)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places search: status %d", resp.StatusCode)
	}
	var out struct {
		Results []struct {
			ID       string  `json:"id"`
			Name     string  `json:"name"`
			Lat      float64 `json:"lat"`
			Lon      float64 `json:"lon"`
			Summary  string  `json:"summary"`
			PhotoURL string  `json:"photo_url"`
			Rating   float64 `json:"rating"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	lms := make([]models.Landmark, 0, len(out.Results))
	for _, r := range out.Results {
		lms = append(lms, models.Landmark{
			ID:          r.ID,
			Name:        r.Name,
			Loc:         models.Coord{Lat: r.Lat, Lon: r.Lon},
			Description: r.Summary,
			PhotoURL:    r.PhotoURL,
			Rating:      r.Rating,
		})
	}
	return lms, nil
}
