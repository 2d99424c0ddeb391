package experiences

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/tour-guide/internal/models"
)

// ItineraryClient asks a hosted generative-text API to draft tour script
// text for a set of landmarks. Experts edit the draft before publishing.
type ItineraryClient struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewItineraryClient(endpoint, key string) *ItineraryClient {
	return &ItineraryClient{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 15 * time.Second}}
}

func (i *ItineraryClient) Draft(ctx context.Context, title string, landmarks []models.Landmark) (string, error) {
	names := make([]string, 0, len(landmarks))
	for _, l := range landmarks {
		names = append(names, l.Name)
	}
	prompt := fmt.Sprintf("Draft a walking tour script titled %q covering: %s", title, strings.Join(names, ", "))

	b, _ := json.Marshal(map[string]any{"prompt": prompt, "max_tokens": 1024})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.Endpoint+"/v1/generate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+i.Key)
	resp, err := i.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("itinerary draft: status %d", resp.StatusCode)
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Text, nil
}
