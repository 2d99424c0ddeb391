package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/tour-guide/internal/models"
)

// PushClient posts alerts to a push provider's HTTP endpoint for devices
// without a live WebSocket session.
type PushClient struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewPushClient(endpoint, key string) *PushClient {
	return &PushClient{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (p *PushClient) Alert(userID string, a models.ProximityAlert) error {
	body := map[string]interface{}{
		"message": map[string]interface{}{
			"user_id": userID,
			"data":    a,
		},
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, p.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push provider: status %d", resp.StatusCode)
	}
	return nil
}

// Notifier tries the live WebSocket session first and falls back to push.
type Notifier struct {
	WS   *WSRegistry
	Push *PushClient
}

func (n *Notifier) Alert(userID string, a models.ProximityAlert) error {
	if n.WS != nil {
		err := n.WS.Alert(userID, a)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNoSession) {
			return err
		}
	}
	if n.Push != nil && n.Push.Endpoint != "" {
		return n.Push.Alert(userID, a)
	}
	return ErrNoSession
}
