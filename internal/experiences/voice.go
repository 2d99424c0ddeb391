package experiences

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// VoiceClient starts conversational-voice agent sessions on the hosted
// provider. The provider owns all audio; we only exchange session tokens.
type VoiceClient struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewVoiceClient(endpoint, key string) *VoiceClient {
	return &VoiceClient{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 5 * time.Second}}
}

type VoiceSession struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (v *VoiceClient) StartSession(ctx context.Context, agentID, experienceID string) (*VoiceSession, error) {
	b, _ := json.Marshal(map[string]string{"agent_id": agentID, "experience_id": experienceID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint+"/v1/sessions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.Key)
	resp, err := v.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice session: status %d", resp.StatusCode)
	}
	var out VoiceSession
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
