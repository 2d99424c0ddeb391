package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/tour-guide/internal/config"
	"github.com/example/tour-guide/internal/logging"
	"github.com/example/tour-guide/internal/models"
	"github.com/example/tour-guide/internal/proximity"
)

type fakePayments struct{}

func (fakePayments) Hold(ctx context.Context, amount int64, currency, customerID string) (string, error) {
	return "pi_test", nil
}
func (fakePayments) Capture(ctx context.Context, id string) error { return nil }
func (fakePayments) Cancel(ctx context.Context, id string) error  { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.ServerConfig{TimerSweepInterval: time.Minute}
	s := NewServer(cfg, logging.Nop(), fakePayments{})
	t.Cleanup(s.Shutdown)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	if w := doJSON(t, s, "GET", "/healthz", nil); w.Code != 200 {
		t.Fatalf("healthz status %d", w.Code)
	}
}

func TestFixThenNearby(t *testing.T) {
	s := newTestServer(t)
	s.Geo.Upsert(models.Landmark{ID: "tower", Name: "Tower", Loc: models.Coord{Lat: 0, Lon: 0}})

	if w := doJSON(t, s, "GET", "/api/v1/users/u1/nearby", nil); w.Code != 404 {
		t.Fatalf("expected 404 before any fix, got %d", w.Code)
	}

	fix := models.Fix{UserID: "u1", Loc: models.Coord{Lat: 0, Lon: 0.0009}, Timestamp: time.Now()}
	if w := doJSON(t, s, "POST", "/internal/location/fixes", fix); w.Code != 204 {
		t.Fatalf("fix status %d: %s", w.Code, w.Body.String())
	}

	w := doJSON(t, s, "GET", "/api/v1/users/u1/nearby", nil)
	if w.Code != 200 {
		t.Fatalf("nearby status %d", w.Code)
	}
	var z proximity.Zones
	if err := json.NewDecoder(w.Body).Decode(&z); err != nil {
		t.Fatal(err)
	}
	if len(z.Prep) != 1 || len(z.Notification) != 1 {
		t.Fatalf("expected landmark in both zones: %+v", z)
	}
}

func TestFixMissingUserID(t *testing.T) {
	s := newTestServer(t)
	if w := doJSON(t, s, "POST", "/internal/location/fixes", models.Fix{}); w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSettingsDefaultsAndClamp(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/api/v1/users/u1/settings", nil)
	if w.Code != 200 {
		t.Fatalf("get settings status %d", w.Code)
	}
	var got models.ProximitySettings
	_ = json.NewDecoder(w.Body).Decode(&got)
	if got.NotificationDistanceM != 100 {
		t.Fatalf("expected defaults, got %+v", got)
	}

	bad := models.DefaultSettings()
	bad.Preset = ""
	bad.CardDistanceM = 400
	bad.NotificationDistanceM = 100
	bad.OuterDistanceM = 250
	w = doJSON(t, s, "PUT", "/api/v1/users/u1/settings", bad)
	if w.Code != 200 {
		t.Fatalf("put settings status %d: %s", w.Code, w.Body.String())
	}
	_ = json.NewDecoder(w.Body).Decode(&got)
	if !got.ValidOrdering() {
		t.Fatalf("response not clamped: %+v", got)
	}
}

func TestSettingsPresetApplied(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, "PUT", "/api/v1/users/u1/settings", map[string]string{"preset": "conservative"})
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var got models.ProximitySettings
	_ = json.NewDecoder(w.Body).Decode(&got)
	if got.SignificantMovementM != 1000 {
		t.Fatalf("preset not applied: %+v", got)
	}
}

func TestSettingsUnknownPreset(t *testing.T) {
	s := newTestServer(t)
	if w := doJSON(t, s, "PUT", "/api/v1/users/u1/settings", map[string]string{"preset": "turbo"}); w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestResumeEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, "POST", "/api/v1/users/u1/resume", map[string]int64{"background_duration_ms": 1000})
	if w.Code != 200 {
		t.Fatalf("status %d", w.Code)
	}
	var resp map[string]bool
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp["grace_activated"] {
		t.Fatal("1s background should not activate grace")
	}
}

func TestGraceDebugEndpoint(t *testing.T) {
	s := newTestServer(t)
	fix := models.Fix{UserID: "u1", Loc: models.Coord{Lat: 0, Lon: 0}, Timestamp: time.Now()}
	doJSON(t, s, "POST", "/internal/location/fixes", fix)

	w := doJSON(t, s, "GET", "/api/v1/debug/grace/u1", nil)
	if w.Code != 200 {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Metrics struct {
			TotalActivations int `json:"total_activations"`
		} `json:"metrics"`
	}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Metrics.TotalActivations != 1 {
		t.Fatalf("expected initialization grace recorded, got %+v", resp)
	}
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	err := s.Experiences.Save(context.Background(), &models.Experience{
		ID: "exp1", Title: "Harbor Walk", PriceCents: 900, Currency: "usd", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, s, "POST", "/api/v1/experiences/exp1/checkout", map[string]string{"user_id": "u1"})
	if w.Code != 200 {
		t.Fatalf("checkout status %d: %s", w.Code, w.Body.String())
	}
	var p models.Purchase
	_ = json.NewDecoder(w.Body).Decode(&p)
	if p.Status != "held" {
		t.Fatalf("unexpected purchase %+v", p)
	}

	if w := doJSON(t, s, "POST", "/api/v1/purchases/"+p.ID+"/complete", nil); w.Code != 204 {
		t.Fatalf("complete status %d", w.Code)
	}
}

func TestCheckoutUnknownExperience(t *testing.T) {
	s := newTestServer(t)
	if w := doJSON(t, s, "POST", "/api/v1/experiences/nope/checkout", map[string]string{"user_id": "u1"}); w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestWebsocketAlertStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("handshake failed: %v", err)
	}
	defer conn.Close()

	// the registry entry appears just after the handshake completes
	a := models.ProximityAlert{UserID: "u1", FiredAt: time.Now()}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err = s.WSReg.Alert("u1", a); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("alert never reached the registry: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.ProximityAlert
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u1" {
		t.Fatalf("unexpected alert %+v", got)
	}
}

var _ http.Handler = (*Server)(nil)
