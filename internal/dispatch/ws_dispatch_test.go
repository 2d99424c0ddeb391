package dispatch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/example/tour-guide/internal/models"
)

func dialTestConn(t *testing.T) *websocket.Conn {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				_ = c.Close()
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestReconnectKeepsLiveSession(t *testing.T) {
	r := NewWSRegistry()
	stale := r.Add("u1", dialTestConn(t))
	live := r.Add("u1", dialTestConn(t))

	// the reader of the replaced connection reports its exit last
	r.Remove("u1", stale)
	if err := r.Alert("u1", models.ProximityAlert{UserID: "u1"}); err != nil {
		t.Fatalf("live session evicted by stale reader: %v", err)
	}

	r.Remove("u1", live)
	if err := r.Alert("u1", models.ProximityAlert{UserID: "u1"}); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
