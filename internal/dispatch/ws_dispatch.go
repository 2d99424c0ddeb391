package dispatch

import (
	"errors"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/tour-guide/internal/models"
	"github.com/example/tour-guide/internal/observability"
)

var ErrNoSession = errors.New("no ws session")

// WSSession represents a connected client session
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(a models.ProximityAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(a)
}

// WSRegistry holds live alert streams keyed by user id
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
}

func NewWSRegistry() *WSRegistry { return &WSRegistry{sessions: make(map[string]*WSSession)} }

// Add registers the connection and returns its session handle. A reconnect
// replaces the previous session; the old connection is closed so its reader
// unblocks.
func (r *WSRegistry) Add(userID string, conn *websocket.Conn) *WSSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[userID]; ok {
		_ = old.conn.Close()
	} else {
		observability.WSSessions.Inc()
	}
	s := &WSSession{conn: conn}
	r.sessions[userID] = s
	return s
}

// Remove drops the session only while it is still the registered one, so a
// reader from a replaced connection cannot evict its successor.
func (r *WSRegistry) Remove(userID string, s *WSSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[userID]; ok && cur == s {
		delete(r.sessions, userID)
		observability.WSSessions.Dec()
	}
}

func (r *WSRegistry) Alert(userID string, a models.ProximityAlert) error {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.Send(a); err != nil {
		log.Printf("ws send error: %v", err)
		return err
	}
	return nil
}
