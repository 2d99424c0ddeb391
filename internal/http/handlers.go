package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/tour-guide/internal/config"
	"github.com/example/tour-guide/internal/dispatch"
	"github.com/example/tour-guide/internal/experiences"
	"github.com/example/tour-guide/internal/geo"
	"github.com/example/tour-guide/internal/ingest"
	"github.com/example/tour-guide/internal/landmarks"
	"github.com/example/tour-guide/internal/models"
	"github.com/example/tour-guide/internal/proximity"
	"github.com/example/tour-guide/internal/settings"
	"github.com/example/tour-guide/internal/timers"
)

type Server struct {
	Geo         geo.Source
	Landmarks   landmarks.Store
	Settings    settings.Store
	Sessions    *proximity.Manager
	Experiences experiences.Store
	Checkout    *experiences.CheckoutService
	Voice       *experiences.VoiceClient
	Itinerary   *experiences.ItineraryClient
	Places      *landmarks.PlacesClient
	Kafka       *ingest.KafkaProducer
	WSReg       *dispatch.WSRegistry
	Timers      *timers.Manager

	logger *slog.Logger
	mux    *mux.Router
}

// NewServer wires the full service from config. Redis/Kafka/Postgres are all
// optional; absent ones degrade to in-memory or no-op equivalents so the
// binary runs locally with no setup.
func NewServer(cfg config.ServerConfig, logger *slog.Logger, payments experiences.PaymentClient) *Server {
	var lmGeo geo.Source
	if cfg.RedisAddr != "" {
		lmGeo = geo.NewRedisGeo(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	} else {
		lmGeo = geo.NewIndex()
	}

	var lmStore landmarks.Store
	var setStore settings.Store
	var expStore experiences.Store
	if cfg.PGDSN != "" {
		if s, err := landmarks.NewPostgresStore(cfg.PGDSN); err == nil {
			lmStore = s
		} else {
			logger.Warn("landmarks store unavailable, using memory", "error", err)
		}
		if s, err := settings.NewPostgresStore(cfg.PGDSN); err == nil {
			setStore = s
		} else {
			logger.Warn("settings store unavailable, using memory", "error", err)
		}
		if s, err := experiences.NewPostgresStore(cfg.PGDSN); err == nil {
			expStore = s
		} else {
			logger.Warn("experiences store unavailable, using memory", "error", err)
		}
	}
	if lmStore == nil {
		lmStore = landmarks.NewMemoryStore()
	}
	if setStore == nil {
		setStore = settings.NewMemoryStore()
	}
	if expStore == nil {
		expStore = experiences.NewMemoryStore()
	}

	var kp *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		kp = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	wsreg := dispatch.NewWSRegistry()
	notifier := &dispatch.Notifier{WS: wsreg, Push: dispatch.NewPushClient(cfg.PushEndpoint, cfg.PushKey)}
	tm := timers.NewManager(logger, cfg.TimerSweepInterval)
	sessions := proximity.NewManager(lmGeo, sessionSettings{setStore}, notifier, tm, logger)

	s := &Server{
		Geo:         lmGeo,
		Landmarks:   lmStore,
		Settings:    setStore,
		Sessions:    sessions,
		Experiences: expStore,
		Checkout:    &experiences.CheckoutService{Store: expStore, Payments: payments},
		Voice:       experiences.NewVoiceClient(cfg.VoiceEndpoint, cfg.VoiceKey),
		Itinerary:   experiences.NewItineraryClient(cfg.ItineraryEndpoint, cfg.ItineraryKey),
		Places:      landmarks.NewPlacesClient(cfg.PlacesEndpoint, cfg.PlacesKey),
		Kafka:       kp,
		WSReg:       wsreg,
		Timers:      tm,
		logger:      logger,
		mux:         mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

// sessionSettings adapts the settings store to the session manager: a user
// with no stored settings gets nil, which means defaults downstream.
type sessionSettings struct{ store settings.Store }

func (a sessionSettings) Get(ctx context.Context, userID string) (*models.ProximitySettings, error) {
	s, err := a.store.Get(ctx, userID)
	if errors.Is(err, settings.ErrNotFound) {
		return nil, nil
	}
	return s, err
}

func (s *Server) routes() {
	s.mux.HandleFunc("/internal/location/fixes", s.handleFix).Methods("POST")
	s.mux.HandleFunc("/api/v1/users/{user_id}/nearby", s.handleNearby).Methods("GET")
	s.mux.HandleFunc("/api/v1/users/{user_id}/resume", s.handleResume).Methods("POST")
	s.mux.HandleFunc("/api/v1/users/{user_id}/settings", s.handleGetSettings).Methods("GET")
	s.mux.HandleFunc("/api/v1/users/{user_id}/settings", s.handlePutSettings).Methods("PUT")
	s.mux.HandleFunc("/api/v1/landmarks", s.handleLandmarks).Methods("GET")
	s.mux.HandleFunc("/api/v1/landmarks/search", s.handleLandmarkSearch).Methods("GET")
	s.mux.HandleFunc("/api/v1/experiences/{id}/itinerary-draft", s.handleItineraryDraft).Methods("POST")
	s.mux.HandleFunc("/api/v1/experiences", s.handleExperiences).Methods("GET")
	s.mux.HandleFunc("/api/v1/experiences/{id}/checkout", s.handleCheckout).Methods("POST")
	s.mux.HandleFunc("/api/v1/experiences/{id}/voice-session", s.handleVoiceSession).Methods("POST")
	s.mux.HandleFunc("/api/v1/purchases/{id}/complete", s.handlePurchaseComplete).Methods("POST")
	s.mux.HandleFunc("/api/v1/purchases/{id}/cancel", s.handlePurchaseCancel).Methods("POST")
	s.mux.HandleFunc("/api/v1/debug/grace/{user_id}", s.handleGraceDebug).Methods("GET")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/{user_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	var f models.Fix
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	if s.Kafka != nil {
		if err := s.Kafka.PublishFix(f); err != nil {
			s.logger.Warn("kafka publish failed", "user_id", f.UserID, "error", err)
		}
	}
	if _, err := s.Sessions.ProcessFix(r.Context(), f); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	w.WriteHeader(204)
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	z, err := s.Sessions.Zones(userID)
	if errors.Is(err, proximity.ErrNoSession) {
		http.Error(w, "no active session", 404)
		return
	}
	writeJSON(w, z)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	var body struct {
		BackgroundDurationMs int64 `json:"background_duration_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	activated := s.Sessions.Resume(r.Context(), userID, time.Duration(body.BackgroundDurationMs)*time.Millisecond)
	writeJSON(w, map[string]bool{"grace_activated": activated})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	ps, err := s.Settings.Get(r.Context(), userID)
	if errors.Is(err, settings.ErrNotFound) {
		d := models.DefaultSettings()
		d.UserID = userID
		writeJSON(w, d)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if !ps.ValidOrdering() {
		// pre-clamp rows can still be out of order; warn, serve as-is
		s.logger.Warn("stored settings violate distance ordering", "user_id", userID)
	}
	writeJSON(w, ps)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	var ps models.ProximitySettings
	if err := json.NewDecoder(r.Body).Decode(&ps); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	ps.UserID = userID
	clamped, err := settings.Normalize(&ps)
	if err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if clamped {
		s.logger.Warn("settings distances clamped to restore ordering", "user_id", userID)
	}
	if err := s.Settings.Put(r.Context(), &ps); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	s.Sessions.UpdateSettings(userID, &ps)
	writeJSON(w, &ps)
}

func (s *Server) handleLandmarks(w http.ResponseWriter, r *http.Request) {
	lms, err := s.Landmarks.All(r.Context())
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, lms)
}

// handleLandmarkSearch queries the third-party places API and folds the
// results into the curated catalog and the geo index.
func (s *Server) handleLandmarkSearch(w http.ResponseWriter, r *http.Request) {
	if s.Places == nil || s.Places.Endpoint == "" {
		http.Error(w, "places search not configured", 503)
		return
	}
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(q.Get("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon required", 400)
		return
	}
	radius, err := strconv.ParseFloat(q.Get("radius"), 64)
	if err != nil || radius <= 0 {
		radius = 1000
	}
	found, err := s.Places.Search(r.Context(), q.Get("q"), models.Coord{Lat: lat, Lon: lon}, radius)
	if err != nil {
		http.Error(w, err.Error(), 502)
		return
	}
	for _, l := range found {
		if err := s.Landmarks.Upsert(r.Context(), l); err != nil {
			s.logger.Warn("landmark upsert failed", "id", l.ID, "error", err)
			continue
		}
		s.Geo.Upsert(l)
	}
	writeJSON(w, found)
}

// handleItineraryDraft asks the generative-text API for a script draft
// covering the experience's landmarks. Expert-facing authoring endpoint.
func (s *Server) handleItineraryDraft(w http.ResponseWriter, r *http.Request) {
	e, err := s.Experiences.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, experiences.ErrNotFound) {
		http.Error(w, "unknown experience", 404)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	var lms []models.Landmark
	for _, id := range e.LandmarkIDs {
		if l, err := s.Landmarks.Get(r.Context(), id); err == nil {
			lms = append(lms, *l)
		}
	}
	text, err := s.Itinerary.Draft(r.Context(), e.Title, lms)
	if err != nil {
		http.Error(w, err.Error(), 502)
		return
	}
	writeJSON(w, map[string]string{"draft": text})
}

func (s *Server) handleExperiences(w http.ResponseWriter, r *http.Request) {
	exps, err := s.Experiences.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, exps)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	expID := mux.Vars(r)["id"]
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	p, err := s.Checkout.Checkout(r.Context(), expID, body.UserID)
	if errors.Is(err, experiences.ErrNotFound) {
		http.Error(w, "unknown experience", 404)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 502)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleVoiceSession(w http.ResponseWriter, r *http.Request) {
	expID := mux.Vars(r)["id"]
	e, err := s.Experiences.Get(r.Context(), expID)
	if errors.Is(err, experiences.ErrNotFound) {
		http.Error(w, "unknown experience", 404)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	vs, err := s.Voice.StartSession(r.Context(), e.VoiceAgent, e.ID)
	if err != nil {
		http.Error(w, err.Error(), 502)
		return
	}
	writeJSON(w, vs)
}

func (s *Server) handlePurchaseComplete(w http.ResponseWriter, r *http.Request) {
	if err := s.Checkout.Complete(r.Context(), mux.Vars(r)["id"]); err != nil {
		status := 502
		if errors.Is(err, experiences.ErrPurchaseNotFound) {
			status = 404
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(204)
}

func (s *Server) handlePurchaseCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.Checkout.Cancel(r.Context(), mux.Vars(r)["id"]); err != nil {
		status := 502
		if errors.Is(err, experiences.ErrPurchaseNotFound) {
			status = 404
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(204)
}

func (s *Server) handleGraceDebug(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	metrics, history, err := s.Sessions.GraceDebug(userID)
	if errors.Is(err, proximity.ErrNoSession) {
		http.Error(w, "no active session", 404)
		return
	}
	writeJSON(w, map[string]any{"metrics": metrics, "history": history})
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["user_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.Warn("ws upgrade failed", "user_id", id, "error", err)
		return
	}
	sess := s.WSReg.Add(id, conn)
	go func() {
		// drain until the client goes away so the registry stays accurate
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.WSReg.Remove(id, sess)
				_ = conn.Close()
				return
			}
		}
	}()
}

// Shutdown tears down sessions and timers; the HTTP listener is closed by
// the caller.
func (s *Server) Shutdown() {
	s.Sessions.CloseAll()
	s.Timers.Close()
	if s.Kafka != nil {
		_ = s.Kafka.Close()
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
