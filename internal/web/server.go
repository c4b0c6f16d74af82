// Package web serves the wine classifier over HTTP: the interactive page, the
// JSON API, a websocket channel for live classification and a health probe.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"sync"
	"time"

	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"
	"wine-classifier/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// HistoryStore persists classifications. A nil store disables history.
type HistoryStore interface {
	Save(rec storage.Record) (storage.Record, error)
	Recent(limit int) ([]storage.Record, error)
}

// Recorder receives request and pipeline measurements.
type Recorder interface {
	features.MetricsTracker
	InvalidInputsInc()
	HTTPRequestObserve(route string, code int, duration time.Duration)
	WSSessionsAdd(delta float64)
}

// Config contains configuration for the web server
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
	HistoryLimit   int
}

// Server is the classifier front end.
type Server struct {
	cfg        Config
	classifier *ml.Classifier
	history    HistoryStore
	metrics    Recorder
	page       *template.Template
	upgrader   websocket.Upgrader
	server     *http.Server

	clients   map[*websocket.Conn]struct{}
	clientsMu sync.Mutex
	isRunning bool
	mu        sync.Mutex
}

// NewServer wires routes around an already constructed classifier. history and
// metrics may be nil.
func NewServer(cfg Config, classifier *ml.Classifier, history HistoryStore, metrics Recorder) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}

	s := &Server{
		cfg:        cfg,
		classifier: classifier,
		history:    history,
		metrics:    metrics,
		page:       pageTemplate,
		clients:    make(map[*websocket.Conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	// websocket sessions outlive the request timeout
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Get("/", s.handleIndex)
		r.Get("/health", s.handleHealth)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.cfg.AllowedOrigins,
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
				ExposedHeaders: []string{"X-Request-Id"},
				MaxAge:         300,
			}))

			r.Post("/predict", restHandler(s.handlePredict))
			r.Post("/transform", restHandler(s.handleTransform))
			r.Get("/schema", restHandler(s.handleSchema))
			r.Get("/model", restHandler(s.handleModel))
			r.Get("/history", restHandler(s.handleHistory))
		})
	})

	return r
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("web server is already running")
	}

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Bool("model_loaded", s.classifier.Available()).
			Msg("Starting web server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Web server failed")
		}
	}()

	s.isRunning = true
	return nil
}

// Stop closes websocket sessions and shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.clientsMu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.clientsMu.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown web server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Web server stopped")
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	if slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	// same-origin page
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.classifier.GetHealthStatus()

	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

type nopRecorder struct{}

func (nopRecorder) FeatureSampleCount(int)                        {}
func (nopRecorder) FeatureCalcDuration(time.Duration)             {}
func (nopRecorder) InvalidInputsInc()                             {}
func (nopRecorder) HTTPRequestObserve(string, int, time.Duration) {}
func (nopRecorder) WSSessionsAdd(float64)                         {}
