// Package api provides the HTTP serving layer over the prediction store.
// The store is loaded once, immutable for the life of the process, and every
// handler reads from the same Context; regeneration means restarting with a
// fresh batch output. Serving errors are per-request and never touch the
// loaded state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/model"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/store"
)

// Context is the immutable process-wide state every request reads from:
// the prediction store (with its optional curve source) and the model
// artifact path for ad-hoc quotes. Built once at startup, never mutated by a
// request.
type Context struct {
	Store     *store.Store
	ModelPath string
}

// Config holds server configuration.
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 1 * 1024 * 1024,
		CORSOrigins:    []string{"*"},
	}
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	ctx        *Context
	config     *Config
	log        *slog.Logger
}

// NewServer creates an API server over a loaded serving context.
func NewServer(sctx *Context, config *Config, log *slog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{ctx: sctx, config: config, log: log}
}

// Handler builds the full middleware-wrapped route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/api/v1/predictions", s.handlePredictions)
	mux.HandleFunc("/api/v1/curve/", s.handleCurve)
	mux.HandleFunc("/api/v1/summary", s.handleSummary)
	mux.HandleFunc("/api/v1/quote", s.handleQuote)

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info("api server starting", "port", s.config.Port, "records", s.ctx.Store.Len())
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains it on SIGINT/SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.log.Info("shutting down api server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "duration", time.Since(start))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}
		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ctx.Store == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "prediction store not loaded")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handlePredictions lists prediction records with exact-match filters.
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	filter := store.Filter{
		FlightNumber: q.Get("flight_number"),
		ClassCode:    q.Get("class_code"),
		CabinName:    q.Get("cabin_name"),
		Origin:       q.Get("origin"),
		Dest:         q.Get("dest"),
		DemandSignal: q.Get("demand_signal"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		filter.Limit = limit
	}

	s.jsonResponse(w, http.StatusOK, s.ctx.Store.Query(filter))
}

// handleCurve serves /api/v1/curve/{flight_number}/{class_code}.
func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/curve/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		s.jsonError(w, http.StatusBadRequest, "expected /api/v1/curve/{flight_number}/{class_code}")
		return
	}

	curve, err := s.ctx.Store.CurveFor(parts[0], parts[1])
	switch {
	case errors.Is(err, store.ErrUnavailable):
		s.jsonError(w, http.StatusServiceUnavailable, "booking data not loaded")
	case errors.Is(err, store.ErrNotFound):
		s.jsonError(w, http.StatusNotFound,
			fmt.Sprintf("no data found for flight %s class %s", parts[0], parts[1]))
	case err != nil:
		s.jsonError(w, http.StatusInternalServerError, err.Error())
	default:
		s.jsonResponse(w, http.StatusOK, curve)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.jsonResponse(w, http.StatusOK, s.ctx.Store.Summarize())
}

// QuoteRequest is the ad-hoc estimation request. This path reloads the model
// artifact fresh and predicts from a minimal feature vector; it is not the
// batch inference path (see demand/model.QuoteEstimator).
type QuoteRequest struct {
	Fare            float64 `json:"fare"`
	CurrentBookings float64 `json:"current_bookings"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Fare <= 0 {
		s.jsonError(w, http.StatusBadRequest, "fare must be positive")
		return
	}

	estimator := &model.QuoteEstimator{Path: s.ctx.ModelPath}
	quote, err := estimator.Estimate(req.Fare, req.CurrentBookings)
	switch {
	case errors.Is(err, model.ErrNoArtifact):
		// Degraded mode: the store still serves, quotes need a trained model.
		s.jsonError(w, http.StatusServiceUnavailable, "model artifact not available, run training first")
	case err != nil:
		s.jsonError(w, http.StatusInternalServerError, err.Error())
	default:
		s.jsonResponse(w, http.StatusOK, quote)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
