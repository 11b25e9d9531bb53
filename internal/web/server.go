package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/voice-attendance/internal/attendance"
	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/matcher"
	"github.com/kozaktomas/voice-attendance/internal/roster"
	"github.com/kozaktomas/voice-attendance/internal/voiceprint"
	"github.com/kozaktomas/voice-attendance/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server

	roster   *roster.Roster
	matcher  *matcher.Matcher
	ledger   *attendance.Ledger
	embedder voiceprint.Embedder
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, port int, host string, r *roster.Roster, m *matcher.Matcher, l *attendance.Ledger, embedder voiceprint.Embedder) *Server {
	router := chi.NewRouter()

	s := &Server{
		config:   cfg,
		router:   router,
		roster:   r,
		matcher:  m,
		ledger:   l,
		embedder: embedder,
	}

	// Set up middleware stack
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.Timeout(time.Minute))
	router.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute, // audio uploads plus a round-trip to the embedding server
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
