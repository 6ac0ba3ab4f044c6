package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"harcurl/internal/config"
	"harcurl/internal/oracle"
	"harcurl/internal/pipeline"
)

// Server is the main HTTP server.
type Server struct {
	Config     *config.Config
	Pipeline   *pipeline.Pipeline
	httpServer *http.Server
}

// New creates a server with all routes registered.
func New(cfg *config.Config, selector oracle.Selector) *Server {
	s := &Server{
		Config:   cfg,
		Pipeline: pipeline.New(cfg, selector),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/reverse-engineer", s.handleReverseEngineer)
	mux.HandleFunc("POST /api/execute-curl", s.handleExecuteCurl)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	handler := c.Handler(loggingMiddleware(cfg, mux))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
