package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/twitstock/pkg/config"
	"github.com/wonny/twitstock/pkg/logger"
)

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	hub        *Hub
	logger     *logger.Logger
	config     *config.Config
}

// New creates a new API server.
// WriteTimeout covers a full load/analyze run inside the request.
// hub may be nil; when set its subscribers are disconnected on Shutdown.
func New(cfg *config.Config, log *logger.Logger, router http.Handler, hub *Hub) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      10 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
		hub:    hub,
		logger: log.Module("api"),
		config: cfg,
	}

	if hub != nil {
		s.httpServer.RegisterOnShutdown(hub.Close)
	}

	return s
}

// Start starts the HTTP server; it returns nil after Shutdown
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port": s.config.Port,
		"env":  s.config.Env,
	}).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown drains in-flight requests, then closes run stream subscribers
func (s *Server) Shutdown(ctx context.Context) error {
	fields := map[string]interface{}{}
	if s.hub != nil {
		fields["subscribers"] = s.hub.Clients()
	}
	s.logger.WithFields(fields).Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
