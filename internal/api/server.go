package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/quantbt/pkg/config"
	"github.com/wonny/quantbt/pkg/logger"
)

// Server wraps the read-only results HTTP server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	env        string
}

// New creates the results API server. Reads are short, but the summary of a
// large saved run streams the whole rendered report, so the write timeout is
// the generous one.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: log,
		env:    cfg.Env,
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"addr": s.httpServer.Addr,
		"env":  s.env,
	}).Info("Starting results API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("results API server failed: %w", err)
	}

	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down results API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("results API shutdown failed: %w", err)
	}

	return nil
}
