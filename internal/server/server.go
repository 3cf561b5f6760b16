// Package server exposes the page pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Timeouts applied to the HTTP server.
const (
	ReadHeaderTimeout      = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Server runs the HTTP listener.
type Server struct {
	httpServer      *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// New returns a Server listening on addr. A zero shutdownTimeout uses
// [DefaultShutdownTimeout].
func New(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: ReadHeaderTimeout,
			ErrorLog:          zap.NewStdLog(logger.Named("http")),
		},
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

// ListenAndServe runs the HTTP server until ctx ends, then drains in-flight
// requests for at most the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
