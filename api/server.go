package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rematter-io/rematter-backend/pkg/config"
	"github.com/rematter-io/rematter-backend/pkg/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	http *http.Server
	logg *logger.Logger
}

func NewServer(cfg config.AppConfig, handler http.Handler, logg *logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logg: logg,
	}
}

// Start blocks until the listener stops. A graceful shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "addr", s.http.Addr)
	s.logg.Info(ctx, "server.listening")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests before closing.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logg.Info(ctx, "server.shutting_down")
	return s.http.Shutdown(ctx)
}
