package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/syncgate/internal/observability/logger"
)

// Server envuelve http.Server con timeouts y shutdown ordenado.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start bloquea sirviendo requests hasta Shutdown o error fatal.
func (s *Server) Start() error {
	logger.L().Info("http server listening", logger.Any("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drena conexiones en curso hasta que expire ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
