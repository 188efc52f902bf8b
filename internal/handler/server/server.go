package server

import (
	"context"
	"net/http"

	"github.com/bagdasarian/time-tracker/internal/handler"
	"github.com/sirupsen/logrus"
)

type Server struct {
	server *http.Server
	log    logrus.FieldLogger
}

func NewServer(h *handler.Handler, addr string, log logrus.FieldLogger) *Server {
	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: SetupRoutes(h),
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Infof("Server starting on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.log.Info("Server stopped")
	return nil
}
