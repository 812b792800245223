package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/DRSN-tech/medical-ann/internal/cfg"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/jimlawless/whereami"
)

type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

func NewServer(handler http.Handler, cfg *cfg.HTTPConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Listen занимает порт заранее, чтобы ошибка bind вернулась до запуска горутины сервера.
func (s *Server) Listen() (string, error) {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}
	s.listener = lis

	return lis.Addr().String(), nil
}

// Run обслуживает запросы до Stop. http.ErrServerClosed не считается ошибкой.
func (s *Server) Run() error {
	var err error
	if s.listener != nil {
		err = s.httpServer.Serve(s.listener)
	} else {
		err = s.httpServer.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Stop завершает сервер и освобождает порт, даже если Run так и не был вызван.
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.listener != nil {
		if cerr := s.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) && err == nil {
			err = cerr
		}
	}

	return err
}
