package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/soar/controlmapper/internal/logging"
)

// Server is one named HTTP listener.
type Server struct {
	name       string
	addr       string
	handler    http.Handler
	httpServer *http.Server
}

func New(name, addr string, handler http.Handler) *Server {
	return &Server{
		name:    name,
		addr:    addr,
		handler: handler,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe blocks serving requests. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves requests on ln. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	logging.Infof("%s server listening on %s", s.name, ln.Addr())
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully. Serving afterwards is not possible.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Infof("Shutting down %s server...", s.name)
	return s.httpServer.Shutdown(ctx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debugf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
