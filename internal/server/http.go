package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServer runs the API with graceful shutdown. Serve blocks until the
// context is cancelled or the listener fails.
type HTTPServer struct {
	addr            string
	handler         http.Handler
	log             *slog.Logger
	shutdownTimeout time.Duration

	ready   chan struct{}
	boundTo string
}

func NewHTTPServer(addr string, handler http.Handler, log *slog.Logger) *HTTPServer {
	return &HTTPServer{
		addr:            addr,
		handler:         handler,
		log:             log,
		shutdownTimeout: defaultShutdownTimeout,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the listener is bound. Tests wait on it before
// issuing requests against Addr.
func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr reports the bound address. Valid only after Ready is closed.
func (s *HTTPServer) Addr() string {
	return s.boundTo
}

func (s *HTTPServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.boundTo = listener.Addr().String()
	close(s.ready)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(listener)
	}()
	s.log.Info("http server listening", "addr", s.boundTo)

	select {
	case err := <-serveDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-serveDone
	return nil
}
