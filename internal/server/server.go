// Package server runs the forwarding proxy's HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Server owns the listener lifecycle for an Echo instance.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger

	mu   sync.Mutex
	ln   net.Listener
	done chan struct{}
}

// New creates a Server that will listen on addr once started.
func New(e *echo.Echo, addr string, logger *slog.Logger) *Server {
	return &Server{
		echo:   e,
		addr:   addr,
		logger: logger.With("component", "server"),
	}
}

// Start binds the listener and serves in the background. It returns once
// the address is bound.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return fmt.Errorf("server already started on %s", s.ln.Addr())
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}
	s.ln = ln
	s.done = make(chan struct{})

	s.logger.Info("https forward proxy listening", "addr", ln.Addr().String())
	go func() {
		defer close(s.done)
		if err := s.echo.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "err", err)
		}
	}()
	return nil
}

// drainTimeout bounds how long Stop waits for in-flight requests before
// closing their connections. Upstream downloads have no timeout by default.
const drainTimeout = 2 * time.Second

// Stop stops accepting connections and gives in-flight requests until ctx
// expires, or drainTimeout at most, to finish. Connections still open after
// that are closed. Stop always returns nil so a termination signal exits 0.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	s.logger.Info("shutting down server")
	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	if err := s.echo.Shutdown(drainCtx); err != nil {
		s.logger.Warn("in-flight requests did not finish; closing connections", "err", err)
		if err := s.echo.Close(); err != nil {
			s.logger.Warn("closing connections", "err", err)
		}
	}
	<-done
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}
