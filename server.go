// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// Server represents a server instance serving requests through the middleware.
type Server struct {
	server      *http.Server
	handler     http.Handler
	middleware  *Middleware
	certFile    string
	keyFile     string
	graceful    bool
	gracePeriod time.Duration
}

// NewServer creates a new Server instance.
func NewServer() *Server {
	return &Server{server: &http.Server{ReadHeaderTimeout: 10 * time.Second}}
}

// Graceful enables graceful shutdown.
// Awaits TERM/INT signals and exits when http shutdown completed.
// Caller may define gracePeriod to wait before shutting down, or zero to wait till server connections are closed.
func (s *Server) Graceful(gracePeriod time.Duration) *Server {
	s.graceful = true
	s.gracePeriod = gracePeriod
	return s
}

// Addr sets address to listen on. E.g. ":8080".
func (s *Server) Addr(addr string) *Server {
	s.server.Addr = addr
	return s
}

// Middleware sets the tracing middleware wrapping the handler.
func (s *Server) Middleware(m *Middleware) *Server {
	s.middleware = m
	return s
}

// Handler defines handler for server, wrapped by the middleware if set.
// If handler is nil, then http.DefaultServeMux is used.
func (s *Server) Handler(handler http.Handler) *Server {
	s.handler = handler
	return s
}

func (s *Server) prepare() {
	handler := s.handler
	if handler == nil {
		handler = http.DefaultServeMux
	}
	if s.middleware != nil {
		handler = s.middleware.Wrap(handler)
	}
	s.server.Handler = handler
}

// ListenAndServe starts listening and serves requests, blocking the caller.
// Uses HTTPS if server key+cert is set, otherwise HTTP.
// When Graceful() is used it may return nil.
func (s *Server) ListenAndServe() error {
	return s.run(s.listenAndServe)
}

// Serve serves requests accepted on l, blocking the caller.
// When Graceful() is used it may return nil.
func (s *Server) Serve(l net.Listener) error {
	return s.run(func() error { return s.serve(l) })
}

func (s *Server) run(serve func() error) error {
	if !s.graceful {
		return serve()
	}

	c := make(chan error)

	go func() {
		if err := serve(); err != http.ErrServerClosed {
			c <- err
		}
	}()

	go waitForSignal(c)

	if err := <-c; err != nil {
		return err
	}

	var shutdownErr error
	if s.gracePeriod > 0 {
		log.Debug("Waiting grace period: ", s.gracePeriod)

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), s.gracePeriod)
		defer cancel()
		shutdownErr = s.server.Shutdown(ctx)
		elapsed := time.Since(start)

		if elapsed < s.gracePeriod {
			time.Sleep(s.gracePeriod - elapsed)
		}
	} else {
		shutdownErr = s.server.Shutdown(context.Background())
	}

	log.Debug("Shutting down")
	return shutdownErr
}

func waitForSignal(c chan error) {
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGTERM, syscall.SIGINT)
	log.Info("Signal received: ", <-signalChannel)
	c <- nil
}

func (s *Server) listenAndServe() error {
	s.prepare()
	if s.isTLS() {
		return s.server.ListenAndServeTLS(s.certFile, s.keyFile)
	}
	return s.server.ListenAndServe()
}

func (s *Server) serve(l net.Listener) error {
	s.prepare()
	if s.isTLS() {
		return s.server.ServeTLS(l, s.certFile, s.keyFile)
	}
	return s.server.Serve(l)
}

// Close immediately closes all connections.
func (s *Server) Close() error {
	return s.server.Close()
}

// Shutdown closes all connections gracefully.
// E.g. server.Shutdown(context.Background())
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
