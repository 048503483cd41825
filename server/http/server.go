package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/w-h-a/pdfrag/server"
)

type httpServer struct {
	options  server.Options
	handler  http.Handler
	srv      *http.Server
	listener net.Listener
	mtx      sync.RWMutex
}

func (s *httpServer) Options() server.Options {
	return s.options
}

func (s *httpServer) Handle(handler http.Handler) error {
	if handler == nil {
		return errors.New("nil handler")
	}

	if ms, ok := MiddlewareFrom(s.options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.handler = handler

	return nil
}

// Start binds the address and serves in the background.
func (s *httpServer) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.handler == nil {
		return errors.New("no handler registered")
	}

	if s.srv != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.options.Address)
	if err != nil {
		return err
	}

	readTimeout := 5 * time.Minute
	if d, ok := ReadTimeoutFrom(s.options.Context); ok {
		readTimeout = d
	}

	s.listener = listener
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
	}

	srv := s.srv

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(context.Background(), "http server stopped", "error", err)
		}
	}()

	slog.InfoContext(context.Background(), "http server started", "name", s.options.Name, "address", listener.Addr().String())

	return nil
}

func (s *httpServer) Stop(ctx context.Context) error {
	s.mtx.Lock()
	srv := s.srv
	s.srv = nil
	s.mtx.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

func (s *httpServer) Address() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.listener == nil {
		return s.options.Address
	}

	return s.listener.Addr().String()
}

func NewServer(opts ...server.Option) server.Server {
	options := server.NewOptions(opts...)

	return &httpServer{
		options: options,
	}
}
