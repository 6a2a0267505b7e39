package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Brownie44l1/minihttp/internal/pool"
	"github.com/Brownie44l1/minihttp/internal/request"
	"github.com/Brownie44l1/minihttp/internal/response"
)

const instrumentationName = "github.com/Brownie44l1/minihttp/internal/server"

var (
	ErrServerClosed = errors.New("server closed")
	ErrNilHandler   = errors.New("nil handler")
)

// Handler turns one parsed request into one response
type Handler func(req *request.Request) response.Response

// Middleware wraps a handler
type Middleware func(Handler) Handler

// Server accepts TCP connections and serves exactly one request on each
type Server struct {
	cfg      Config
	listener net.Listener
	workers  *pool.Pool
	logger   Logger
	metrics  *Metrics
	tracer   trace.Tracer

	mu       sync.Mutex
	handler  Handler
	stopping bool
	conns    sync.WaitGroup
	closed   atomic.Bool
}

// New binds cfg.Addr and prepares the worker pool. Connections are only
// accepted once Serve is called.
func New(cfg Config, h Handler) (*Server, error) {
	if h == nil {
		return nil, ErrNilHandler
	}

	logger := cfg.Logger
	if logger == nil {
		logger = &NullLogger{}
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	metrics, err := NewMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		handler: h,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}

	if cfg.PoolSize > 0 {
		s.workers, err = pool.New(cfg.PoolSize, pool.WithPanicHandler(func(worker int, r any) {
			logger.Error("worker recovered from panic",
				Field{"worker", worker},
				Field{"error", fmt.Sprint(r)},
			)
		}))
		if err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		if s.workers != nil {
			s.workers.Close()
		}
		return nil, fmt.Errorf("binding %s: %w", cfg.Addr, err)
	}
	s.listener = listener

	return s, nil
}

// Use wraps the handler with middleware. The first middleware is the
// outermost one.
func (s *Server) Use(mw ...Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(mw) - 1; i >= 0; i-- {
		s.handler = mw[i](s.handler)
	}
}

// Addr returns the bound address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Logger returns the logger the server was configured with
func (s *Server) Logger() Logger {
	return s.logger
}

// Stats returns a snapshot of the server metrics
func (s *Server) Stats() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Serve accepts connections until Close or Shutdown is called. It always
// returns a non-nil error, ErrServerClosed after a requested stop.
func (s *Server) Serve() error {
	s.logger.Info("server listening",
		Field{"addr", s.Addr().String()},
		Field{"workers", s.cfg.PoolSize},
	)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Error("accept failed", Field{"error", err.Error()})
			continue
		}

		s.dispatch(conn)
	}
}

func (s *Server) dispatch(conn net.Conn) {
	if !s.track() {
		conn.Close()
		return
	}

	if s.workers == nil {
		s.serveConn(conn)
		return
	}

	if err := s.workers.Execute(func() { s.serveConn(conn) }); err != nil {
		s.logger.Warn("worker pool rejected connection, serving inline",
			Field{"remote_addr", conn.RemoteAddr().String()},
			Field{"error", err.Error()},
		)
		s.serveConn(conn)
	}
}

// track registers a connection unless a shutdown has started
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return false
	}
	s.conns.Add(1)
	return true
}

func (s *Server) currentHandler() Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler
}

// Close stops accepting connections and waits for the workers to finish
// what they already picked up.
func (s *Server) Close() error {
	err := s.stopListening()
	if s.workers != nil {
		s.workers.Close()
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight ones, or
// for ctx to be done.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.stopListening()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		if s.workers != nil {
			s.workers.Close()
		}
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("server stopped", Field{"requests", s.metrics.RequestsTotal.Load()})
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) stopListening() error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	s.mu.Unlock()

	s.closed.Store(true)
	return s.listener.Close()
}
