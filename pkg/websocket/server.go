package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/fakews/pkg/logging"
)

const (
	// DefaultHost is the interface fake endpoints bind to when none is given.
	DefaultHost = "localhost"
	// DefaultDrainTimeout bounds how long teardown waits for live
	// connections to finish on their own before cancelling them.
	DefaultDrainTimeout = 200 * time.Millisecond
)

// listenConfig holds the listener settings shared by Session and Responder.
type listenConfig struct {
	host         string
	port         int
	path         string
	drainTimeout time.Duration
	logger       *slog.Logger
}

// server owns one listener for the lifetime of a Session or Responder.
// Connection handlers run on the server's goroutines and are tracked so that
// close can wait for them.
type server struct {
	cfg      listenConfig
	listener net.Listener
	http     *http.Server
	group    *errgroup.Group

	// ctx is handed to connection handlers; close cancels it after the drain.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closing  bool
	handlers sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// listen binds host:port. Nothing is served until start is called.
func listen(ctx context.Context, cfg listenConfig, h http.Handler) (*server, error) {
	if cfg.host == "" {
		cfg.host = DefaultHost
	}
	if cfg.path == "" {
		cfg.path = "/"
	}
	if cfg.drainTimeout <= 0 {
		cfg.drainTimeout = DefaultDrainTimeout
	}
	if cfg.logger == nil {
		cfg.logger = logging.Nop()
	}

	addr := net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s := &server{
		cfg:      cfg,
		listener: ln,
		http: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		group: &errgroup.Group{},
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	return s, nil
}

// start begins accepting connections in the background.
func (s *server) start() {
	s.group.Go(func() error {
		if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
}

// Addr returns the bound address, with the real port when 0 was requested.
func (s *server) Addr() string {
	return s.listener.Addr().String()
}

// URL returns the ws:// URL clients should dial.
func (s *server) URL() string {
	_, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return "ws://" + s.Addr() + s.cfg.path
	}
	return "ws://" + net.JoinHostPort(s.cfg.host, port) + s.cfg.path
}

// track registers a connection handler. The returned release must be called
// when the handler returns. ok is false once close has begun.
func (s *server) track() (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return nil, false
	}
	s.handlers.Add(1)
	return s.handlers.Done, true
}

// close stops accepting, lets live handlers drain for up to the drain
// timeout, then cancels them and waits. It is safe to call more than once.
func (s *server) close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.drainTimeout)
		defer cancel()
		shutdownErr := s.http.Shutdown(shutdownCtx)
		if errors.Is(shutdownErr, context.DeadlineExceeded) {
			shutdownErr = s.http.Close()
		}
		serveErr := s.group.Wait()

		drained := make(chan struct{})
		go func() {
			s.handlers.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(s.cfg.drainTimeout):
			s.cfg.logger.Debug("cancelling live connections", "timeout", s.cfg.drainTimeout)
		}
		s.cancel()
		<-drained

		s.closeErr = errors.Join(shutdownErr, serveErr)
	})
	return s.closeErr
}
