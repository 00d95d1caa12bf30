package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getmockd/fakews/pkg/logging"
)

// SessionConfig configures a scripted session.
type SessionConfig struct {
	// Host to bind. Defaults to DefaultHost.
	Host string
	// Port to bind. 0 picks a free port.
	Port int
	// Path is appended to the URL handed to clients. Every path is served.
	Path string
	// Script drives the one connection the session accepts.
	Script *Script
	// Logger receives connection and verdict logs. Defaults to a no-op logger.
	Logger *slog.Logger
	// DrainTimeout bounds how long Close waits for the client to finish.
	DrainTimeout time.Duration
	// MaxMessageSize is the inbound read limit in bytes.
	MaxMessageSize int64
}

// Session is a listener that serves exactly one scripted connection and
// reports whether the client followed the script.
type Session struct {
	id             string
	srv            *server
	matcher        *Matcher
	logger         *slog.Logger
	maxMessageSize int64

	claimed  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once

	closeOnce sync.Once
	closeErr  error
}

// OpenSession binds a listener and starts serving the script. The caller
// must call Close, which returns the verdict error.
func OpenSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.Script == nil {
		return nil, ErrNilScript
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Session{
		id:             newID("session"),
		matcher:        NewMatcher(cfg.Script),
		maxMessageSize: cfg.MaxMessageSize,
		done:           make(chan struct{}),
	}
	s.logger = logger.With("session", s.id)
	if name := cfg.Script.Name(); name != "" {
		s.logger = s.logger.With("script", name)
	}
	s.matcher.SetLogger(s.logger)

	srv, err := listen(ctx, listenConfig{
		host:         cfg.Host,
		port:         cfg.Port,
		path:         cfg.Path,
		drainTimeout: cfg.DrainTimeout,
		logger:       s.logger,
	}, http.HandlerFunc(s.handle))
	if err != nil {
		return nil, err
	}
	s.srv = srv
	srv.start()
	s.logger.Info("scripted session listening", "url", srv.URL(), "steps", cfg.Script.Len())
	return s, nil
}

// RunSession opens a session, runs fn against it and always closes it.
// A normal closure reported by fn is not an error. Otherwise fn's error and
// the verdict error are joined.
func RunSession(ctx context.Context, cfg SessionConfig, fn func(*Session) error) (err error) {
	s, err := OpenSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := s.Close()
		if IsNormalClosure(err) {
			err = nil
		}
		err = errors.Join(err, closeErr)
	}()
	return fn(s)
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// URL returns the ws:// URL clients should dial.
func (s *Session) URL() string {
	return s.srv.URL()
}

// Addr returns the bound listener address.
func (s *Session) Addr() string {
	return s.srv.Addr()
}

// Verdict returns the current verdict. It is final once Done is closed.
func (s *Session) Verdict() Verdict {
	return s.matcher.Verdict()
}

// Done is closed when the scripted connection has finished, or when the
// session is closed without one.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close tears the listener down, waits for the scripted connection to
// finish and returns the verdict error, nil when the script passed.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.srv.close(); err != nil {
			s.logger.Warn("listener shutdown failed", "error", err)
		}
		s.matcher.Finish()
		s.markDone()

		v := s.matcher.Verdict()
		if v.Passed {
			s.logger.Info("scripted session passed")
		} else {
			s.logger.Warn("scripted session failed", "error", v.Err)
		}
		s.closeErr = v.Err
	})
	return s.closeErr
}

// handle accepts the first WebSocket client and refuses the rest.
func (s *Session) handle(w http.ResponseWriter, r *http.Request) {
	if rejectNonUpgrade(w, r) {
		return
	}
	release, ok := s.srv.track()
	if !ok {
		http.Error(w, ErrServerClosing.Error(), http.StatusServiceUnavailable)
		return
	}
	defer release()

	if !s.claimed.CompareAndSwap(false, true) {
		s.logger.Warn("refusing extra connection", "remote", r.RemoteAddr)
		http.Error(w, ErrSessionClaimed.Error(), http.StatusConflict)
		return
	}

	conn, err := accept(w, r, s.maxMessageSize, s.logger)
	if err != nil {
		s.logger.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		s.claimed.Store(false)
		return
	}
	s.serve(s.srv.ctx, conn)
}

// serve runs the matcher over one connection until the client goes away,
// the script fails, or ctx is cancelled by Close.
func (s *Session) serve(ctx context.Context, conn *Connection) {
	defer s.markDone()
	s.logger.Info("client connected", "conn", conn.ID(), "remote", conn.RemoteAddr())

	var readErr error
	if s.matcher.Start(ctx, conn) {
		for {
			msg, err := conn.Read(ctx)
			if err != nil {
				if IsNormalClosure(err) {
					s.logger.Debug("client closed", "conn", conn.ID(), "error", err)
				} else {
					s.logger.Warn("read failed", "conn", conn.ID(), "error", err)
					readErr = err
				}
				break
			}
			if !s.matcher.Handle(ctx, conn, msg) {
				break
			}
		}
	}
	s.matcher.FinishWithError(readErr)

	if err := conn.CloseNormal(); err != nil && !IsNormalClosure(err) {
		s.logger.Debug("close failed", "conn", conn.ID(), "error", err)
	}
	s.logger.Info("client disconnected",
		"conn", conn.ID(),
		"received", conn.MessagesReceived(),
		"sent", conn.MessagesSent(),
		"duration", time.Since(conn.ConnectedAt()),
		"idle", time.Since(conn.LastMessageAt()),
		"state", s.matcher.State().String(),
	)
}

func (s *Session) markDone() {
	s.doneOnce.Do(func() { close(s.done) })
}
