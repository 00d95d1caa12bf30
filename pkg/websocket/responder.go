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

// ResponderConfig configures an unconditional responder.
type ResponderConfig struct {
	Host string
	Port int
	Path string
	// Responses are sent, in order, after every inbound message.
	Responses []Message
	Logger    *slog.Logger
	// DrainTimeout bounds how long Close waits for clients to finish.
	DrainTimeout   time.Duration
	MaxMessageSize int64
}

// Responder answers every inbound message with the same fixed list of
// messages. It has no script and no verdict; it is the peer a capture run
// records against.
type Responder struct {
	id             string
	srv            *server
	responses      []Message
	logger         *slog.Logger
	maxMessageSize int64

	connections atomic.Int64
	firstDone   chan struct{}
	firstOnce   sync.Once
}

// ServeFixedResponses binds a listener and starts answering. The caller
// must call Close.
func ServeFixedResponses(ctx context.Context, cfg ResponderConfig) (*Responder, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	r := &Responder{
		id:             newID("responder"),
		responses:      append([]Message(nil), cfg.Responses...),
		maxMessageSize: cfg.MaxMessageSize,
		firstDone:      make(chan struct{}),
	}
	r.logger = logger.With("responder", r.id)

	srv, err := listen(ctx, listenConfig{
		host:         cfg.Host,
		port:         cfg.Port,
		path:         cfg.Path,
		drainTimeout: cfg.DrainTimeout,
		logger:       r.logger,
	}, http.HandlerFunc(r.handle))
	if err != nil {
		return nil, err
	}
	r.srv = srv
	srv.start()
	r.logger.Info("responder listening", "url", srv.URL(), "responses", len(r.responses))
	return r, nil
}

// RunResponder serves fixed responses for the duration of fn and always
// tears the listener down afterwards.
func RunResponder(ctx context.Context, cfg ResponderConfig, fn func(*Responder) error) (err error) {
	r, err := ServeFixedResponses(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := r.Close()
		if IsNormalClosure(err) {
			err = nil
		}
		err = errors.Join(err, closeErr)
	}()
	return fn(r)
}

// URL returns the ws:// URL clients should dial.
func (r *Responder) URL() string {
	return r.srv.URL()
}

// Addr returns the bound listener address.
func (r *Responder) Addr() string {
	return r.srv.Addr()
}

// Connections returns the number of connections accepted so far.
func (r *Responder) Connections() int64 {
	return r.connections.Load()
}

// ConnectionDone is closed when the first accepted connection ends.
func (r *Responder) ConnectionDone() <-chan struct{} {
	return r.firstDone
}

// Close stops the listener and waits for live connections to end.
func (r *Responder) Close() error {
	return r.srv.close()
}

func (r *Responder) handle(w http.ResponseWriter, req *http.Request) {
	if rejectNonUpgrade(w, req) {
		return
	}
	release, ok := r.srv.track()
	if !ok {
		http.Error(w, ErrServerClosing.Error(), http.StatusServiceUnavailable)
		return
	}
	defer release()

	conn, err := accept(w, req, r.maxMessageSize, r.logger)
	if err != nil {
		r.logger.Warn("websocket accept failed", "remote", req.RemoteAddr, "error", err)
		return
	}
	r.connections.Add(1)
	defer r.firstOnce.Do(func() { close(r.firstDone) })
	r.serve(r.srv.ctx, conn)
}

func (r *Responder) serve(ctx context.Context, conn *Connection) {
	r.logger.Info("client connected", "conn", conn.ID(), "remote", conn.RemoteAddr())
	defer func() {
		if err := conn.CloseNormal(); err != nil && !IsNormalClosure(err) {
			r.logger.Debug("close failed", "conn", conn.ID(), "error", err)
		}
		r.logger.Info("client disconnected",
			"conn", conn.ID(),
			"received", conn.MessagesReceived(),
			"sent", conn.MessagesSent(),
			"duration", time.Since(conn.ConnectedAt()),
			"idle", time.Since(conn.LastMessageAt()),
		)
	}()

	for {
		msg, err := conn.Read(ctx)
		if err != nil {
			if !IsNormalClosure(err) {
				r.logger.Warn("read failed", "conn", conn.ID(), "error", err)
			}
			return
		}
		for _, resp := range r.responses {
			if err := conn.Send(ctx, resp); err != nil {
				r.logger.Warn("send failed", "conn", conn.ID(), "message", msg.String(), "error", err)
				return
			}
		}
	}
}
