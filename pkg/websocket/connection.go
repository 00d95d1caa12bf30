package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"

	"github.com/getmockd/fakews/pkg/logging"
)

// DefaultMaxMessageSize is the read limit applied to accepted connections.
const DefaultMaxMessageSize int64 = 64 * 1024

// Connection is an accepted WebSocket connection owned by a Session or a
// Responder. It implements Sender.
type Connection struct {
	id            string
	conn          *ws.Conn
	remoteAddr    string
	connectedAt   time.Time
	lastMessageAt atomic.Value // time.Time
	messagesSent  atomic.Int64
	messagesRecv  atomic.Int64
	logger        *slog.Logger

	sendMu sync.RWMutex // Coordinates Send with Close
	closed atomic.Bool
}

// accept upgrades the request and wraps the result. Origin checks are
// disabled: any client may connect to a fake endpoint.
func accept(w http.ResponseWriter, r *http.Request, maxMessageSize int64, logger *slog.Logger) (*Connection, error) {
	wsConn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    ws.CompressionDisabled,
	})
	if err != nil {
		return nil, err
	}
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	wsConn.SetReadLimit(maxMessageSize)

	if logger == nil {
		logger = logging.Nop()
	}
	c := &Connection{
		id:          newID("conn"),
		conn:        wsConn,
		remoteAddr:  r.RemoteAddr,
		connectedAt: time.Now(),
	}
	c.logger = logger.With("conn", c.id)
	c.lastMessageAt.Store(c.connectedAt)
	return c, nil
}

// ID returns the unique connection ID.
func (c *Connection) ID() string {
	return c.id
}

// RemoteAddr returns the client address.
func (c *Connection) RemoteAddr() string {
	return c.remoteAddr
}

// ConnectedAt returns the connection establishment time.
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// LastMessageAt returns the time of the last message in either direction.
func (c *Connection) LastMessageAt() time.Time {
	t, ok := c.lastMessageAt.Load().(time.Time)
	if !ok {
		return c.connectedAt
	}
	return t
}

// MessagesSent returns the total messages sent.
func (c *Connection) MessagesSent() int64 {
	return c.messagesSent.Load()
}

// MessagesReceived returns the total messages received.
func (c *Connection) MessagesReceived() int64 {
	return c.messagesRecv.Load()
}

// Send writes one message to the client.
func (c *Connection) Send(ctx context.Context, m Message) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed.Load() {
		return ErrConnectionClosed
	}
	if err := c.conn.Write(ctx, wireType(m.Type()), m.Bytes()); err != nil {
		return err
	}

	c.messagesSent.Add(1)
	c.lastMessageAt.Store(time.Now())
	c.logger.Debug("message sent", "message", m.String())
	return nil
}

// Read blocks until the next message arrives or ctx is done.
func (c *Connection) Read(ctx context.Context) (Message, error) {
	// sendMu is not taken: Read blocks on I/O and Close unblocks it.
	if c.closed.Load() {
		return Message{}, ErrConnectionClosed
	}

	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		return Message{}, err
	}

	c.messagesRecv.Add(1)
	c.lastMessageAt.Store(time.Now())
	m := fromWire(typ, data)
	c.logger.Debug("message received", "message", m.String())
	return m, nil
}

// Close sends a close frame with the given status and reason.
func (c *Connection) Close(code ws.StatusCode, reason string) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed.Swap(true) {
		return ErrConnectionClosed
	}
	return c.conn.Close(code, reason)
}

// CloseNormal closes the connection with a normal closure status.
func (c *Connection) CloseNormal() error {
	return c.Close(ws.StatusNormalClosure, "")
}
