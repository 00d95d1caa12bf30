package recording

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/getmockd/fakews/pkg/websocket"
)

// DefaultHandshakeTimeout bounds the opening handshake of DialClient.
const DefaultHandshakeTimeout = 10 * time.Second

// closeGrace is how long Close waits for the peer to answer a close frame.
const closeGrace = time.Second

// GorillaClient adapts a gorilla/websocket connection to Client.
//
// A background goroutine owns all reads and hands messages over a channel,
// so a Receive whose context expires leaves the connection usable.
type GorillaClient struct {
	conn     *gws.Conn
	incoming chan websocket.Message
	readDone chan struct{}
	readErr  error
	done     chan struct{}
	writeMu  sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewGorillaClient wraps an established connection and starts reading.
func NewGorillaClient(conn *gws.Conn) *GorillaClient {
	c := &GorillaClient{
		conn:     conn,
		incoming: make(chan websocket.Message, 64),
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// DialClient connects to url and returns a ready client.
func DialClient(ctx context.Context, url string, header http.Header) (*GorillaClient, error) {
	dialer := gws.Dialer{
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection failed: %w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return NewGorillaClient(conn), nil
}

func (c *GorillaClient) readLoop() {
	defer close(c.readDone)
	defer close(c.incoming)
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			if gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway, gws.CloseNoStatusReceived) {
				err = fmt.Errorf("%w: %w", websocket.ErrConnectionClosed, err)
			}
			c.readErr = err
			return
		}

		var m websocket.Message
		if typ == gws.BinaryMessage {
			m = websocket.BinaryMessage(data)
		} else {
			m = websocket.TextMessage(string(data))
		}

		select {
		case c.incoming <- m:
		case <-c.done:
			c.readErr = websocket.ErrConnectionClosed
			return
		}
	}
}

// Send writes m, honouring ctx's deadline.
func (c *GorillaClient) Send(ctx context.Context, m websocket.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	typ := gws.TextMessage
	if m.IsBinary() {
		typ = gws.BinaryMessage
	}
	return c.conn.WriteMessage(typ, m.Bytes())
}

// Receive returns the next message. When the connection has ended it
// returns the read error; a normal closure wraps websocket.ErrConnectionClosed.
func (c *GorillaClient) Receive(ctx context.Context) (websocket.Message, error) {
	select {
	case m, ok := <-c.incoming:
		if !ok {
			<-c.readDone
			return websocket.Message{}, c.readErr
		}
		return m, nil
	case <-ctx.Done():
		return websocket.Message{}, ctx.Err()
	}
}

// Closed reports whether the connection has stopped delivering messages,
// either because the peer closed it or because Close was called.
func (c *GorillaClient) Closed() bool {
	select {
	case <-c.readDone:
		return true
	default:
		return false
	}
}

// Close performs the closing handshake and releases the connection.
func (c *GorillaClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		err := c.conn.WriteControl(gws.CloseMessage,
			gws.FormatCloseMessage(gws.CloseNormalClosure, ""),
			time.Now().Add(closeGrace))
		c.writeMu.Unlock()

		if err == nil {
			select {
			case <-c.readDone:
			case <-time.After(closeGrace):
			}
		}
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
