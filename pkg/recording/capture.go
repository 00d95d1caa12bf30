package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/getmockd/fakews/pkg/logging"
	"github.com/getmockd/fakews/pkg/websocket"
)

// Client is the client side of a WebSocket connection as seen by a capture.
type Client interface {
	// Send writes one message.
	Send(ctx context.Context, m websocket.Message) error
	// Receive blocks until a message arrives or ctx is done. An expired ctx
	// must abandon only the wait, never the connection.
	Receive(ctx context.Context) (websocket.Message, error)
}

// CaptureOptions bounds a capture. Zero means "not set" for both limits and
// at least one must be set.
type CaptureOptions struct {
	// Timeout is the longest a single receive may wait. When it expires the
	// capture stops without error.
	Timeout time.Duration
	// NumResponses stops the capture after that many received messages.
	NumResponses int
	// Logger traces each recorded entry. Defaults to a no-op logger.
	Logger *slog.Logger
}

// Validate reports ErrInvalidArguments for unusable options.
func (o CaptureOptions) Validate() error {
	if o.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative, got %s", ErrInvalidArguments, o.Timeout)
	}
	if o.NumResponses < 0 {
		return fmt.Errorf("%w: num responses must not be negative, got %d", ErrInvalidArguments, o.NumResponses)
	}
	if o.Timeout == 0 && o.NumResponses == 0 {
		return fmt.Errorf("%w: a timeout or a number of responses is required", ErrInvalidArguments)
	}
	return nil
}

// Capture sends outbound through client and records the messages that come
// back until NumResponses is reached, a receive times out, or the peer
// closes the connection.
func Capture(ctx context.Context, outbound websocket.Message, client Client, opts CaptureOptions) (*Transcript, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	t := NewTranscript()
	if err := client.Send(ctx, outbound); err != nil {
		return t, fmt.Errorf("failed to send message: %w", err)
	}
	t.Append(DirectionSend, outbound)
	logger.Debug("recorded", "type", DirectionSend, "message", outbound.String())

	for opts.NumResponses == 0 || t.Received() < opts.NumResponses {
		m, err := receive(ctx, client, opts.Timeout)
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
				logger.Debug("receive timed out", "timeout", opts.Timeout, "received", t.Received())
				return t, nil
			case websocket.IsNormalClosure(err) && ctx.Err() == nil:
				logger.Debug("connection closed by peer", "received", t.Received())
				return t, nil
			default:
				return t, fmt.Errorf("failed to receive message: %w", err)
			}
		}
		t.Append(DirectionReceive, m)
		logger.Debug("recorded", "type", DirectionReceive, "message", m.String())
	}
	return t, nil
}

// Record runs Capture and writes the transcript to sink. Nothing is written
// when the options are invalid.
func Record(ctx context.Context, outbound websocket.Message, client Client, sink io.Writer, opts CaptureOptions) error {
	t, err := Capture(ctx, outbound, client, opts)
	if err != nil {
		return err
	}
	if _, err := t.WriteTo(sink); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

func receive(ctx context.Context, client Client, timeout time.Duration) (websocket.Message, error) {
	if timeout <= 0 {
		return client.Receive(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Receive(attemptCtx)
}
