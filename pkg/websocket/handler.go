package websocket

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	ws "github.com/coder/websocket"
)

// IsNormalClosure reports whether err is an expected end of a connection:
// a normal, going-away or status-less close frame, EOF, a closed socket or
// a cancelled context. Such errors are not failures; only the verdict is.
func IsNormalClosure(err error) bool {
	if err == nil {
		return false
	}
	switch ws.CloseStatus(err) {
	case ws.StatusNormalClosure, ws.StatusGoingAway, ws.StatusNoStatusRcvd:
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, ErrConnectionClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, net.ErrClosed)
}

// isPeerGone reports whether a write failed because the client already left.
func isPeerGone(err error) bool {
	return IsNormalClosure(err) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}

// IsWebSocketRequest returns true if the request is a WebSocket upgrade request.
func IsWebSocketRequest(r *http.Request) bool {
	conn := r.Header.Get("Connection")
	if !strings.Contains(strings.ToLower(conn), "upgrade") {
		return false
	}
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// rejectNonUpgrade answers plain HTTP requests and reports whether it did.
func rejectNonUpgrade(w http.ResponseWriter, r *http.Request) bool {
	if IsWebSocketRequest(r) {
		return false
	}
	http.Error(w, "WebSocket upgrade required", http.StatusBadRequest)
	return true
}
