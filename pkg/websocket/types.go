package websocket

import (
	"strconv"

	ws "github.com/coder/websocket"
)

// MessageType represents the type of WebSocket message.
type MessageType int

const (
	// MessageText indicates a UTF-8 encoded text message.
	MessageText MessageType = 1
	// MessageBinary indicates a binary message.
	MessageBinary MessageType = 2
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Message is a single WebSocket payload, either text or binary.
//
// The payload is held as a string so a Message is an immutable, comparable
// value. Two messages are equal only when both type and bytes are equal: a
// text message never equals a binary message carrying the same bytes.
type Message struct {
	typ  MessageType
	data string
}

// TextMessage creates a text message.
func TextMessage(s string) Message {
	return Message{typ: MessageText, data: s}
}

// BinaryMessage creates a binary message. The bytes are copied.
func BinaryMessage(b []byte) Message {
	return Message{typ: MessageBinary, data: string(b)}
}

// Type returns the message type.
func (m Message) Type() MessageType {
	return m.typ
}

// IsText reports whether m is a text message.
func (m Message) IsText() bool {
	return m.typ == MessageText
}

// IsBinary reports whether m is a binary message.
func (m Message) IsBinary() bool {
	return m.typ == MessageBinary
}

// IsZero reports whether m is the zero Message (neither text nor binary).
func (m Message) IsZero() bool {
	return m.typ == 0
}

// Text returns the payload as a string.
func (m Message) Text() string {
	return m.data
}

// Bytes returns a copy of the payload.
func (m Message) Bytes() []byte {
	return []byte(m.data)
}

// Len returns the payload size in bytes.
func (m Message) Len() int {
	return len(m.data)
}

// Equal reports whether two messages have the same type and payload.
func (m Message) Equal(other Message) bool {
	return m.typ == other.typ && m.data == other.data
}

// String renders the message for diagnostics. Text renders as a quoted
// string, binary as a b-prefixed quoted byte string.
func (m Message) String() string {
	switch m.typ {
	case MessageText:
		return strconv.Quote(m.data)
	case MessageBinary:
		return "b" + strconv.Quote(m.data)
	default:
		return "<none>"
	}
}

// wireType maps a message type onto the transport's frame type.
func wireType(t MessageType) ws.MessageType {
	if t == MessageBinary {
		return ws.MessageBinary
	}
	return ws.MessageText
}

// fromWire builds a Message from a frame read off the transport.
func fromWire(t ws.MessageType, data []byte) Message {
	if t == ws.MessageBinary {
		return BinaryMessage(data)
	}
	return Message{typ: MessageText, data: string(data)}
}
