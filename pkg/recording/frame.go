package recording

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/getmockd/fakews/pkg/websocket"
)

// Frame is the persisted form of one transcript entry.
//
// Text payloads are stored as-is and omit Encoding, so a text-only
// transcript is exactly a list of {"type","data"} objects. Binary payloads
// and text payloads that are not valid UTF-8 are base64 encoded and tagged.
type Frame struct {
	// Type is "send" or "receive".
	Type Direction `json:"type"`

	// Data is the payload (UTF-8 for text, base64 for binary).
	Data string `json:"data"`

	// Encoding is set to base64 for binary payloads.
	Encoding DataEncoding `json:"encoding,omitempty"`
}

// NewFrame encodes a transcript entry for persistence.
func NewFrame(dir Direction, m websocket.Message) Frame {
	frame := Frame{Type: dir}
	switch {
	case m.IsBinary():
		frame.Data = base64.StdEncoding.EncodeToString(m.Bytes())
		frame.Encoding = DataEncodingBase64
	case !utf8.ValidString(m.Text()):
		frame.Data = base64.StdEncoding.EncodeToString(m.Bytes())
		frame.Encoding = DataEncodingBase64Text
	default:
		frame.Data = m.Text()
	}
	return frame
}

// Message decodes the frame payload.
func (f Frame) Message() (websocket.Message, error) {
	switch f.Encoding {
	case DataEncodingBase64:
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return websocket.Message{}, fmt.Errorf("%w: bad base64 payload: %w", ErrCorrupted, err)
		}
		return websocket.BinaryMessage(data), nil
	case DataEncodingBase64Text:
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return websocket.Message{}, fmt.Errorf("%w: bad base64 payload: %w", ErrCorrupted, err)
		}
		return websocket.TextMessage(string(data)), nil
	case "", DataEncodingUTF8:
		return websocket.TextMessage(f.Data), nil
	default:
		return websocket.Message{}, fmt.Errorf("%w: unknown encoding %q", ErrCorrupted, f.Encoding)
	}
}

// Entry decodes the frame into a transcript entry.
func (f Frame) Entry() (Entry, error) {
	if !f.Type.IsValid() {
		return Entry{}, fmt.Errorf("%w: unknown record type %q", ErrCorrupted, f.Type)
	}
	m, err := f.Message()
	if err != nil {
		return Entry{}, err
	}
	return Entry{Direction: f.Type, Payload: m}, nil
}
