// Package recording captures live WebSocket exchanges into transcripts and
// turns transcripts back into scripts.
package recording

import "errors"

// Errors for capture and transcript handling.
var (
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrCorrupted        = errors.New("transcript corrupted")
	ErrEmptyTranscript  = errors.New("transcript is empty")
)

// Direction indicates which side produced a transcript entry.
type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
)

// IsValid checks if the direction is valid.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionSend, DirectionReceive:
		return true
	default:
		return false
	}
}

// DataEncoding indicates how a record's data is encoded.
type DataEncoding string

const (
	DataEncodingUTF8   DataEncoding = "utf8"
	DataEncodingBase64 DataEncoding = "base64"
	// DataEncodingBase64Text marks a text payload that is not valid UTF-8.
	// JSON strings cannot carry such bytes, so they are base64 encoded.
	DataEncodingBase64Text DataEncoding = "base64-text"
)
