package websocket

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors for the websocket package.
var (
	// ErrScriptMismatch indicates an inbound message differed from the expected one.
	ErrScriptMismatch = errors.New("script mismatch")
	// ErrIncompleteScript indicates the inbound stream ended with script steps left.
	ErrIncompleteScript = errors.New("incomplete script")
	// ErrSurplusMessage indicates more inbound messages arrived than the script defines.
	ErrSurplusMessage = errors.New("surplus message")
	// ErrResponseFailed indicates a scripted response could not be sent.
	ErrResponseFailed = errors.New("response failed")
	// ErrConnectionClosed indicates the connection is closed.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrSessionClaimed indicates the scripted session already serves a connection.
	ErrSessionClaimed = errors.New("scripted session already has a connection")
	// ErrServerClosing indicates the listener is being torn down.
	ErrServerClosing = errors.New("server is closing")
	// ErrNilScript indicates a session was opened without a script.
	ErrNilScript = errors.New("script is required")
)

// MismatchError reports the first inbound message that did not equal the
// expected one. Step is the 1-based position of the inbound message.
type MismatchError struct {
	Step     int
	Expected Message
	Actual   Message
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("Failed %s step:\nExpected: %s\nGot: %s", Ordinal(e.Step), e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error { return ErrScriptMismatch }

// IncompleteScriptError reports script steps left unconsumed when the
// inbound stream ended. NoMessages is set while no message was ever received.
// Cause is the read error that ended the stream, nil for a clean close.
type IncompleteScriptError struct {
	Remaining  []Step
	NoMessages bool
	Cause      error
}

func (e *IncompleteScriptError) Error() string {
	var msg string
	if e.NoMessages {
		msg = "Did not receive any messages. Expecting: " + formatSteps(e.Remaining) + "."
	} else {
		msg = "No more input messages. Expecting more: " + formatSteps(e.Remaining) + "."
	}
	if e.Cause != nil {
		msg += " Reading from the client failed: " + e.Cause.Error()
	}
	return msg
}

func (e *IncompleteScriptError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrIncompleteScript}
	}
	return []error{ErrIncompleteScript, e.Cause}
}

// SurplusMessageError reports an inbound message that arrived after every
// script step was consumed. Step is its 1-based position in the inbound stream.
type SurplusMessageError struct {
	Step    int
	Message Message
}

func (e *SurplusMessageError) Error() string {
	return fmt.Sprintf("No more input messages expected, but got %s as the %s message.", e.Message, Ordinal(e.Step))
}

func (e *SurplusMessageError) Unwrap() error { return ErrSurplusMessage }

// ResponseError reports a transport failure while emitting a step's response.
// Step is the 1-based script position.
type ResponseError struct {
	Step int
	Err  error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("Failed to send response for %s step: %v", Ordinal(e.Step), e.Err)
}

func (e *ResponseError) Unwrap() []error { return []error{ErrResponseFailed, e.Err} }

// Ordinal renders n as an English ordinal: 1st, 2nd, 3rd, 4th, 11th, 21st.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func formatSteps(steps []Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
