package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/getmockd/fakews/pkg/logging"
)

// State is the position of a Matcher in its lifecycle.
type State int

const (
	// StateAwaitingMessage waits for the next inbound message.
	StateAwaitingMessage State = iota
	// StatePassed means every step was consumed.
	StatePassed
	// StateFailed means a divergence was found. Terminal.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAwaitingMessage:
		return "awaiting"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sender delivers a message to the peer. *Connection implements it.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Matcher consumes one connection's inbound messages against a Script.
//
// Start, Handle and Finish must be called from the goroutine that reads the
// connection. Verdict, State and Cursor may be called from anywhere.
type Matcher struct {
	script   *Script
	cursor   int
	received int
	state    State
	err      error
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewMatcher creates a Matcher positioned at the first step of script.
//
// A non-empty script starts with a failing verdict that holds until the
// script is satisfied; an empty script passes immediately.
func NewMatcher(script *Script) *Matcher {
	m := &Matcher{
		script: script,
		logger: logging.Nop(),
	}
	if script.Empty() {
		m.state = StatePassed
	} else {
		m.err = &IncompleteScriptError{Remaining: script.Steps(), NoMessages: true}
	}
	return m
}

// SetLogger sets the logger used for step tracing.
func (m *Matcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Start pushes the responses of any leading steps that expect nothing.
// It returns false if the matcher failed while doing so.
func (m *Matcher) Start(ctx context.Context, out Sender) bool {
	return m.advance(ctx, out)
}

// Handle consumes one inbound message. On a match the step's response is
// sent in full before Handle returns. It returns false once the matcher
// has failed and the caller should stop reading.
func (m *Matcher) Handle(ctx context.Context, out Sender, msg Message) bool {
	m.mu.Lock()
	if m.state == StateFailed {
		m.mu.Unlock()
		return false
	}
	m.received++
	ordinal := m.received

	if m.cursor >= m.script.Len() {
		m.failLocked(&SurplusMessageError{Step: ordinal, Message: msg})
		m.mu.Unlock()
		return false
	}

	pos := m.cursor + 1
	step := m.script.Step(m.cursor)
	if step.Expected != nil && !step.Expected.Equal(msg) {
		m.failLocked(&MismatchError{Step: ordinal, Expected: *step.Expected, Actual: msg})
		m.mu.Unlock()
		return false
	}
	m.mu.Unlock()

	m.logger.Debug("step matched", "step", ordinal, "message", msg.String())
	if !m.respond(ctx, out, pos, step.Response) {
		return false
	}

	m.mu.Lock()
	m.cursor++
	m.mu.Unlock()
	return m.advance(ctx, out)
}

// Finish records the end of the inbound stream. Unconsumed steps turn the
// verdict into an IncompleteScriptError; a settled verdict is left alone.
func (m *Matcher) Finish() {
	m.FinishWithError(nil)
}

// FinishWithError is Finish for a stream that ended with a read error. The
// error is kept as the Cause of an IncompleteScriptError.
func (m *Matcher) FinishWithError(cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAwaitingMessage {
		return
	}
	m.failLocked(&IncompleteScriptError{
		Remaining:  m.script.Tail(m.cursor),
		NoMessages: m.received == 0 && m.cursor == 0,
		Cause:      cause,
	})
}

// Verdict returns a snapshot of the current verdict.
func (m *Matcher) Verdict() Verdict {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Verdict{Passed: m.state == StatePassed, Err: m.err}
}

// State returns the current state.
func (m *Matcher) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Cursor returns the index of the next step to consume.
func (m *Matcher) Cursor() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursor
}

// advance runs push-only steps from the cursor and settles the verdict when
// the script is exhausted.
func (m *Matcher) advance(ctx context.Context, out Sender) bool {
	for {
		m.mu.Lock()
		if m.state == StateFailed {
			m.mu.Unlock()
			return false
		}
		if m.cursor >= m.script.Len() {
			if m.state != StatePassed {
				m.state = StatePassed
				m.err = nil
				m.logger.Debug("script exhausted", "steps", m.script.Len())
			}
			m.mu.Unlock()
			return true
		}
		step := m.script.Step(m.cursor)
		if step.Expected != nil {
			m.mu.Unlock()
			return true
		}
		pos := m.cursor + 1
		m.mu.Unlock()

		if !m.respond(ctx, out, pos, step.Response) {
			return false
		}
		m.mu.Lock()
		m.cursor++
		m.mu.Unlock()
	}
}

// respond sends the response of the step at 1-based position pos. A client
// that has already left ends the inbound stream rather than failing the
// script: the step counts as consumed, along with any push steps after it,
// and Finish settles the verdict.
func (m *Matcher) respond(ctx context.Context, out Sender, pos int, r Response) bool {
	for _, msg := range r.Messages() {
		err := out.Send(ctx, msg)
		if err == nil {
			continue
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if !isPeerGone(err) {
			m.failLocked(&ResponseError{Step: pos, Err: err})
			return false
		}
		m.logger.Debug("client left during response", "step", pos, "error", err)
		m.cursor = pos
		for m.cursor < m.script.Len() && m.script.steps[m.cursor].Expected == nil {
			m.cursor++
		}
		if m.cursor >= m.script.Len() && m.state == StateAwaitingMessage {
			m.state = StatePassed
			m.err = nil
		}
		return false
	}
	return true
}

func (m *Matcher) failLocked(err error) {
	if m.state == StateFailed {
		return
	}
	m.state = StateFailed
	m.err = err
	m.logger.Debug("script failed", "error", err)
}
