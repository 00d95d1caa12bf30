package websocket

import "strings"

// responseKind distinguishes the three response shapes.
type responseKind int

const (
	responseNone responseKind = iota
	responseSingle
	responseMultiple
)

// Response is what a script step sends back: nothing, a single message,
// or an ordered sequence of messages.
type Response struct {
	kind     responseKind
	messages []Message
}

// NoResponse returns a Response that sends nothing.
func NoResponse() Response {
	return Response{kind: responseNone}
}

// Single returns a Response that sends exactly one message.
func Single(m Message) Response {
	return Response{kind: responseSingle, messages: []Message{m}}
}

// Multiple returns a Response that sends every message in order.
// Text and binary messages may be mixed.
func Multiple(msgs ...Message) Response {
	cp := make([]Message, len(msgs))
	copy(cp, msgs)
	return Response{kind: responseMultiple, messages: cp}
}

// IsNone reports whether the response sends nothing.
func (r Response) IsNone() bool {
	return len(r.messages) == 0
}

// IsMultiple reports whether the response was declared as a sequence.
func (r Response) IsMultiple() bool {
	return r.kind == responseMultiple
}

// Messages returns the messages to send, in order.
func (r Response) Messages() []Message {
	cp := make([]Message, len(r.messages))
	copy(cp, r.messages)
	return cp
}

// String renders the response for diagnostics.
func (r Response) String() string {
	switch r.kind {
	case responseSingle:
		return r.messages[0].String()
	case responseMultiple:
		parts := make([]string, len(r.messages))
		for i, m := range r.messages {
			parts[i] = m.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "nothing"
	}
}

// Step is one expectation/response pair of a Script.
//
// A nil Expected means the step does not wait for an inbound message: its
// response is pushed to the client as soon as the step is reached.
type Step struct {
	Expected *Message
	Response Response
}

// Pair builds a step that waits for expected and then sends response.
func Pair(expected Message, response Response) Step {
	return Step{Expected: &expected, Response: response}
}

// Push builds a step that sends response without waiting for input.
func Push(response Response) Step {
	return Step{Response: response}
}

// TextPair is shorthand for the common text exchange: wait for expected,
// then reply with zero, one or several text messages.
func TextPair(expected string, replies ...string) Step {
	return Pair(TextMessage(expected), textResponse(replies))
}

func textResponse(replies []string) Response {
	switch len(replies) {
	case 0:
		return NoResponse()
	case 1:
		return Single(TextMessage(replies[0]))
	default:
		msgs := make([]Message, len(replies))
		for i, r := range replies {
			msgs[i] = TextMessage(r)
		}
		return Multiple(msgs...)
	}
}

// String renders the step as "expect X -> respond Y".
func (s Step) String() string {
	expect := "nothing"
	if s.Expected != nil {
		expect = s.Expected.String()
	}
	return "expect " + expect + " -> respond " + s.Response.String()
}

// clone detaches the step from caller-owned memory.
func (s Step) clone() Step {
	out := Step{Response: Response{kind: s.Response.kind}}
	if s.Response.messages != nil {
		out.Response.messages = make([]Message, len(s.Response.messages))
		copy(out.Response.messages, s.Response.messages)
	}
	if s.Expected != nil {
		e := *s.Expected
		out.Expected = &e
	}
	return out
}

// Script is an ordered, immutable list of steps. A Matcher walks it with a
// private cursor, so one Script can back any number of Matchers.
type Script struct {
	name  string
	steps []Step
}

// NewScript creates a Script from steps. The steps are copied.
func NewScript(steps ...Step) *Script {
	s := &Script{steps: make([]Step, len(steps))}
	for i, step := range steps {
		s.steps[i] = step.clone()
	}
	return s
}

// NewNamedScript creates a named Script. The name only shows up in logs.
func NewNamedScript(name string, steps ...Step) *Script {
	s := NewScript(steps...)
	s.name = name
	return s
}

// Name returns the script name.
func (s *Script) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Len returns the number of steps.
func (s *Script) Len() int {
	if s == nil {
		return 0
	}
	return len(s.steps)
}

// Empty reports whether the script has no steps.
func (s *Script) Empty() bool {
	return s.Len() == 0
}

// Step returns the i-th step.
func (s *Script) Step(i int) Step {
	return s.steps[i].clone()
}

// Steps returns a copy of all steps.
func (s *Script) Steps() []Step {
	return s.Tail(0)
}

// Tail returns a copy of the steps from position i onward.
func (s *Script) Tail(i int) []Step {
	if i >= s.Len() {
		return []Step{}
	}
	out := make([]Step, 0, len(s.steps)-i)
	for _, step := range s.steps[i:] {
		out = append(out, step.clone())
	}
	return out
}
