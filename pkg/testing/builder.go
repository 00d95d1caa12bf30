package testing

import (
	"github.com/getmockd/fakews/pkg/websocket"
)

// StepBuilder builds one expectation using a fluent API. The step is added
// to the server by one of the Reply methods or NoReply.
type StepBuilder struct {
	server   *FakeServer
	expected websocket.Message
}

// Push adds a step that sends texts as soon as the cursor reaches it,
// without waiting for input. Several texts are sent in order.
func (f *FakeServer) Push(texts ...string) {
	f.t.Helper()
	f.addStep(websocket.Push(textResponse(texts)))
}

// PushMessages is Push for arbitrary messages.
func (f *FakeServer) PushMessages(msgs ...websocket.Message) {
	f.t.Helper()
	f.addStep(websocket.Push(messagesResponse(msgs)))
}

// Expect starts a step that waits for the text message text.
func (f *FakeServer) Expect(text string) *StepBuilder {
	return &StepBuilder{server: f, expected: websocket.TextMessage(text)}
}

// ExpectBinary starts a step that waits for the binary message data.
func (f *FakeServer) ExpectBinary(data []byte) *StepBuilder {
	return &StepBuilder{server: f, expected: websocket.BinaryMessage(data)}
}

// ExpectMessage starts a step that waits for m.
func (f *FakeServer) ExpectMessage(m websocket.Message) *StepBuilder {
	return &StepBuilder{server: f, expected: m}
}

// Reply answers the expected message with text messages. One text is a
// single response, several are sent in order.
func (b *StepBuilder) Reply(texts ...string) {
	b.server.t.Helper()
	b.commit(textResponse(texts))
}

// ReplyBinary answers the expected message with binary messages.
func (b *StepBuilder) ReplyBinary(payloads ...[]byte) {
	b.server.t.Helper()
	msgs := make([]websocket.Message, len(payloads))
	for i, p := range payloads {
		msgs[i] = websocket.BinaryMessage(p)
	}
	b.commit(messagesResponse(msgs))
}

// ReplyMessages answers the expected message with msgs, which may mix
// text and binary.
func (b *StepBuilder) ReplyMessages(msgs ...websocket.Message) {
	b.server.t.Helper()
	b.commit(messagesResponse(msgs))
}

// ReplySequence always sends a sequence response, even for one message.
func (b *StepBuilder) ReplySequence(msgs ...websocket.Message) {
	b.server.t.Helper()
	b.commit(websocket.Multiple(msgs...))
}

// NoReply waits for the expected message and sends nothing back.
func (b *StepBuilder) NoReply() {
	b.server.t.Helper()
	b.commit(websocket.NoResponse())
}

func (b *StepBuilder) commit(r websocket.Response) {
	b.server.addStep(websocket.Pair(b.expected, r))
}

func textResponse(texts []string) websocket.Response {
	msgs := make([]websocket.Message, len(texts))
	for i, s := range texts {
		msgs[i] = websocket.TextMessage(s)
	}
	return messagesResponse(msgs)
}

func messagesResponse(msgs []websocket.Message) websocket.Response {
	switch len(msgs) {
	case 0:
		return websocket.NoResponse()
	case 1:
		return websocket.Single(msgs[0])
	default:
		return websocket.Multiple(msgs...)
	}
}
