// Package websocket provides scripted fake WebSocket endpoints for fakews.
//
// A Script is an ordered list of steps. Each step optionally expects one
// inbound message and then sends nothing, one message or several messages
// back. A step without an expectation is pushed to the client as soon as it
// is reached. A Matcher walks one connection through a Script and settles a
// Verdict: the first mismatching message, a stream that ended early, or a
// message that arrived after the script was exhausted all fail it.
//
// Usage:
//
//	script := websocket.NewScript(
//		websocket.TextPair("hello", "hi"),
//		websocket.Pair(websocket.TextMessage("list"), websocket.Multiple(
//			websocket.TextMessage("a"),
//			websocket.BinaryMessage([]byte{0x01}),
//		)),
//	)
//	err := websocket.RunSession(ctx, websocket.SessionConfig{Script: script}, func(s *websocket.Session) error {
//		return runClient(ctx, s.URL())
//	})
//
// A Session serves a single connection and Close returns the verdict error.
// A Responder answers every inbound message with a fixed list and keeps no
// verdict; it is what the capture tooling in package recording records
// against.
//
// The package uses github.com/coder/websocket for the server side of the
// protocol.
package websocket
