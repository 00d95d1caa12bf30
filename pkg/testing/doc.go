// Package testing provides a testing SDK for scripted fake WebSocket
// endpoints in Go tests.
//
// # Basic Usage
//
// Describe the conversation, start the endpoint and point the client under
// test at it:
//
//	func TestChatClient(t *testing.T) {
//	    ws := fwtesting.New(t)
//	    ws.Push("welcome")
//	    ws.Expect("hello").Reply("hi", "there")
//	    ws.Expect("bye").NoReply()
//
//	    url := ws.Start()
//	    runClient(url)
//	}
//
// When the test finishes the endpoint is stopped and, unless the test
// already asserted on the verdict, a failed script is reported with
// t.Errorf and the exact diagnostic:
//
//	Failed 2nd step:
//	Expected: "bye"
//	Got: "exit"
//
// # Binary Messages
//
//	ws.ExpectBinary([]byte{0x01}).ReplyBinary([]byte{0x02})
//
// # Prebuilt Scripts
//
// Scripts built with the websocket package or loaded from a script file
// can be served directly:
//
//	ws := fwtesting.NewWithScript(t, script)
//	ws := fwtesting.LoadScript(t, "testdata/greeting.yaml")
//
// # Assertions
//
//	ws.WaitDone(t, time.Second)
//	ws.AssertPassed(t)
//	ws.AssertFailed(t, websocket.ErrScriptMismatch)
//
// # Recording Peers
//
// Responder starts an endpoint that answers every message with the same
// responses, for tests that exercise recording:
//
//	url := fwtesting.Responder(t, "one", "two")
package testing
