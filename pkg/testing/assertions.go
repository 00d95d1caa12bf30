package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/getmockd/fakews/pkg/websocket"
)

// AssertPassed stops the endpoint and fails the test unless the client
// followed the script to the end.
func (f *FakeServer) AssertPassed(t testing.TB) {
	t.Helper()
	f.markAsserted()
	if err := f.Stop(); err != nil {
		t.Errorf("fakews: expected script to pass, got:\n%v", err)
	}
}

// AssertFailed stops the endpoint and fails the test unless the script
// failed with an error matching target. A nil target accepts any failure.
func (f *FakeServer) AssertFailed(t testing.TB, target error) {
	t.Helper()
	f.markAsserted()
	err := f.Stop()
	switch {
	case err == nil:
		t.Errorf("fakews: expected script to fail, but it passed")
	case target != nil && !errors.Is(err, target):
		t.Errorf("fakews: expected failure matching %v, got:\n%v", target, err)
	}
}

// AssertMismatchAt stops the endpoint and fails the test unless the script
// failed because the step-th inbound message (1-based) did not match.
func (f *FakeServer) AssertMismatchAt(t testing.TB, step int) {
	t.Helper()
	f.markAsserted()
	err := f.Stop()
	var mismatch *websocket.MismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("fakews: expected a mismatch at step %d, got: %v", step, err)
		return
	}
	if mismatch.Step != step {
		t.Errorf("fakews: expected a mismatch at step %d, got one at step %d:\n%v", step, mismatch.Step, err)
	}
}

// Responder starts an endpoint that answers every inbound message with
// texts, in order, and returns its URL. It is closed when the test ends.
func Responder(t testing.TB, texts ...string) string {
	t.Helper()
	msgs := make([]websocket.Message, len(texts))
	for i, s := range texts {
		msgs[i] = websocket.TextMessage(s)
	}
	return ResponderMessages(t, msgs...)
}

// ResponderMessages is Responder for arbitrary messages.
func ResponderMessages(t testing.TB, msgs ...websocket.Message) string {
	t.Helper()
	r, err := websocket.ServeFixedResponses(context.Background(), websocket.ResponderConfig{Responses: msgs})
	if err != nil {
		t.Fatalf("fakews: failed to start responder: %v", err)
	}
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Logf("fakews: responder close: %v", err)
		}
	})
	return r.URL()
}
