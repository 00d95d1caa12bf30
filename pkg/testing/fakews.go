package testing

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/getmockd/fakews/pkg/config"
	"github.com/getmockd/fakews/pkg/websocket"
)

// FakeServer is a test helper that serves one scripted WebSocket session.
// Steps are added with Push and Expect before Start.
type FakeServer struct {
	t      testing.TB
	name   string
	path   string
	logger *slog.Logger
	drain  time.Duration

	mu       sync.Mutex
	steps    []websocket.Step
	script   *websocket.Script
	session  *websocket.Session
	started  bool
	stopped  bool
	stopErr  error
	asserted bool
}

// Option configures a FakeServer.
type Option func(*FakeServer)

// WithName names the script in logs and diagnostics.
func WithName(name string) Option {
	return func(f *FakeServer) { f.name = name }
}

// WithPath sets the path reported in the URL.
func WithPath(path string) Option {
	return func(f *FakeServer) { f.path = path }
}

// WithLogger sends session logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FakeServer) { f.logger = logger }
}

// WithDrainTimeout bounds how long Stop waits for the client.
func WithDrainTimeout(d time.Duration) Option {
	return func(f *FakeServer) { f.drain = d }
}

// New creates a fake endpoint for testing.
// It is stopped automatically when the test completes.
func New(t testing.TB, opts ...Option) *FakeServer {
	t.Helper()
	f := &FakeServer{t: t}
	for _, opt := range opts {
		opt(f)
	}
	t.Cleanup(f.cleanup)
	return f
}

// NewWithScript creates a fake endpoint that serves a prebuilt script.
// Push and Expect must not be used on it.
func NewWithScript(t testing.TB, script *websocket.Script, opts ...Option) *FakeServer {
	t.Helper()
	if script == nil {
		t.Fatal("fakews: nil script")
	}
	f := New(t, opts...)
	f.script = script
	return f
}

// LoadScript creates a fake endpoint from a script file. The file's path
// setting is honoured; its host and port are not, so tests never collide.
func LoadScript(t testing.TB, path string, opts ...Option) *FakeServer {
	t.Helper()
	file, err := config.LoadScriptFile(path)
	if err != nil {
		t.Fatalf("fakews: %v", err)
	}
	script, err := file.Compile()
	if err != nil {
		t.Fatalf("fakews: %s: %v", path, err)
	}
	if file.Path != "" {
		opts = append([]Option{WithPath(file.Path)}, opts...)
	}
	return NewWithScript(t, script, opts...)
}

// Start builds the script, binds a free port and returns the ws:// URL.
// Calling Start again returns the same URL.
func (f *FakeServer) Start() string {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.started {
		return f.session.URL()
	}

	script := f.script
	if script == nil {
		script = websocket.NewNamedScript(f.name, f.steps...)
		f.script = script
	}

	session, err := websocket.OpenSession(context.Background(), websocket.SessionConfig{
		Port:         0,
		Path:         f.path,
		Script:       script,
		Logger:       f.logger,
		DrainTimeout: f.drain,
	})
	if err != nil {
		f.t.Fatalf("fakews: failed to start session: %v", err)
	}
	f.session = session
	f.started = true
	return session.URL()
}

// URL returns the endpoint URL, or "" before Start.
func (f *FakeServer) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return ""
	}
	return f.session.URL()
}

// Script returns the script being served, or nil before Start when built
// step by step.
func (f *FakeServer) Script() *websocket.Script {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.script
}

// Stop tears the endpoint down and returns the verdict error. It is safe to
// call more than once.
func (f *FakeServer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started || f.stopped {
		return f.stopErr
	}
	f.stopped = true
	f.stopErr = f.session.Close()
	return f.stopErr
}

// Verdict returns the current verdict. It is final after Stop or WaitDone.
func (f *FakeServer) Verdict() websocket.Verdict {
	f.mu.Lock()
	session := f.session
	f.mu.Unlock()
	if session == nil {
		return websocket.Verdict{}
	}
	return session.Verdict()
}

// Done is closed when the scripted client has disconnected.
func (f *FakeServer) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		f.t.Fatal("fakews: Done called before Start")
	}
	return f.session.Done()
}

// WaitDone blocks until the client disconnects, failing the test after
// timeout.
func (f *FakeServer) WaitDone(t testing.TB, timeout time.Duration) {
	t.Helper()
	select {
	case <-f.Done():
	case <-time.After(timeout):
		t.Fatalf("fakews: client did not finish within %s", timeout)
	}
}

func (f *FakeServer) addStep(step websocket.Step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started || f.script != nil {
		f.t.Fatal("fakews: steps must be added before Start and only to servers built with New")
	}
	f.steps = append(f.steps, step)
}

func (f *FakeServer) cleanup() {
	err := f.Stop()
	f.mu.Lock()
	asserted := f.asserted
	f.mu.Unlock()
	if err != nil && !asserted {
		f.t.Errorf("fakews: script failed:\n%v", err)
	}
}

func (f *FakeServer) markAsserted() {
	f.mu.Lock()
	f.asserted = true
	f.mu.Unlock()
}
