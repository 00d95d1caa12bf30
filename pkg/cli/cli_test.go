package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/fakews/pkg/cliconfig"
	"github.com/getmockd/fakews/pkg/config"
	"github.com/getmockd/fakews/pkg/recording"
	"github.com/getmockd/fakews/pkg/websocket"
)

// syncBuffer lets a test read output while a command is still writing it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// isolate keeps user config files and FAKEWS_* variables out of a test.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		cliconfig.EnvHost, cliconfig.EnvPort, cliconfig.EnvPath, cliconfig.EnvLogLevel,
		cliconfig.EnvLogFormat, cliconfig.EnvLogFile, cliconfig.EnvConfig,
	} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var urlPattern = regexp.MustCompile(`ws://\S+`)

// startServe runs `fakews serve` in the background and returns the URL it
// reports plus a channel yielding the exit code.
func startServe(t *testing.T, args ...string) (string, *syncBuffer, <-chan int) {
	t.Helper()
	out := &syncBuffer{}
	done := make(chan int, 1)
	go func() {
		done <- Run(context.Background(), append([]string{"serve"}, args...), out, &syncBuffer{})
	}()

	var url string
	require.Eventually(t, func() bool {
		url = urlPattern.FindString(out.String())
		return url != ""
	}, 5*time.Second, 10*time.Millisecond, "serve never printed its URL")
	return url, out, done
}

func waitCode(t *testing.T, done <-chan int) int {
	t.Helper()
	select {
	case code := <-done:
		return code
	case <-time.After(10 * time.Second):
		t.Fatal("command did not exit")
		return -1
	}
}

const greetingScript = `
name: greeting
steps:
  - respond: welcome
  - expect: hello
    respond: [hi, there]
`

func TestServe_Pass(t *testing.T) {
	dir := isolate(t)
	path := writeScript(t, dir, "greeting.yaml", greetingScript)

	url, out, done := startServe(t, path, "--port", "0")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := ws.Dial(ctx, url, nil)
	require.NoError(t, err)

	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "welcome", string(data))

	require.NoError(t, c.Write(ctx, ws.MessageText, []byte("hello")))
	for _, want := range []string{"hi", "there"} {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
	require.NoError(t, c.Close(ws.StatusNormalClosure, ""))

	assert.Equal(t, 0, waitCode(t, done))
	assert.Contains(t, out.String(), `Serving "greeting" (2 steps)`)
	assert.Contains(t, out.String(), "PASS")
}

func TestServe_FailReportsDiagnostic(t *testing.T) {
	dir := isolate(t)
	path := writeScript(t, dir, "greeting.yaml", greetingScript)

	url, out, done := startServe(t, path, "--port", "0")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := ws.Dial(ctx, url, nil)
	require.NoError(t, err)
	_, _, err = c.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, ws.MessageText, []byte("goodbye")))
	_ = c.Close(ws.StatusNormalClosure, "")

	assert.Equal(t, 1, waitCode(t, done))
	assert.Contains(t, out.String(), "FAIL: ")
	assert.Contains(t, out.String(), `"goodbye"`)
}

func TestServe_TimeoutWithoutClient(t *testing.T) {
	dir := isolate(t)
	path := writeScript(t, dir, "greeting.yaml", greetingScript)

	code, stdout, _ := run(t, "serve", path, "--port", "0", "--timeout", "50ms", "--json")
	assert.Equal(t, 1, code)

	var result ServeResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.False(t, result.Passed)
	assert.Equal(t, "greeting", result.Name)
	assert.Equal(t, 2, result.Steps)
	assert.NotEmpty(t, result.Error)
}

func TestServe_MissingFile(t *testing.T) {
	isolate(t)
	code, _, stderr := run(t, "serve", "missing.yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "script file not found")
}

func TestValidate(t *testing.T) {
	dir := isolate(t)
	writeScript(t, dir, "good.yaml", greetingScript)
	writeScript(t, dir, "bad.yaml", "steps:\n  - expect: {binary: AQ==, text: x}\n")

	code, stdout, stderr := run(t, "validate", filepath.Join(dir, "good.yaml"))
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "greeting")
	assert.Contains(t, stdout, "ok")

	code, stdout, stderr = run(t, "validate", "--json", filepath.Join(dir, "*.yaml"))
	assert.Equal(t, 1, code)
	var results []ValidationResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.False(t, results[0].Valid, "bad.yaml sorts first")
	assert.NotEmpty(t, results[0].Problems)
	assert.True(t, results[1].Valid)
	assert.Equal(t, 2, results[1].Steps)
	assert.Empty(t, stderr)
}

func TestConvert(t *testing.T) {
	dir := isolate(t)
	transcript := recording.NewTranscript(
		recording.Entry{Direction: recording.DirectionReceive, Payload: websocket.TextMessage("welcome")},
		recording.Entry{Direction: recording.DirectionSend, Payload: websocket.TextMessage("hello")},
		recording.Entry{Direction: recording.DirectionReceive, Payload: websocket.TextMessage("hi")},
	)
	path := filepath.Join(dir, "hello.json")
	require.NoError(t, recording.SaveTranscriptFile(path, transcript))

	code, stdout, stderr := run(t, "convert", path)
	require.Equal(t, 0, code, stderr)

	f, err := config.ParseScript([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, "hello", f.Name)
	require.Len(t, f.Steps, 2)
	assert.Nil(t, f.Steps[0].Expect)
	assert.Equal(t, config.TextConfig("hello"), f.Steps[1].Expect)

	out := filepath.Join(dir, "hello.script.json")
	code, _, stderr = run(t, "convert", path, "-o", out, "--name", "custom")
	require.Equal(t, 0, code, stderr)
	loaded, err := config.LoadScriptFile(out)
	require.NoError(t, err)
	assert.Equal(t, "custom", loaded.Name)
}

func TestRecord(t *testing.T) {
	dir := isolate(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	responder, err := websocket.ServeFixedResponses(ctx, websocket.ResponderConfig{
		Responses: []websocket.Message{websocket.TextMessage("one"), websocket.TextMessage("two")},
	})
	require.NoError(t, err)
	defer responder.Close()

	transcriptPath := filepath.Join(dir, "out", "capture.json")
	scriptPath := filepath.Join(dir, "capture.yaml")
	code, _, stderr := run(t, "record", responder.URL(),
		"--send", "a", "--send", "b",
		"--num-responses", "2",
		"-o", transcriptPath,
		"--script", scriptPath, "--name", "captured",
	)
	require.Equal(t, 0, code, stderr)

	transcript, err := recording.LoadTranscriptFile(transcriptPath)
	require.NoError(t, err)
	assert.Equal(t, 6, transcript.Len())
	assert.Equal(t, 4, transcript.Received())

	f, err := config.LoadScriptFile(scriptPath)
	require.NoError(t, err)
	assert.Equal(t, "captured", f.Name)
	require.Len(t, f.Steps, 2)
	assert.Equal(t, config.SequenceResponse(config.TextConfig("one"), config.TextConfig("two")), f.Steps[1].Respond)
}

func TestRecord_InvalidOptionsBeforeDial(t *testing.T) {
	isolate(t)
	code, _, stderr := run(t, "record", "ws://127.0.0.1:1/", "--send", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, recording.ErrInvalidArguments.Error())
}

func TestRecord_RequiresMessages(t *testing.T) {
	isolate(t)
	code, _, stderr := run(t, "record", "ws://127.0.0.1:1/", "--timeout", "1s")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no messages to send")
}

func TestRespond_Once(t *testing.T) {
	isolate(t)
	out := &syncBuffer{}
	done := make(chan int, 1)
	go func() {
		done <- Run(context.Background(), []string{"respond", "--port", "0", "--once", "--response", "pong", "--response-binary", "AQI="}, out, &syncBuffer{})
	}()

	var url string
	require.Eventually(t, func() bool {
		url = urlPattern.FindString(out.String())
		return url != ""
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := ws.Dial(ctx, url, nil)
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, ws.MessageText, []byte("ping")))

	typ, data, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, ws.MessageText, typ)
	assert.Equal(t, "pong", string(data))
	typ, data, err = c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, ws.MessageBinary, typ)
	assert.Equal(t, []byte{1, 2}, data)
	require.NoError(t, c.Close(ws.StatusNormalClosure, ""))

	assert.Equal(t, 0, waitCode(t, done))
}

func TestGlobalFlags(t *testing.T) {
	dir := isolate(t)

	code, _, stderr := run(t, "--log-level", "loud", "schema")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid log level")

	logFile := filepath.Join(dir, "fakews.log")
	code, stdout, _ := run(t, "--log-file", logFile, "schema")
	assert.Equal(t, 0, code)
	assert.True(t, json.Valid([]byte(stdout)))
	_, err := os.Stat(logFile)
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "version", "--json")
	require.Equal(t, 0, code)

	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &v))
	assert.True(t, strings.HasPrefix(v.Go, "go"))

	code, stdout, _ = run(t, "version")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "fakews "))
}

func TestDisplayVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", displayVersion("1.2.3"))
	assert.Equal(t, "v1.2.3", displayVersion("v1.2.3"))
	assert.Equal(t, "dev", displayVersion("dev"))
}

func TestInit(t *testing.T) {
	dir := isolate(t)

	code, stdout, stderr := run(t, "init", "--name", "chat")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Created fakews.yaml (2 steps)")

	f, err := config.LoadScriptFile(filepath.Join(dir, "fakews.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "chat", f.Name)
	script, err := f.Compile()
	require.NoError(t, err)
	assert.Equal(t, 2, script.Len())

	code, _, stderr = run(t, "init")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "file already exists: fakews.yaml")

	code, _, stderr = run(t, "init", "--force", "-t", "binary", "-o", "bin.json")
	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(filepath.Join(dir, "bin.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"binary": "AQID"`)

	code, _, stderr = run(t, "init", "-t", "nope", "-o", "x.yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `unknown template "nope" (available: binary, echo, greeting)`)
}
