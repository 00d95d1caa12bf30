package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/fakews/pkg/cli/internal/flags"
	"github.com/getmockd/fakews/pkg/cli/internal/parse"
	"github.com/getmockd/fakews/pkg/config"
	"github.com/getmockd/fakews/pkg/logging"
	"github.com/getmockd/fakews/pkg/recording"
	"github.com/getmockd/fakews/pkg/websocket"
)

// dialRetryInterval is the pause between dial attempts under --dial-timeout.
const dialRetryInterval = 100 * time.Millisecond

func newRecordCmd(a *app) *cobra.Command {
	var (
		sends        flags.StringSlice
		sendBinaries flags.StringSlice
		headers      flags.StringSlice
		timeout      time.Duration
		numResponses int
		dialTimeout  time.Duration
		outputPath   string
		scriptPath   string
		name         string
	)

	cmd := &cobra.Command{
		Use:   "record <url>",
		Short: "Send messages to an endpoint and capture what comes back",
		Long: `Dial a WebSocket endpoint, send each message and record the replies.

After each send the command receives until --num-responses messages arrived,
a single receive waits longer than --timeout, or the peer closes. At least one
of the two limits is required.

The transcript is written as JSON to --output, or stdout. With --script the
transcript is also converted into a script file that replays the exchange.`,
		Example: `  # Capture two replies to "hello"
  fakews record ws://localhost:8765/ --send hello --num-responses 2

  # Capture until the endpoint goes quiet for 500ms, save as a fixture
  fakews record ws://localhost:8765/ --send hello --timeout 500ms -o hello.json --script hello.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := recording.CaptureOptions{
				Timeout:      timeout,
				NumResponses: numResponses,
				Logger:       a.logger,
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			msgs := make([]websocket.Message, 0, len(sends)+len(sendBinaries))
			for _, s := range sends {
				msgs = append(msgs, websocket.TextMessage(s))
			}
			for _, b := range sendBinaries {
				data, err := parse.Base64(b)
				if err != nil {
					return err
				}
				msgs = append(msgs, websocket.BinaryMessage(data))
			}
			if len(msgs) == 0 {
				return ErrNoMessages
			}

			header, err := parse.Header(headers)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := dialWithRetry(ctx, args[0], header, dialTimeout)
			if err != nil {
				return err
			}
			defer client.Close()

			transcript, err := captureAll(ctx, client, msgs, opts)
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := recording.SaveTranscriptFile(outputPath, transcript); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %d messages to %s\n", transcript.Len(), outputPath)
			} else if _, err := transcript.WriteTo(cmd.OutOrStdout()); err != nil {
				return err
			}

			if scriptPath != "" {
				script, err := recording.ToScript(transcript, recording.ConvertOptions{Name: name})
				if err != nil {
					return err
				}
				if err := config.SaveScriptFile(scriptPath, config.FromScript(script)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote script with %d steps to %s\n", script.Len(), scriptPath)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Var(&sends, "send", "Text message to send, repeatable")
	f.Var(&sendBinaries, "send-binary", "Base64 binary message to send after the text ones, repeatable")
	f.VarP(&headers, "header", "H", "Handshake header (Key:value), repeatable")
	f.DurationVar(&timeout, "timeout", 0, "Stop receiving when a single receive waits this long")
	f.IntVarP(&numResponses, "num-responses", "n", 0, "Stop receiving after this many replies per message")
	f.DurationVar(&dialTimeout, "dial-timeout", 0, "Keep retrying the dial for this long")
	f.StringVarP(&outputPath, "output", "o", "", "Write the transcript to this file instead of stdout")
	f.StringVar(&scriptPath, "script", "", "Also write a replay script file (YAML, or JSON for .json)")
	f.StringVar(&name, "name", "", "Script name used with --script")
	return cmd
}

// dialWithRetry dials url, retrying until window elapses. A zero window
// dials once.
func dialWithRetry(ctx context.Context, url string, header http.Header, window time.Duration) (*recording.GorillaClient, error) {
	if window <= 0 {
		return recording.DialClient(ctx, url, header)
	}
	dialCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	var lastErr error
	for {
		client, err := recording.DialClient(dialCtx, url, header)
		if err == nil {
			return client, nil
		}
		lastErr = err
		select {
		case <-dialCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("gave up after %s: %w", window, lastErr)
		case <-time.After(dialRetryInterval):
		}
	}
}

// closer is implemented by clients that can tell when the peer has gone.
type closer interface {
	Closed() bool
}

// captureAll runs one capture per message over the same connection and
// joins the transcripts. It stops early when the peer closes.
func captureAll(ctx context.Context, client recording.Client, msgs []websocket.Message, opts recording.CaptureOptions) (*recording.Transcript, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	var entries []recording.Entry
	for i, m := range msgs {
		if c, ok := client.(closer); ok && c.Closed() {
			logger.Warn("peer closed the connection, skipping remaining messages", "skipped", len(msgs)-i)
			break
		}
		t, err := recording.Capture(ctx, m, client, opts)
		if t != nil {
			entries = append(entries, t.Entries()...)
		}
		if err != nil {
			return nil, err
		}
	}
	return recording.NewTranscript(entries...), nil
}
