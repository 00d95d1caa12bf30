package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/fakews/pkg/cli/internal/flags"
	"github.com/getmockd/fakews/pkg/cli/internal/parse"
	"github.com/getmockd/fakews/pkg/websocket"
)

func newRespondCmd(a *app) *cobra.Command {
	var (
		listen    listenFlags
		responses flags.StringSlice
		binaries  flags.StringSlice
		once      bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Answer every message with a fixed list of responses",
		Long: `Run an endpoint that answers every inbound message with the same list of
messages, in order. It has no script and never fails; it is the peer to
record against.

Text responses are sent first, then binary ones.`,
		Example: `  # Answer every message with two text frames
  fakews respond --response hello --response world

  # Serve a single client and exit
  fakews respond --response pong --once`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msgs := make([]websocket.Message, 0, len(responses)+len(binaries))
			for _, r := range responses {
				msgs = append(msgs, websocket.TextMessage(r))
			}
			for _, b := range binaries {
				data, err := parse.Base64(b)
				if err != nil {
					return err
				}
				msgs = append(msgs, websocket.BinaryMessage(data))
			}

			settings := listen.resolve(cmd, a.cfg, "", 0, "")
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			return websocket.RunResponder(ctx, websocket.ResponderConfig{
				Host:           settings.host,
				Port:           settings.port,
				Path:           settings.path,
				Responses:      msgs,
				Logger:         a.logger,
				DrainTimeout:   settings.drainTimeout,
				MaxMessageSize: settings.maxMessageSize,
			}, func(r *websocket.Responder) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Responding with %d messages at %s\n", len(msgs), r.URL())

				var firstDone <-chan struct{}
				if once {
					firstDone = r.ConnectionDone()
				}
				select {
				case <-ctx.Done():
				case <-firstDone:
				}
				return nil
			})
		},
	}

	listen.register(cmd)
	f := cmd.Flags()
	f.Var(&responses, "response", "Text response, repeatable")
	f.Var(&binaries, "response-binary", "Base64 binary response, repeatable")
	f.BoolVar(&once, "once", false, "Exit after the first client disconnects")
	f.DurationVar(&timeout, "timeout", 0, "Exit after this long (0 runs until interrupted)")
	return cmd
}
