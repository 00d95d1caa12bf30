package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/fakews/pkg/cli/internal/output"
	"github.com/getmockd/fakews/pkg/config"
	"github.com/getmockd/fakews/pkg/websocket"
)

// ServeResult is the JSON output of `fakews serve --json`.
type ServeResult struct {
	Name   string `json:"name,omitempty"`
	File   string `json:"file"`
	URL    string `json:"url"`
	Steps  int    `json:"steps"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

func newServeCmd(a *app) *cobra.Command {
	var (
		listen     listenFlags
		timeout    time.Duration
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "serve <script-file>",
		Short: "Serve a script file and report whether the client followed it",
		Long: `Serve a script file as a scripted WebSocket endpoint.

The endpoint accepts exactly one client. When that client disconnects, the
command prints PASS or FAIL with the diagnostic and exits non-zero on failure.
It also stops on interrupt or when --timeout elapses; a script that was not
completed by then fails.

Listener settings come from flags, then the script file, then configuration.`,
		Example: `  # Serve a script on the default port
  fakews serve greeting.yaml

  # Pick a free port and give the client ten seconds
  fakews serve greeting.yaml --port 0 --timeout 10s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := config.LoadScriptFile(args[0])
			if err != nil {
				return err
			}
			script, err := file.Compile()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			settings := listen.resolve(cmd, a.cfg, file.Host, file.Port, file.Path)

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			session, err := websocket.OpenSession(ctx, websocket.SessionConfig{
				Host:           settings.host,
				Port:           settings.port,
				Path:           settings.path,
				Script:         script,
				Logger:         a.logger.With("file", args[0]),
				DrainTimeout:   settings.drainTimeout,
				MaxMessageSize: settings.maxMessageSize,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !jsonOutput {
				fmt.Fprintf(out, "Serving %s (%d steps) at %s\n", displayName(file), script.Len(), session.URL())
			}

			select {
			case <-session.Done():
			case <-ctx.Done():
			}
			verdictErr := session.Close()

			result := ServeResult{
				Name:   file.Name,
				File:   args[0],
				URL:    session.URL(),
				Steps:  script.Len(),
				Passed: verdictErr == nil,
			}
			if verdictErr != nil {
				result.Error = verdictErr.Error()
			}

			if jsonOutput {
				if err := output.JSON(out, result); err != nil {
					return err
				}
			} else if result.Passed {
				fmt.Fprintln(out, "PASS")
			} else {
				fmt.Fprintf(out, "FAIL: %s\n", result.Error)
			}

			if verdictErr != nil {
				return &exitError{code: 1, err: fmt.Errorf("%w: %w", ErrScriptFailed, verdictErr)}
			}
			return nil
		},
	}

	listen.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop waiting for the client after this long (0 waits until interrupted)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func displayName(f *config.ScriptFile) string {
	if f.Name != "" {
		return fmt.Sprintf("%q", f.Name)
	}
	return f.Source
}
