package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/fakews/pkg/cliconfig"
	"github.com/getmockd/fakews/pkg/logging"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// app holds what every subcommand shares once the root has resolved
// configuration.
type app struct {
	cfg    *cliconfig.CLIConfig
	logger *slog.Logger

	logLevel  string
	logFormat string
	logFile   string

	logCloser io.Closer
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "fakews",
		Short: "fakews runs scripted fake WebSocket endpoints",
		Long: `fakews serves scripted WebSocket endpoints for testing clients.

A script lists the messages a client must send and what the endpoint answers.
The endpoint accepts one client, checks every message against the script and
reports PASS or FAIL with a precise diagnostic.

Configuration can be provided via flags, FAKEWS_* environment variables,
.fakewsrc.yaml in the working directory, or ~/.config/fakews/config.yaml.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format (text, json)")
	pf.StringVar(&a.logFile, "log-file", "", "Also write JSON logs to this file")

	root.AddCommand(
		newInitCmd(a),
		newServeCmd(a),
		newRespondCmd(a),
		newRecordCmd(a),
		newConvertCmd(a),
		newValidateCmd(a),
		newSchemaCmd(),
		newVersionCmd(),
	)
	return root, a
}

// setup loads layered configuration, applies global flags and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := cliconfig.LoadAll()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
		cfg.Sources["logLevel"] = cliconfig.SourceFlag
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
		cfg.Sources["logFormat"] = cliconfig.SourceFlag
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
		cfg.Sources["logFile"] = cliconfig.SourceFlag
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logCfg.Mirror = f
		a.logCloser = f
	}

	a.cfg = cfg
	a.logger = logging.New(logCfg)
	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd()
	defer a.close()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

// Main runs the CLI against the process arguments.
func Main() int {
	return Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// Execute runs the CLI and exits the process.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}
