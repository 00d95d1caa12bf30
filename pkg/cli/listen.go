package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/fakews/pkg/cliconfig"
)

// listenFlags are the listener flags shared by serve and respond.
type listenFlags struct {
	host           string
	port           int
	path           string
	drainTimeout   time.Duration
	maxMessageSize int64
}

func (l *listenFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&l.host, "host", "", "Interface to bind (default localhost)")
	f.IntVarP(&l.port, "port", "p", 0, "Port to bind, 0 picks a free port (default 8765)")
	f.StringVar(&l.path, "path", "", "Path reported in the endpoint URL (default /)")
	f.DurationVar(&l.drainTimeout, "drain-timeout", 0, "How long shutdown waits for the client (default 200ms)")
	f.Int64Var(&l.maxMessageSize, "max-message-size", 0, "Inbound message size limit in bytes (default 65536)")
}

// listenSettings is the resolved listener configuration.
type listenSettings struct {
	host           string
	port           int
	path           string
	drainTimeout   time.Duration
	maxMessageSize int64
}

// resolve layers flags over the script file's own values over cfg.
// Script file values are passed as zero when absent.
func (l *listenFlags) resolve(cmd *cobra.Command, cfg *cliconfig.CLIConfig, fileHost string, filePort int, filePath string) listenSettings {
	s := listenSettings{
		host:           cfg.Host,
		port:           cfg.Port,
		path:           cfg.Path,
		drainTimeout:   cfg.DrainTimeout,
		maxMessageSize: cfg.MaxMessageSize,
	}
	if fileHost != "" {
		s.host = fileHost
	}
	if filePort != 0 {
		s.port = filePort
	}
	if filePath != "" {
		s.path = filePath
	}

	f := cmd.Flags()
	if f.Changed("host") {
		s.host = l.host
	}
	if f.Changed("port") {
		s.port = l.port
	}
	if f.Changed("path") {
		s.path = l.path
	}
	if f.Changed("drain-timeout") {
		s.drainTimeout = l.drainTimeout
	}
	if f.Changed("max-message-size") {
		s.maxMessageSize = l.maxMessageSize
	}
	return s
}
