package cliconfig

import (
	"fmt"
	"time"

	"github.com/getmockd/fakews/pkg/logging"
	"github.com/getmockd/fakews/pkg/websocket"
)

// DefaultPort is the port `fakews serve` and `fakews respond` listen on.
const DefaultPort = 8765

// DefaultPath is the path reported in the endpoint URL.
const DefaultPath = "/"

// NewDefault creates a new CLIConfig with default values.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		Host:           websocket.DefaultHost,
		Port:           DefaultPort,
		Path:           DefaultPath,
		DrainTimeout:   websocket.DefaultDrainTimeout,
		MaxMessageSize: websocket.DefaultMaxMessageSize,
		LogLevel:       "info",
		LogFormat:      string(logging.FormatText),
		Sources:        make(map[string]string),
	}

	for _, key := range []string{"host", "port", "path", "drainTimeout", "maxMessageSize", "logLevel", "logFormat"} {
		cfg.Sources[key] = SourceDefault
	}

	return cfg
}

// Validate range-checks the merged configuration.
func (c *CLIConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range (0-65535)", c.Port)
	}
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Path != "" && c.Path[0] != '/' {
		return fmt.Errorf("path %q must start with /", c.Path)
	}
	if c.DrainTimeout < 0 || c.DrainTimeout > time.Minute {
		return fmt.Errorf("drainTimeout %s is out of range (0-1m)", c.DrainTimeout)
	}
	if c.MaxMessageSize < 0 {
		return fmt.Errorf("maxMessageSize %d must not be negative", c.MaxMessageSize)
	}
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		return err
	}
	if _, err := logging.FormatFromString(c.LogFormat); err != nil {
		return err
	}
	return nil
}

// Logging converts the logging fields into a logging.Config. The caller
// owns opening LogFile.
func (c *CLIConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.LogLevel)
	cfg.Format = logging.ParseFormat(c.LogFormat)
	return cfg
}
