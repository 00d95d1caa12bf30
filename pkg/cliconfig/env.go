package cliconfig

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names
const (
	EnvHost      = "FAKEWS_HOST"
	EnvPort      = "FAKEWS_PORT"
	EnvPath      = "FAKEWS_PATH"
	EnvLogLevel  = "FAKEWS_LOG_LEVEL"
	EnvLogFormat = "FAKEWS_LOG_FORMAT"
	EnvLogFile   = "FAKEWS_LOG_FILE"
	EnvConfig    = "FAKEWS_CONFIG"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment. A malformed
// FAKEWS_PORT is an error rather than being silently ignored.
func LoadEnvConfig(cfg *CLIConfig) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
		cfg.Sources["host"] = SourceEnv
	}

	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		cfg.Port = port
		cfg.Sources["port"] = SourceEnv
	}

	if v := os.Getenv(EnvPath); v != "" {
		cfg.Path = v
		cfg.Sources["path"] = SourceEnv
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
		cfg.Sources["logLevel"] = SourceEnv
	}

	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
		cfg.Sources["logFormat"] = SourceEnv
	}

	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.LogFile = v
		cfg.Sources["logFile"] = SourceEnv
	}

	return nil
}
