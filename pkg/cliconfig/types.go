// Package cliconfig provides configuration types and loading for the fakews CLI.
package cliconfig

import "time"

// CLIConfig represents the complete configuration for the fakews CLI.
// Configuration values can come from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Local config file (.fakewsrc.yaml in current directory)
// 4. Global config file (~/.config/fakews/config.yaml)
// 5. Default values (lowest priority)
type CLIConfig struct {
	// Listener settings
	Host           string        `yaml:"host" json:"host"`
	Port           int           `yaml:"port" json:"port"`
	Path           string        `yaml:"path" json:"path"`
	DrainTimeout   time.Duration `yaml:"drainTimeout" json:"drainTimeout"`
	MaxMessageSize int64         `yaml:"maxMessageSize" json:"maxMessageSize"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`
	LogFile   string `yaml:"logFile,omitempty" json:"logFile,omitempty"`

	// ConfigFile is an explicit config file that replaces the local one.
	ConfigFile string `yaml:"-" json:"-"`

	// Sources tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFlag    = "flag"
)
