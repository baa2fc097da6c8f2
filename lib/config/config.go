// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// EnvironmentVariable names the variable [Load] reads the config path from.
const EnvironmentVariable = "REMOTEFS_CONFIG"

// Config is the master configuration for the remotefs client.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Server configures the storage server endpoint and connection behavior.
	Server ServerConfig `yaml:"server"`

	// Transfer configures local file handling for uploads and downloads.
	Transfer TransferConfig `yaml:"transfer"`

	// Logging configures the command logger.
	Logging LoggingConfig `yaml:"logging"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
// Zero values in an override section leave the base value untouched.
type ConfigOverrides struct {
	Server   *ServerConfig   `yaml:"server,omitempty"`
	Transfer *TransferConfig `yaml:"transfer,omitempty"`
	Logging  *LoggingConfig  `yaml:"logging,omitempty"`
}

// ServerConfig configures the connection to the storage server.
type ServerConfig struct {
	// Host is the server hostname or IP address.
	// Default: 127.0.0.1
	Host string `yaml:"host"`

	// Port is the server TCP port.
	// Default: 8080
	Port int `yaml:"port"`

	// ConnectTimeout bounds a single connect attempt. It does not
	// apply to reads on an established connection.
	// Default: 5s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ReadTimeout bounds each reply read. Zero waits indefinitely,
	// which is not allowed in production.
	// Default: 60s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// RetryInterval is the fixed delay before each reconnect attempt.
	// Default: 500ms
	RetryInterval time.Duration `yaml:"retry_interval"`

	// KeepAlive enables TCP keepalive probing on the control connection.
	KeepAlive KeepAliveConfig `yaml:"keep_alive"`
}

// KeepAliveConfig configures TCP keepalive probing.
type KeepAliveConfig struct {
	// Enabled turns probing on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Idle is the idle time before the first probe.
	// Default: 30s
	Idle time.Duration `yaml:"idle"`

	// Interval is the time between unanswered probes.
	// Default: 10s
	Interval time.Duration `yaml:"interval"`

	// Count is the number of unanswered probes before the connection
	// is declared dead.
	// Default: 3
	Count int `yaml:"count"`
}

// TransferConfig configures local file handling.
type TransferConfig struct {
	// DownloadDirectory is where downloads land when no local path is
	// given. ${HOME} and ${VAR:-default} are expanded.
	// Default: current directory
	DownloadDirectory string `yaml:"download_dir"`
}

// LoggingConfig configures the command logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is "auto" (text on a terminal, JSON otherwise), "text",
	// or "json".
	// Default: auto
	Format string `yaml:"format"`
}

// Address returns the server endpoint in "host:port" form.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Default returns the default configuration. These defaults are the
// base the config file is merged into, and the whole configuration
// when no file is given.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			ConnectTimeout: 5 * time.Second,
			ReadTimeout:    60 * time.Second,
			RetryInterval:  500 * time.Millisecond,
			KeepAlive: KeepAliveConfig{
				Enabled:  true,
				Idle:     30 * time.Second,
				Interval: 10 * time.Second,
				Count:    3,
			},
		},
		Transfer: TransferConfig{
			DownloadDirectory: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the REMOTEFS_CONFIG environment variable.
// When the variable is unset, Load returns [Default] so the client can run
// against a local server with no file at all.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// Files ending in .json or .jsonc are normalized with jsonc (comments
// and trailing commas stripped) before decoding; everything else is
// decoded as YAML. Environment variables do not override config
// values. The only expansion performed is ${HOME} and similar variables
// in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Server != nil {
		if overrides.Server.Host != "" {
			c.Server.Host = overrides.Server.Host
		}
		if overrides.Server.Port != 0 {
			c.Server.Port = overrides.Server.Port
		}
		if overrides.Server.ConnectTimeout != 0 {
			c.Server.ConnectTimeout = overrides.Server.ConnectTimeout
		}
		if overrides.Server.ReadTimeout != 0 {
			c.Server.ReadTimeout = overrides.Server.ReadTimeout
		}
		if overrides.Server.RetryInterval != 0 {
			c.Server.RetryInterval = overrides.Server.RetryInterval
		}
		if overrides.Server.KeepAlive.Idle != 0 {
			c.Server.KeepAlive.Idle = overrides.Server.KeepAlive.Idle
		}
		if overrides.Server.KeepAlive.Interval != 0 {
			c.Server.KeepAlive.Interval = overrides.Server.KeepAlive.Interval
		}
		if overrides.Server.KeepAlive.Count != 0 {
			c.Server.KeepAlive.Count = overrides.Server.KeepAlive.Count
		}
	}

	if overrides.Transfer != nil && overrides.Transfer.DownloadDirectory != "" {
		c.Transfer.DownloadDirectory = overrides.Transfer.DownloadDirectory
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Transfer.DownloadDirectory = expandVars(c.Transfer.DownloadDirectory, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"auto", "text", "json"}
)

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Server.Host == "" {
		errs = append(errs, fmt.Errorf("server.host is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.connect_timeout must be positive"))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must not be negative"))
	}
	if c.Environment == Production && c.Server.ReadTimeout == 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be set in production"))
	}
	if c.Server.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("server.retry_interval must be positive"))
	}
	if c.Server.KeepAlive.Enabled && c.Server.KeepAlive.Count < 0 {
		errs = append(errs, fmt.Errorf("server.keep_alive.count must not be negative"))
	}

	if !contains(logLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", logLevels))
	}
	if !contains(logFormats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", logFormats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsureDownloadDirectory creates the download directory if it does
// not exist.
func (c *Config) EnsureDownloadDirectory() error {
	if c.Transfer.DownloadDirectory == "" {
		return nil
	}
	if err := os.MkdirAll(c.Transfer.DownloadDirectory, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Transfer.DownloadDirectory, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
