// Package config handles TOML configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml/v2"
)

// ListenAddr is the fixed address the proxy binds. Legacy clients are
// redirected here by a connect() shim, so it is intentionally not configurable.
const ListenAddr = "127.0.0.1:8888"

// SelfHosts are the Host header values that address the proxy itself rather
// than an upstream.
var SelfHosts = []string{ListenAddr, "localhost:8888"}

// Policies for upstream responses without a Content-Length header.
const (
	MissingLengthStream = "stream"
	MissingLengthReject = "reject"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/https-forward-proxy/config.toml",
	"configs/config.toml",
}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config    string           `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	LogLevel  string           `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	LogFormat string           `kong:"help='Log format: json|text (overrides config).',env='LOG_FORMAT'"`
	Version   kong.VersionFlag `kong:"help='Print version and exit.'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Relay    RelayConfig    `toml:"relay"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path, empty when running on defaults
}

// ServerConfig holds inbound HTTP server settings.
type ServerConfig struct {
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// UpstreamConfig holds upstream connection settings.
type UpstreamConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"` // 0 disables the timeout
}

// RelayConfig controls how upstream responses are copied back.
type RelayConfig struct {
	MissingContentLength string `toml:"missing_content_length"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file, if any, and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/https-forward-proxy/config.toml then configs/config.toml. If neither
// exists the proxy runs on defaults.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// FilePath returns the config file the values were read from, or "" for defaults.
func (c *Config) FilePath() string {
	return c.filePath
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		c.Log.Format = cli.LogFormat
	}
}

func (c *Config) validate() error {
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	switch strings.ToLower(c.Relay.MissingContentLength) {
	case MissingLengthStream, MissingLengthReject, "":
	default:
		return fmt.Errorf("relay.missing_content_length must be one of: stream, reject; got %q", c.Relay.MissingContentLength)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics are served on the admin host next to the health routes.
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{"/healthz", "/proxy/status"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields. The upstream timeout stays 0 (none)
// unless configured.
func (c *Config) setDefaults() {
	c.Relay.MissingContentLength = strings.ToLower(c.Relay.MissingContentLength)
	if c.Relay.MissingContentLength == "" {
		c.Relay.MissingContentLength = MissingLengthStream
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		// A path that exists but cannot be stat'ed is returned too, so Load
		// reports the real error instead of silently using defaults.
		if _, err := os.Stat(p); err == nil || !errors.Is(err, fs.ErrNotExist) {
			return p
		}
	}
	return ""
}
