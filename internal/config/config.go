// ABOUTME: Configuration loading and parsing for atlast-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete atlast-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database"`
	Buffer    BufferConfig    `yaml:"buffer"`
	Generator GeneratorConfig `yaml:"generator"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
	CertFile  string `yaml:"cert_file"` // TLS cert file (generate via: tailscale cert <hostname>)
	KeyFile   string `yaml:"key_file"`  // TLS key file
	Funnel    bool   `yaml:"funnel"`    // Enable public Funnel (implies HTTPS)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// BufferConfig holds riddle buffer tuning
type BufferConfig struct {
	TargetDepth          int `yaml:"target_depth"`
	MaxConcurrentRefills int `yaml:"max_concurrent_refills"`

	RetryAfter time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	RetryAfterRaw string `yaml:"retry_after"`
}

// GeneratorConfig holds riddle generator configuration
type GeneratorConfig struct {
	Mode   string `yaml:"mode"` // "phased" or "openai"
	Phases int    `yaml:"phases"`

	PhaseDelay time.Duration `yaml:"-"`

	PhaseDelayRaw string `yaml:"phase_delay"`

	OpenAI OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig holds OpenAI-compatible API configuration for riddle generation
type OpenAIConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	MaxRetries int    `yaml:"max_retries"`

	Timeout time.Duration `yaml:"-"`

	TimeoutRaw string `yaml:"timeout"`
}

// SessionsConfig holds session lifecycle configuration
type SessionsConfig struct {
	IdleTimeout time.Duration `yaml:"-"`

	IdleTimeoutRaw string `yaml:"idle_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default values applied when the config file leaves a field unset.
const (
	DefaultTargetDepth          = 3
	DefaultMaxConcurrentRefills = 2
	DefaultRetryAfter           = 2 * time.Second
	DefaultPhases               = 3
	DefaultPhaseDelay           = time.Second
	DefaultIdleTimeout          = 30 * time.Minute
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in zero-valued fields with their defaults
func (c *Config) applyDefaults() {
	if c.Buffer.TargetDepth <= 0 {
		c.Buffer.TargetDepth = DefaultTargetDepth
	}
	if c.Buffer.MaxConcurrentRefills <= 0 {
		c.Buffer.MaxConcurrentRefills = DefaultMaxConcurrentRefills
	}
	if c.Buffer.RetryAfter <= 0 {
		c.Buffer.RetryAfter = DefaultRetryAfter
	}
	if c.Generator.Mode == "" {
		c.Generator.Mode = "phased"
	}
	if c.Generator.Phases <= 0 {
		c.Generator.Phases = DefaultPhases
	}
	if c.Generator.PhaseDelay <= 0 {
		c.Generator.PhaseDelay = DefaultPhaseDelay
	}
	if c.Sessions.IdleTimeout <= 0 {
		c.Sessions.IdleTimeout = DefaultIdleTimeout
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	// Server address is required unless Tailscale is enabled
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	// Tailscale requires a hostname
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Generator.Mode {
	case "", "phased":
	case "openai":
		if c.Generator.OpenAI.APIKey == "" {
			return fmt.Errorf("generator.openai.api_key is required when generator.mode is openai")
		}
		if c.Generator.OpenAI.Model == "" {
			return fmt.Errorf("generator.openai.model is required when generator.mode is openai")
		}
	default:
		return fmt.Errorf("generator.mode must be %q or %q, got %q", "phased", "openai", c.Generator.Mode)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Buffer.RetryAfterRaw != "" {
		cfg.Buffer.RetryAfter, err = time.ParseDuration(cfg.Buffer.RetryAfterRaw)
		if err != nil {
			return fmt.Errorf("parsing retry_after %q: %w", cfg.Buffer.RetryAfterRaw, err)
		}
	}

	if cfg.Generator.PhaseDelayRaw != "" {
		cfg.Generator.PhaseDelay, err = time.ParseDuration(cfg.Generator.PhaseDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing phase_delay %q: %w", cfg.Generator.PhaseDelayRaw, err)
		}
	}

	if cfg.Generator.OpenAI.TimeoutRaw != "" {
		cfg.Generator.OpenAI.Timeout, err = time.ParseDuration(cfg.Generator.OpenAI.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.Generator.OpenAI.TimeoutRaw, err)
		}
	}

	if cfg.Sessions.IdleTimeoutRaw != "" {
		cfg.Sessions.IdleTimeout, err = time.ParseDuration(cfg.Sessions.IdleTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing idle_timeout %q: %w", cfg.Sessions.IdleTimeoutRaw, err)
		}
	}

	return nil
}
