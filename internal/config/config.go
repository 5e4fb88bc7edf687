// ABOUTME: Configuration loading and parsing for the twin client.
// ABOUTME: Supports YAML files with env var expansion and duration parsing.

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete twin-tui configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the API server connection settings.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SessionConfig holds conversation behavior settings.
type SessionConfig struct {
	DefaultMode string `yaml:"default_mode"`
	ContentType string `yaml:"content_type"`
	Streaming   *bool  `yaml:"streaming"`

	SpeakDelay     time.Duration `yaml:"-"`
	NoticeDuration time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	SpeakDelayRaw     string `yaml:"speak_delay"`
	NoticeDurationRaw string `yaml:"notice_duration"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	streaming := true
	return &Config{
		Server: ServerConfig{BaseURL: "http://localhost:8000"},
		Session: SessionConfig{
			DefaultMode:    "technical",
			Streaming:      &streaming,
			SpeakDelay:     800 * time.Millisecond,
			NoticeDuration: 2500 * time.Millisecond,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path. Environment
// variables in the format ${VAR_NAME} are expanded and duration
// strings are parsed. Fields left out of the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// StreamingEnabled reports whether the streaming endpoint should be
// used. Unset means streaming.
func (c *SessionConfig) StreamingEnabled() bool {
	return c.Streaming == nil || *c.Streaming
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if _, err := url.Parse(c.Server.BaseURL); err != nil {
		return fmt.Errorf("server.base_url is not a valid URL: %w", err)
	}
	if c.Session.SpeakDelay < 0 {
		return fmt.Errorf("session.speak_delay must not be negative")
	}
	if c.Session.NoticeDuration < 0 {
		return fmt.Errorf("session.notice_duration must not be negative")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration
// values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Session.SpeakDelayRaw != "" {
		cfg.Session.SpeakDelay, err = time.ParseDuration(cfg.Session.SpeakDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing speak_delay %q: %w", cfg.Session.SpeakDelayRaw, err)
		}
	}

	if cfg.Session.NoticeDurationRaw != "" {
		cfg.Session.NoticeDuration, err = time.ParseDuration(cfg.Session.NoticeDurationRaw)
		if err != nil {
			return fmt.Errorf("parsing notice_duration %q: %w", cfg.Session.NoticeDurationRaw, err)
		}
	}

	return nil
}
