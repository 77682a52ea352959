// Package config provides configuration loading and management for Prospect.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Prospect configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Model  ModelConfig  `yaml:"model"`
	Enrich EnrichConfig `yaml:"enrich"`
	Events EventsConfig `yaml:"events"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `yaml:"addr"`
	// ShutdownTimeout bounds graceful shutdown, as a duration string ("10s").
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// FetchConfig configures the website fetcher.
type FetchConfig struct {
	// Timeout is the hard wall-clock bound on one website fetch, as a
	// duration string ("15s").
	Timeout string `yaml:"timeout"`
	// UserAgent identifies the client to website origins.
	UserAgent string `yaml:"user_agent"`
	// MaxContentSize caps how many body bytes are read.
	MaxContentSize int64 `yaml:"max_content_size"`
	// RateLimitRPS throttles outbound fetches. 0 disables the limiter.
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	// BlockPrivateHosts refuses fetches into private networks.
	BlockPrivateHosts bool `yaml:"block_private_hosts"`
}

// ModelConfig configures the completion endpoint.
type ModelConfig struct {
	// Provider selects the wire format ("openai" or "anthropic").
	Provider string `yaml:"provider"`
	// Endpoint is the base API URL (empty = provider default).
	Endpoint string `yaml:"endpoint"`
	// Name is the model identifier.
	Name string `yaml:"name"`
	// APIKey is the completion credential. Usually supplied via
	// ${PROSPECT_API_KEY} expansion rather than written into the file.
	APIKey string `yaml:"api_key"`
	// Timeout is the maximum time to wait for model responses, as a
	// duration string ("60s").
	Timeout string `yaml:"timeout"`
}

// EnrichConfig configures the enrichment pipeline.
type EnrichConfig struct {
	// Mode is "heuristic", "ai-optional", or "ai-required".
	Mode string `yaml:"mode"`
	// SignalTable is the path to a YAML signal table overriding the
	// built-in groups. Empty uses the defaults.
	SignalTable string `yaml:"signal_table"`
	// WatchSignalTable hot-reloads the table when the file changes.
	WatchSignalTable bool `yaml:"watch_signal_table"`
}

// EventsConfig configures the optional NATS result publisher.
type EventsConfig struct {
	// Enabled turns event publishing on.
	Enabled bool `yaml:"enabled"`
	// URL is the NATS server URL.
	URL string `yaml:"url"`
	// SubjectPrefix prefixes published subjects (default "prospect.enriched").
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Fetch: FetchConfig{
			Timeout:        "15s",
			MaxContentSize: 2 << 20,
		},
		Model: ModelConfig{
			Provider: "openai",
			Name:     "gpt-4o-mini",
			Timeout:  "60s",
		},
		Enrich: EnrichConfig{
			Mode: "ai-optional",
		},
		Events: EventsConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "prospect.enriched",
		},
	}
}

// GetShutdownTimeout parses the shutdown timeout, defaulting to 10s.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetFetchTimeout parses the fetch timeout, defaulting to 15s.
func (c *Config) GetFetchTimeout() time.Duration {
	return parseDuration(c.Fetch.Timeout, 15*time.Second)
}

// GetModelTimeout parses the model response timeout, defaulting to 60s.
func (c *Config) GetModelTimeout() time.Duration {
	return parseDuration(c.Model.Timeout, 60*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Fetch.Timeout != "" {
		if d, err := time.ParseDuration(c.Fetch.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("fetch.timeout must be a positive duration, got %q", c.Fetch.Timeout)
		}
	}
	switch c.Enrich.Mode {
	case "heuristic", "ai-optional", "ai-required":
	default:
		return fmt.Errorf("enrich.mode must be heuristic, ai-optional, or ai-required, got %q", c.Enrich.Mode)
	}
	if c.Enrich.Mode != "heuristic" {
		if c.Model.Provider == "" {
			return fmt.Errorf("model.provider is required when enrich.mode is %s", c.Enrich.Mode)
		}
		if c.Model.Name == "" {
			return fmt.Errorf("model.name is required when enrich.mode is %s", c.Enrich.Mode)
		}
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events.url is required when events are enabled")
	}
	return nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
