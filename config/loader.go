package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration: defaults, then the optional YAML
// file, then environment overrides. Environment variables referenced in the
// file as ${VAR} are expanded before parsing so credentials stay out of the
// file itself.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		expanded := os.Expand(string(data), func(key string) string {
			return os.Getenv(key)
		})

		if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variables that take precedence over
// file values. Only operational knobs are overridable this way.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("PROSPECT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PROSPECT_API_KEY"); v != "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv("PROSPECT_MODEL"); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv("PROSPECT_ENRICH_MODE"); v != "" {
		c.Enrich.Mode = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.Events.URL = v
	}
}
