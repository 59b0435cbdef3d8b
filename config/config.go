// Package config loads the assistant's configuration from a YAML file
// with environment variable overrides for secrets and deploy-time knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full assistant configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Models  ModelsConfig  `yaml:"models"`
	Search  SearchConfig  `yaml:"search"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	// TurnTimeout bounds one conversation turn end to end.
	TurnTimeout time.Duration `yaml:"turn_timeout"`
}

// ModelsConfig selects the LLM backends.
type ModelsConfig struct {
	// Provider is "gemini" or "openai".
	Provider string `yaml:"provider"`

	// APIKey for the provider. Usually left empty here and supplied via
	// GEMINI_API_KEY / GOOGLE_API_KEY / OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`

	// Default is the model for routing and most specialists.
	Default string `yaml:"default"`

	// Goal is the model for the goal agent. Empty means Default.
	Goal string `yaml:"goal"`
}

// SearchConfig configures the web search tool.
type SearchConfig struct {
	APIKey   string `yaml:"api_key"`
	EngineID string `yaml:"engine_id"`
}

// SessionConfig selects session storage.
type SessionConfig struct {
	// Backend is "memory" or "redis".
	Backend string `yaml:"backend"`

	// RedisURL is the connection string for the redis backend, e.g.
	// "redis://localhost:6379/0". Overridable via REDIS_URL.
	RedisURL string `yaml:"redis_url"`

	// TTL expires idle redis sessions. Zero keeps them forever.
	TTL time.Duration `yaml:"ttl"`

	// MaxHistory bounds the conversation history per session.
	MaxHistory int `yaml:"max_history"`
}

// LoggingConfig controls structured logging and trace export.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level"`

	// Structured switches to JSON log output.
	Structured bool `yaml:"structured"`

	// TraceConsole pretty-prints spans to stdout.
	TraceConsole bool `yaml:"trace_console"`

	// AuditPath appends JSON-line turn audit events to the given file.
	// Empty disables the audit trail.
	AuditPath string `yaml:"audit_path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			TurnTimeout: 60 * time.Second,
		},
		Models: ModelsConfig{
			Provider: "gemini",
			Default:  "gemini-2.5-flash-lite",
			Goal:     "gemini-2.0-flash",
		},
		Session: SessionConfig{
			Backend:    "memory",
			MaxHistory: 40,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads the config file at path, applies defaults for anything the
// file omits, then applies environment overrides. An empty path loads
// defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("SUNDIAL_ADDR"); v != "" {
		c.Server.Addr = v
	}
	switch c.Models.Provider {
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.Models.APIKey = v
		}
	default:
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.Models.APIKey = v
		} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
			c.Models.APIKey = v
		}
	}
	if v := os.Getenv("SEARCH_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv("SEARCH_ENGINE_ID"); v != "" {
		c.Search.EngineID = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Session.RedisURL = v
		if c.Session.Backend == "" || c.Session.Backend == "memory" {
			c.Session.Backend = "redis"
		}
	}
}

// validate rejects configurations the assistant cannot start with.
func (c *Config) validate() error {
	switch c.Models.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown model provider '%s' (want gemini or openai)", c.Models.Provider)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend '%s' (want memory or redis)", c.Session.Backend)
	}
	if c.Session.Backend == "redis" && c.Session.RedisURL == "" {
		return fmt.Errorf("session backend is redis but no redis_url or REDIS_URL set")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	return nil
}
