package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// MaxTerminalsLimit is the hard ceiling on concurrently live terminals.
const MaxTerminalsLimit = 9

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	Terminal  TerminalConfig
	Persist   PersistConfig
	Keymap    KeymapConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// TerminalConfig holds pty defaults.
type TerminalConfig struct {
	MaxTerminals int      `envconfig:"MAX_TERMINALS" default:"9"`
	Shell        string   `envconfig:"TERMINAL_SHELL"`
	Cols         int      `envconfig:"TERMINAL_COLS" default:"80"`
	Rows         int      `envconfig:"TERMINAL_ROWS" default:"24"`
	ShellAllow   []string `envconfig:"SHELL_ALLOW"`
}

// PersistConfig selects where session records are kept.
type PersistConfig struct {
	Backend string `envconfig:"PERSIST_BACKEND" default:"file"`
	Dir     string `envconfig:"PERSIST_DIR"`
}

// KeymapConfig points at an optional user keymap (yaml or toml).
type KeymapConfig struct {
	Path string `envconfig:"KEYMAP_PATH"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Persistence backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Terminal: TerminalConfig{
			MaxTerminals: MaxTerminalsLimit,
			Cols:         80,
			Rows:         24,
		},
		Persist: PersistConfig{
			Backend: BackendFile,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects values the rest of the backend cannot honor.
func (c *Config) Validate() error {
	if c.Terminal.MaxTerminals < 1 || c.Terminal.MaxTerminals > MaxTerminalsLimit {
		return fmt.Errorf("MAX_TERMINALS must be between 1 and %d, got %d", MaxTerminalsLimit, c.Terminal.MaxTerminals)
	}
	if c.Terminal.Cols < 1 || c.Terminal.Rows < 1 {
		return fmt.Errorf("terminal size must be positive, got %dx%d", c.Terminal.Cols, c.Terminal.Rows)
	}
	switch strings.ToLower(c.Persist.Backend) {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown PERSIST_BACKEND %q", c.Persist.Backend)
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
