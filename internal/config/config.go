package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	Server struct {
		Host            string        `yaml:"host"` // empty binds all interfaces
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Fetch struct {
		MaxContentLength int           `yaml:"max_content_length"` // characters kept from each body
		Timeout          time.Duration `yaml:"timeout"`
		UserAgent        string        `yaml:"user_agent,omitempty"` // empty rotates browser UAs
	} `yaml:"fetch"`

	Store struct {
		Backend string `yaml:"backend"` // "memory" or "bolt"
		Path    string `yaml:"path,omitempty"`
	} `yaml:"store"`

	Log struct {
		Level string `yaml:"level,omitempty"`
		Path  string `yaml:"path,omitempty"` // empty logs to stderr
	} `yaml:"log"`
}

const (
	DefaultFileName         = "mcp-remote.yaml"
	DefaultPort             = 3000
	DefaultMaxContentLength = 5000
	DefaultFetchTimeout     = 30 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultStoreBackend     = "memory"
	DefaultLogLevel         = "info"

	envConfigPath = "MCP_REMOTE_CONFIG"
)

// Load builds the configuration from, in increasing priority: defaults, the
// YAML file at path (or MCP_REMOTE_CONFIG, or ./mcp-remote.yaml), a .env file
// in the working directory, and environment variables. An explicitly named
// file must exist; the default one is optional.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg := &Config{}
	applyDefaults(cfg)

	explicit := true
	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path == "" {
		path = DefaultFileName
		explicit = false
	}
	if err := loadFromFile(path, cfg); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config from %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	return nil
}

// applyDefaults fills in zero values.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Fetch.MaxContentLength == 0 {
		cfg.Fetch.MaxContentLength = DefaultMaxContentLength
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = DefaultFetchTimeout
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("MCP_REMOTE_FETCH_MAX_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MCP_REMOTE_FETCH_MAX_LENGTH %q: %w", v, err)
		}
		cfg.Fetch.MaxContentLength = n
	}
	if v := os.Getenv("MCP_REMOTE_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MCP_REMOTE_FETCH_TIMEOUT %q: %w", v, err)
		}
		cfg.Fetch.Timeout = d
	}
	if v := os.Getenv("MCP_REMOTE_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("MCP_REMOTE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MCP_REMOTE_LOG"); v != "" {
		cfg.Log.Path = v
	}
	if v := os.Getenv("MCP_REMOTE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Fetch.MaxContentLength < 1 {
		return fmt.Errorf("fetch.max_content_length must be positive, got %d", c.Fetch.MaxContentLength)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative")
	}
	switch c.Store.Backend {
	case "memory":
	case "bolt":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the bolt backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
