package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/eyesofazrael/azrael/pkg/logging"
	"github.com/eyesofazrael/azrael/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all Azrael configuration.
type Config struct {
	Listen      string           `yaml:"listen"`
	DBPath      string           `yaml:"db_path"`
	Log         logging.Config   `yaml:"log"`
	Search      SearchConfig     `yaml:"search"`
	LocalStore  LocalStoreConfig `yaml:"local_store"`
	RateLimit   RateLimitConfig  `yaml:"rate_limit"`
	Redis       RedisConfig      `yaml:"redis"`
	AdminEmails []string         `yaml:"admin_emails"`
}

// SearchConfig controls the search cache and corpus index.
type SearchConfig struct {
	CacheDBPath    string        `yaml:"cache_db_path"`
	CacheTimeout   time.Duration `yaml:"cache_timeout"`
	MaxHistorySize int           `yaml:"max_history_size"`
	IndexPath      string        `yaml:"index_path"`
}

// LocalStoreConfig locates the key/value store that holds history and
// preferences. An empty path keeps it in memory.
type LocalStoreConfig struct {
	Path string `yaml:"path"`
}

// RateLimitConfig controls quotas and IP blocking.
type RateLimitConfig struct {
	// Store is "docstore" (default) or "redis".
	Store           string                           `yaml:"store"`
	Window          time.Duration                    `yaml:"window"`
	FailOpen        bool                             `yaml:"fail_open"`
	MaxViolations   int                              `yaml:"max_violations"`
	BlockDuration   time.Duration                    `yaml:"block_duration"`
	IPSalt          string                           `yaml:"ip_salt"`
	CleanupInterval time.Duration                    `yaml:"cleanup_interval"`
	Security        models.SecurityLogConfig         `yaml:"security_log"`
	Limits          map[string]models.OperationLimit `yaml:"limits"`
}

// RedisConfig is used when rate_limit.store is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "azrael.db",
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
		Search: SearchConfig{
			CacheDBPath:    "azrael-cache.db",
			CacheTimeout:   5 * time.Minute,
			MaxHistorySize: 50,
		},
		LocalStore: LocalStoreConfig{
			Path: "azrael-local",
		},
		RateLimit: RateLimitConfig{
			Store:           "docstore",
			Window:          time.Hour,
			FailOpen:        true,
			MaxViolations:   5,
			BlockDuration:   24 * time.Hour,
			CleanupInterval: time.Hour,
			Security:        models.SecurityLogConfig{RetentionDays: 30},
			Limits: map[string]models.OperationLimit{
				"default": {Anonymous: 100, Authenticated: 1000},
				"search":  {Anonymous: 60, Authenticated: 600},
				"write":   {Anonymous: 10, Authenticated: 100},
			},
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.RateLimit.Store {
	case "docstore", "redis":
	default:
		return fmt.Errorf("rate_limit.store: unknown store %q", c.RateLimit.Store)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	if c.Search.MaxHistorySize <= 0 {
		return fmt.Errorf("search.max_history_size must be positive")
	}
	if _, ok := c.RateLimit.Limits["default"]; !ok {
		return fmt.Errorf("rate_limit.limits: a \"default\" entry is required")
	}
	return nil
}

// IsAdmin reports whether email belongs to a configured administrator.
func (c *Config) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	for _, a := range c.AdminEmails {
		if strings.EqualFold(a, email) {
			return true
		}
	}
	return false
}
