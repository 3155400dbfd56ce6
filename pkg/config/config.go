package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverDynamoDB = "dynamodb"
	DriverSQLite   = "sqlite"
)

// Config holds all text service configuration.
type Config struct {
	Listen string `yaml:"listen" env:"TEXTSVC_LISTEN"`
	// Port overrides the port of Listen when set.
	Port     int           `yaml:"port" env:"PORT"`
	LogLevel string        `yaml:"log_level" env:"TEXTSVC_LOG_LEVEL"`
	Region   string        `yaml:"region" env:"AWS_REGION"`
	Store    StoreConfig   `yaml:"store"`
	Agent    AgentConfig   `yaml:"agent"`
	Cache    CacheConfig   `yaml:"cache"`
	History  HistoryConfig `yaml:"history"`
}

// StoreConfig selects and tunes the text table backend.
type StoreConfig struct {
	Driver     string        `yaml:"driver" env:"TEXTSVC_STORE_DRIVER"`
	Table      string        `yaml:"table" env:"DYNAMODB_TABLE_NAME"`
	SQLitePath string        `yaml:"sqlite_path" env:"TEXTSVC_SQLITE_PATH"`
	PageSize   int           `yaml:"page_size" env:"TEXTSVC_STORE_PAGE_SIZE"`
	Timeout    time.Duration `yaml:"timeout" env:"TEXTSVC_STORE_TIMEOUT"`
	// MaxAttempts and MaxBackoff bound retries of throttled scans.
	MaxAttempts int           `yaml:"max_attempts" env:"TEXTSVC_STORE_MAX_ATTEMPTS"`
	MaxBackoff  time.Duration `yaml:"max_backoff" env:"TEXTSVC_STORE_MAX_BACKOFF"`
}

// AgentConfig identifies the generative agent.
type AgentConfig struct {
	AgentID           string        `yaml:"agent_id" env:"BEDROCK_AGENT_ID"`
	AliasID           string        `yaml:"alias_id" env:"BEDROCK_AGENT_ALIAS"`
	Timeout           time.Duration `yaml:"timeout" env:"TEXTSVC_AGENT_TIMEOUT"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"TEXTSVC_AGENT_RPM"`
}

// CacheConfig controls the pool caches.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" env:"TEXTSVC_CACHE_TTL"`
}

// HistoryConfig controls the request history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" env:"TEXTSVC_HISTORY_ENABLED"`
	DBPath  string `yaml:"db_path" env:"TEXTSVC_HISTORY_DB"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:   ":8000",
		LogLevel: "info",
		Region:   "ap-southeast-2",
		Store: StoreConfig{
			Driver:      DriverDynamoDB,
			Table:       "wordsntexts",
			SQLitePath:  "textsvc.db",
			PageSize:    100,
			Timeout:     10 * time.Second,
			MaxAttempts: 5,
			MaxBackoff:  5 * time.Second,
		},
		Agent: AgentConfig{
			Timeout: 60 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 300 * time.Second,
		},
		History: HistoryConfig{
			DBPath: "textsvc-history.db",
		},
	}
}

// Load reads an optional YAML config file, expands environment variables in
// it, then applies environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port > 0 {
		cfg.Listen = fmt.Sprintf(":%d", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverDynamoDB:
		if c.Store.Table == "" {
			errs = append(errs, errors.New("store.table is required for the dynamodb driver"))
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if (c.Agent.AgentID == "") != (c.Agent.AliasID == "") {
		errs = append(errs, errors.New("agent.agent_id and agent.alias_id must be set together"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.History.Enabled && c.History.DBPath == "" {
		errs = append(errs, errors.New("history.db_path is required when history is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
