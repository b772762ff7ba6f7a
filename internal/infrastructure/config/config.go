package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Interpreter Interpreter
	Logging     LogConfig
	Cache       CacheConfig
}

// Interpreter bounds every interpreter instance.
type Interpreter struct {
	MaxDepth int           `envconfig:"JSINTERP_MAX_DEPTH" default:"256"`
	MaxSteps int64         `envconfig:"JSINTERP_MAX_STEPS" default:"10000000"`
	Timeout  time.Duration `envconfig:"JSINTERP_TIMEOUT" default:"5s"`
	PoolSize int           `envconfig:"JSINTERP_POOL_SIZE" default:"4"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// CacheConfig holds the signature-spec cache configuration.
type CacheConfig struct {
	Enabled bool          `envconfig:"CACHE_ENABLED" default:"true"`
	Path    string        `envconfig:"CACHE_PATH" default:"cipherjs-cache.db"`
	TTL     time.Duration `envconfig:"CACHE_TTL" default:"720h"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
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
		Interpreter: Interpreter{
			MaxDepth: 256,
			MaxSteps: 10_000_000,
			Timeout:  5 * time.Second,
			PoolSize: 4,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "cipherjs-cache.db",
			TTL:     720 * time.Hour,
		},
	}
}

// fileConfig mirrors Config for TOML files. Unset keys keep the
// environment value.
type fileConfig struct {
	Interpreter struct {
		MaxDepth *int    `toml:"max_depth"`
		MaxSteps *int64  `toml:"max_steps"`
		Timeout  *string `toml:"timeout"`
		PoolSize *int    `toml:"pool_size"`
	} `toml:"interpreter"`
	Logging struct {
		Level       *string `toml:"level"`
		Development *bool   `toml:"development"`
	} `toml:"logging"`
	Cache struct {
		Enabled *bool   `toml:"enabled"`
		Path    *string `toml:"path"`
		TTL     *string `toml:"ttl"`
	} `toml:"cache"`
}

// LoadFile loads configuration from the environment and overlays the TOML
// file at path.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.Overlay(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Overlay applies the keys present in a TOML document to cfg.
func (cfg *Config) Overlay(data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	in := fc.Interpreter
	setIf(&cfg.Interpreter.MaxDepth, in.MaxDepth)
	setIf(&cfg.Interpreter.MaxSteps, in.MaxSteps)
	setIf(&cfg.Interpreter.PoolSize, in.PoolSize)
	if err := setDuration(&cfg.Interpreter.Timeout, in.Timeout, "interpreter.timeout"); err != nil {
		return err
	}

	setIf(&cfg.Logging.Level, fc.Logging.Level)
	setIf(&cfg.Logging.Development, fc.Logging.Development)

	setIf(&cfg.Cache.Enabled, fc.Cache.Enabled)
	setIf(&cfg.Cache.Path, fc.Cache.Path)
	return setDuration(&cfg.Cache.TTL, fc.Cache.TTL, "cache.ttl")
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, key string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
