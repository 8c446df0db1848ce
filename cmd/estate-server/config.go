// Package main provides the estate content server CLI.
package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/remote"
)

// Config represents the server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Generation GenerationConfig `yaml:"generation"`
	Redis      RedisConfig      `yaml:"redis"`
	Publish    PublishConfig    `yaml:"publish"`
	Verbose    bool             `yaml:"-"` // set via CLI flag
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	HTTPAddress      string `yaml:"http_address"`        // API listen address (default: :8080)
	MetricsAddress   string `yaml:"metrics_address"`     // Prometheus listen address (default: :9090), "off" disables
	RateLimitPerUser int    `yaml:"rate_limit_per_user"` // generation/publish requests per minute (default: 30)
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // default: ./data/estate.db, ESTATE_DB_PATH overrides
}

// GenerationConfig configures the remote generator and the orchestrator.
type GenerationConfig struct {
	APIKey            string  `yaml:"-"` // OPENROUTER_API_KEY only
	BaseURL           string  `yaml:"base_url"`
	TextModel         string  `yaml:"text_model"`
	ImageModel        string  `yaml:"image_model"`
	Referer           string  `yaml:"referer"`             // sent as HTTP-Referer, e.g. the Web App URL
	Timeout           string  `yaml:"timeout"`             // per request (default: 60s)
	MaxRetries        int     `yaml:"max_retries"`         // retries after an unreachable endpoint (default: 0)
	RequestsPerSecond float64 `yaml:"requests_per_second"` // outbound pacing, 0 disables
	DefaultLocale     string  `yaml:"default_locale"`      // ru or en (default: ru)
}

// RedisConfig configures the shared generation lock.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"` // default: localhost:6379
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	LockTTL  string `yaml:"lock_ttl"` // default: 5m
}

// PublishConfig configures channel publishing.
type PublishConfig struct {
	TelegramBotToken   string `yaml:"-"`              // TELEGRAM_BOT_TOKEN only
	MaxPerWindow       int    `yaml:"max_per_window"` // default: 20
	Window             string `yaml:"window"`         // default: 1m
	ConfirmWithoutText bool   `yaml:"confirm_without_text"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values and the
// environment applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg
}

// applyEnv reads secrets and overrides from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.Generation.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Publish.TelegramBotToken = v
	}
	if v := os.Getenv("ESTATE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Server.RateLimitPerUser == 0 {
		c.Server.RateLimitPerUser = 30
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/estate.db"
	}
	if c.Generation.Timeout == "" {
		c.Generation.Timeout = "60s"
	}
	if c.Generation.DefaultLocale == "" {
		c.Generation.DefaultLocale = string(models.DefaultLocale)
	}
	if c.Redis.Address == "" {
		c.Redis.Address = "localhost:6379"
	}
	if c.Redis.LockTTL == "" {
		c.Redis.LockTTL = "5m"
	}
	if c.Publish.MaxPerWindow == 0 {
		c.Publish.MaxPerWindow = 20
	}
	if c.Publish.Window == "" {
		c.Publish.Window = "1m"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := c.GenerationTimeout(); err != nil {
		return fmt.Errorf("invalid generation.timeout: %w", err)
	}
	if c.Generation.MaxRetries < 0 || c.Generation.MaxRetries > 5 {
		return fmt.Errorf("generation.max_retries must be between 0 and 5")
	}
	if c.Generation.RequestsPerSecond < 0 {
		return fmt.Errorf("generation.requests_per_second must not be negative")
	}
	if c.Generation.Referer != "" {
		u, err := url.Parse(c.Generation.Referer)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("generation.referer must be an http(s) URL")
		}
	}
	switch models.Locale(c.Generation.DefaultLocale) {
	case models.LocaleRU, models.LocaleEN:
	default:
		return fmt.Errorf("generation.default_locale must be ru or en")
	}
	if c.Redis.Enabled {
		if _, err := c.LockTTL(); err != nil {
			return fmt.Errorf("invalid redis.lock_ttl: %w", err)
		}
	}
	if c.Publish.MaxPerWindow < 0 {
		return fmt.Errorf("publish.max_per_window must not be negative")
	}
	if _, err := c.PublishWindow(); err != nil {
		return fmt.Errorf("invalid publish.window: %w", err)
	}
	return nil
}

// RemoteConfig returns the remote client settings. Call after Validate.
func (c *Config) RemoteConfig() remote.Config {
	timeout, _ := c.GenerationTimeout()
	return remote.Config{
		APIKey:            c.Generation.APIKey,
		BaseURL:           c.Generation.BaseURL,
		TextModel:         c.Generation.TextModel,
		ImageModel:        c.Generation.ImageModel,
		Referer:           c.Generation.Referer,
		Timeout:           timeout,
		RequestsPerSecond: c.Generation.RequestsPerSecond,
	}
}

// GenerationTimeout returns the parsed per-request timeout.
func (c *Config) GenerationTimeout() (time.Duration, error) {
	return positiveDuration(c.Generation.Timeout)
}

// LockTTL returns the parsed Redis lock lease.
func (c *Config) LockTTL() (time.Duration, error) {
	return positiveDuration(c.Redis.LockTTL)
}

// PublishWindow returns the parsed publish rate limit window.
func (c *Config) PublishWindow() (time.Duration, error) {
	return positiveDuration(c.Publish.Window)
}

func positiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}
