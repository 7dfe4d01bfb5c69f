// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Images   ImagesConfig   `mapstructure:"images"`
	DB       DBConfig       `mapstructure:"db"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CrawlerConfig governs extraction defaults.
type CrawlerConfig struct {
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	WaitSelector    string `mapstructure:"wait_selector"`
	MaxPagesDefault int    `mapstructure:"max_pages_default"`
	UserAgent       string `mapstructure:"user_agent"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	MaxParallel   int `mapstructure:"max_parallel"`
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
}

// ImagesConfig sets the rehost pipeline behavior and storage backend.
type ImagesConfig struct {
	Provider    string `mapstructure:"provider"`
	Dir         string `mapstructure:"dir"`
	PublicBase  string `mapstructure:"public_base"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	MaxEdgePx   int    `mapstructure:"max_edge_px"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
	MaxParallel int    `mapstructure:"max_parallel"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.timeout_seconds", 30)
	v.SetDefault("crawler.wait_selector", "body")
	v.SetDefault("crawler.max_pages_default", 10)
	v.SetDefault("crawler.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("images.provider", "local")
	v.SetDefault("images.dir", "uploads")
	v.SetDefault("images.public_base", "/uploads")
	v.SetDefault("images.max_edge_px", 1920)
	v.SetDefault("images.jpeg_quality", 85)
	v.SetDefault("images.max_parallel", 5)
	v.SetDefault("db.max_open_conns", 8)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0")
	}
	if c.Images.MaxParallel <= 0 {
		return fmt.Errorf("images.max_parallel must be > 0")
	}
	if c.Images.JPEGQuality <= 0 || c.Images.JPEGQuality > 100 {
		return fmt.Errorf("images.jpeg_quality must be in (0,100]")
	}
	switch c.Images.Provider {
	case "local":
		if c.Images.Dir == "" {
			return fmt.Errorf("images.dir must be set for the local provider")
		}
	case "gcs":
		if c.Images.GCSBucket == "" {
			return fmt.Errorf("images.gcs_bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("unknown images.provider: %s", c.Images.Provider)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// CrawlTimeout converts the configured extraction timeout to a duration.
func (c Config) CrawlTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// NavTimeout converts the headless navigation timeout to a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}
