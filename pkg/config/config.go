// Package config handles loading and managing NutriScan configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nutriscan/nutriscan/pkg/engagement"
	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// Config is the top-level configuration for NutriScan.
type Config struct {
	Scoring    scoring.Config    `yaml:"scoring"`
	Nutrition  nutrition.Config  `yaml:"nutrition"`
	Engagement engagement.Config `yaml:"engagement"`
	Server     ServerConfig      `yaml:"server"`
	Storage    StorageConfig     `yaml:"storage"`
	Cache      CacheConfig       `yaml:"cache"`
	Log        LogConfig         `yaml:"log"`
}

// ServerConfig controls the nutriscand HTTP service.
type ServerConfig struct {
	Port            string `yaml:"port"`
	DatabaseURL     string `yaml:"database_url"`
	APIKey          string `yaml:"api_key"`
	WebhookSecret   string `yaml:"webhook_secret"`
	CORSOrigin      string `yaml:"cors_origin"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // seconds
	ReportTimezone  string `yaml:"report_timezone"`  // IANA name used for weekday breakdowns
	AutoMigrate     bool   `yaml:"auto_migrate"`
}

// StorageConfig selects where generated reports are archived.
type StorageConfig struct {
	Backend   string `yaml:"backend"` // local, s3 or gcs
	LocalPath string `yaml:"local_path"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // custom S3 endpoint, e.g. MinIO
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// CacheConfig controls the latest-assessment cache. An empty RedisAddr
// selects the in-process LRU.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTL           int    `yaml:"ttl"` // seconds
	LRUSize       int    `yaml:"lru_size"`
}

// TTLDuration returns the cache TTL as a duration.
func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring:    scoring.DefaultConfig(),
		Nutrition:  nutrition.DefaultConfig(),
		Engagement: engagement.DefaultConfig(),
		Server: ServerConfig{
			Port:            "8080",
			DatabaseURL:     "postgres://localhost:5432/nutriscan?sslmode=disable",
			CORSOrigin:      "*",
			ShutdownTimeout: 15,
			ReportTimezone:  "UTC",
			AutoMigrate:     true,
		},
		Storage: StorageConfig{
			Backend:   "local",
			LocalPath: "/tmp/nutriscan-data",
			Region:    "us-east-1",
		},
		Cache: CacheConfig{
			TTL:     3600,
			LRUSize: 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := c.Nutrition.Validate(); err != nil {
		return fmt.Errorf("nutrition: %w", err)
	}
	if err := c.Engagement.Validate(); err != nil {
		return fmt.Errorf("engagement: %w", err)
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("storage: local_path is required for the local backend")
		}
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage: bucket is required for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache: ttl must not be negative")
	}
	if c.Cache.LRUSize < 1 {
		return fmt.Errorf("cache: lru_size must be positive")
	}
	if _, err := time.LoadLocation(c.Server.ReportTimezone); err != nil {
		return fmt.Errorf("server: report_timezone: %w", err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log: unknown format %q", c.Log.Format)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the service sections.
// Unset variables leave the loaded value in place.
func (c *Config) ApplyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.DatabaseURL, "DATABASE_URL")
	setString(&c.Server.APIKey, "API_KEY")
	setString(&c.Server.WebhookSecret, "WEBHOOK_SECRET")
	setString(&c.Server.CORSOrigin, "CORS_ORIGIN")
	setString(&c.Server.ReportTimezone, "REPORT_TIMEZONE")
	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.LocalPath, "LOCAL_STORAGE_PATH")
	setString(&c.Storage.Bucket, "STORAGE_BUCKET")
	setString(&c.Storage.Prefix, "STORAGE_PREFIX")
	setString(&c.Storage.Region, "STORAGE_REGION")
	setString(&c.Storage.Endpoint, "STORAGE_ENDPOINT")
	setString(&c.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Cache.RedisDB = n
	}
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTO_MIGRATE: %w", err)
		}
		c.Server.AutoMigrate = b
	}
	return c.Validate()
}

// ReportLocation returns the configured report timezone, falling back to UTC.
func (c *Config) ReportLocation() *time.Location {
	loc, err := time.LoadLocation(c.Server.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Engine builds a scoring engine from the scoring section.
func (c *Config) Engine() (*scoring.Engine, error) {
	return scoring.NewEngine(c.Scoring)
}

// Aggregator builds a nutrition aggregator from the nutrition section.
func (c *Config) Aggregator() (*nutrition.Aggregator, error) {
	return nutrition.NewAggregator(c.Nutrition)
}

// EngagementScorer builds an engagement scorer from the engagement section.
func (c *Config) EngagementScorer() (*engagement.Scorer, error) {
	return engagement.NewScorer(c.Engagement)
}

// FindConfigFile looks for .nutriscan/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".nutriscan", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
