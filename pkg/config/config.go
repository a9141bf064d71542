// Package config loads gospark configuration from a YAML file and
// GOSPARK_* environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (GOSPARK_*)
//  2. Config file (gospark.yaml)
//  3. Built-in defaults
//
// Environment variables:
//   - GOSPARK_DATA_DIR="./data"
//   - GOSPARK_HTTP_ADDR="127.0.0.1:8791"
//   - GOSPARK_CACHE_SIZE=512
//   - GOSPARK_CACHE_TTL=5m
//   - GOSPARK_SYNC_QUEUE_PATH="./data/sync-queue.json"
//   - GOSPARK_SYNC_QUEUE_CAPACITY=1024
//   - GOSPARK_TEMPLATES_PATH="./templates.json"
//   - GOSPARK_LOG_LEVEL="info"
//   - GOSPARK_LOG_FORMAT="text" or "json"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all gospark settings.
type Config struct {
	// DataDir holds the sqlite database and the sync queue.
	DataDir string `yaml:"dataDir"`

	// HTTPAddr is the listen address for the local API server.
	HTTPAddr string `yaml:"httpAddr"`

	Cache   CacheConfig   `yaml:"cache"`
	Sync    SyncConfig    `yaml:"sync"`
	Logging LoggingConfig `yaml:"logging"`

	// TemplatesPath points at an optional user templates JSON file.
	TemplatesPath string `yaml:"templatesPath"`
}

// CacheConfig tunes the in-memory read cache.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// UnmarshalYAML accepts the TTL as a duration string ("30s", "5m");
// yaml.v3 has no native time.Duration support.
func (c *CacheConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Size int    `yaml:"size"`
		TTL  string `yaml:"ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Size != 0 {
		c.Size = raw.Size
	}
	if raw.TTL != "" {
		d, err := time.ParseDuration(raw.TTL)
		if err != nil {
			return fmt.Errorf("invalid cache.ttl: %w", err)
		}
		c.TTL = d
	}
	return nil
}

// SyncConfig tunes the offline write queue.
type SyncConfig struct {
	QueuePath     string `yaml:"queuePath"`
	QueueCapacity int    `yaml:"queueCapacity"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DataDir:  "./data",
		HTTPAddr: "127.0.0.1:8791",
		Cache: CacheConfig{
			Size: 512,
			TTL:  5 * time.Minute,
		},
		Sync: SyncConfig{
			QueueCapacity: 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path (missing file is fine), then applies
// environment overrides. An empty path searches the usual locations.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile checks the usual locations and returns the first that
// exists, or "".
func FindConfigFile() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".gospark", "config.yaml"))
	}
	candidates = append(candidates, "gospark.yaml", "config.yaml")
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func applyEnv(cfg *Config) {
	cfg.DataDir = getEnv("GOSPARK_DATA_DIR", cfg.DataDir)
	cfg.HTTPAddr = getEnv("GOSPARK_HTTP_ADDR", cfg.HTTPAddr)
	cfg.Cache.Size = getEnvInt("GOSPARK_CACHE_SIZE", cfg.Cache.Size)
	cfg.Cache.TTL = getEnvDuration("GOSPARK_CACHE_TTL", cfg.Cache.TTL)
	cfg.Sync.QueuePath = getEnv("GOSPARK_SYNC_QUEUE_PATH", cfg.Sync.QueuePath)
	cfg.Sync.QueueCapacity = getEnvInt("GOSPARK_SYNC_QUEUE_CAPACITY", cfg.Sync.QueueCapacity)
	cfg.TemplatesPath = getEnv("GOSPARK_TEMPLATES_PATH", cfg.TemplatesPath)
	cfg.Logging.Level = getEnv("GOSPARK_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("GOSPARK_LOG_FORMAT", cfg.Logging.Format)
}

func (c *Config) applyDerived() {
	if c.Sync.QueuePath == "" {
		c.Sync.QueuePath = filepath.Join(c.DataDir, "sync-queue.json")
	}
}

// DatabasePath is where the sqlite file lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "gospark.db")
}

// Validate rejects settings the rest of the system cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Sync.QueueCapacity <= 0 {
		return fmt.Errorf("sync.queueCapacity must be positive, got %d", c.Sync.QueueCapacity)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
