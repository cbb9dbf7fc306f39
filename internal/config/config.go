package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/util"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name used when no path is given.
const DefaultConfigFile = "config.yaml"

// Environment overrides.
const (
	envDatabaseDSN = "PICKLES_DATABASE_DSN"
	envJWTSecret   = "PICKLES_JWT_SECRET"
	envRedisAddr   = "PICKLES_REDIS_ADDR"
	envListen      = "PICKLES_LISTEN"
)

// ErrMissingDSN is returned when no database DSN is configured.
var ErrMissingDSN = errors.New("config: database dsn is required")

// AppConfig carries command-line level settings.
type AppConfig struct {
	ConfigPath string
}

// Config is the YAML configuration file.
type Config struct {
	Listen   string         `yaml:"listen"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Logging  LoggingConfig  `yaml:"logging"`
	Content  ContentConfig  `yaml:"content"`
	Redis    RedisConfig    `yaml:"redis"`
	Backup   BackupConfig   `yaml:"backup"`
}

// DatabaseConfig selects the database.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	TimeZone string `yaml:"timezone"`

	// Queries slower than this are logged as warnings.
	SlowThreshold time.Duration `yaml:"slow-threshold"`
}

// JWTConfig configures admin tokens.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LoggingConfig configures logrus output and file rotation.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max-size-mb"`
	MaxBackups  int    `yaml:"max-backups"`
	MaxAgeDays  int    `yaml:"max-age-days"`
	RequestLogs bool   `yaml:"request-logs"`
}

// ContentConfig holds the default assembly options.
type ContentConfig struct {
	Separator      *string        `yaml:"separator"`
	Suffix         string         `yaml:"suffix"`
	BlurbMaxLength int            `yaml:"blurb-max-length"`
	Limits         map[string]int `yaml:"limits"`
}

// RedisConfig enables the report cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// BackupConfig sets where backups are written.
type BackupConfig struct {
	Dir      string   `yaml:"dir"`
	Compress *bool    `yaml:"compress"`
	S3       S3Config `yaml:"s3"`
}

// S3Config configures off-site backup copies.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access-key"`
	SecretKey string `yaml:"secret-key"`
	Prefix    string `yaml:"prefix"`
}

// ResolveConfigPath returns path, or config.yaml under WRITABLE_PATH or the working directory.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	if base := util.WritablePath(); base != "" {
		return filepath.Join(base, DefaultConfigFile)
	}
	return DefaultConfigFile
}

// ConfigExists reports whether a config file is present at path.
func ConfigExists(path string) bool {
	info, errStat := os.Stat(path)
	return errStat == nil && !info.IsDir()
}

// Load reads the YAML file at path, applies .env and environment overrides and fills defaults.
// A missing file yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, errRead := os.ReadFile(path)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

// applyEnv overrides file values with PICKLES_* variables.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envDatabaseDSN)); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(envJWTSecret)); v != "" {
		cfg.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv(envRedisAddr)); v != "" {
		cfg.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(envListen)); v != "" {
		cfg.Listen = v
	}
}

// applyDefaults fills unset values.
func applyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = defaultDSN()
	}
	if cfg.Database.SlowThreshold <= 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.JWT.Expiry <= 0 {
		cfg.JWT.Expiry = 24 * time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 50
	}
	if cfg.Logging.MaxBackups <= 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAgeDays <= 0 {
		cfg.Logging.MaxAgeDays = 30
	}
	if cfg.Content.BlurbMaxLength <= 0 {
		cfg.Content.BlurbMaxLength = content.MaxContentLength
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 10 * time.Minute
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = "backups"
		if base := util.WritablePath(); base != "" {
			cfg.Backup.Dir = filepath.Join(base, "backups")
		}
	}
}

// defaultDSN returns the SQLite database next to WRITABLE_PATH or in ./data.
func defaultDSN() string {
	if base := util.WritablePath(); base != "" {
		return "file:" + filepath.Join(base, "pickles.db")
	}
	return "file:data/pickles.db"
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return ErrMissingDSN
	}
	for name, limit := range c.Content.Limits {
		if _, ok := content.ParseCategory(name); !ok {
			return fmt.Errorf("config: unknown content category %q", name)
		}
		if limit < 0 {
			return fmt.Errorf("config: content limit for %s must not be negative", name)
		}
	}
	return nil
}

// ContentOptions converts the content section into assembly options.
func (c *Config) ContentOptions() content.Options {
	opts := content.DefaultOptions()
	if c == nil {
		return opts
	}
	if c.Content.Separator != nil {
		opts.Separator = *c.Content.Separator
	}
	opts.Suffix = c.Content.Suffix
	for name, limit := range c.Content.Limits {
		if category, ok := content.ParseCategory(name); ok {
			opts.Limits[category] = limit
		}
	}
	return opts
}

// BackupCompress reports whether backups are gzip-compressed (default true).
func (c *Config) BackupCompress() bool {
	return c.Backup.Compress == nil || *c.Backup.Compress
}

// RequireJWTSecret fails when no token secret is configured. Only the
// server needs one; CLI commands run without it.
func (c *Config) RequireJWTSecret() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt secret is required (set jwt.secret or %s)", envJWTSecret)
	}
	return nil
}
