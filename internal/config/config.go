// Package config provides configuration loading for pdf2all.
// Supports YAML files, a .env file and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for pdf2all.
type Config struct {
	Limits        LimitsConfig        `yaml:"limits"`
	OCR           OCRConfig           `yaml:"ocr"`
	Geometry      GeometryConfig      `yaml:"geometry"`
	Render        RenderConfig        `yaml:"render"`
	Docx          DocxConfig          `yaml:"docx"`
	Cache         CacheConfig         `yaml:"cache"`
	History       HistoryConfig       `yaml:"history"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LimitsConfig bounds the input accepted by the converters.
type LimitsConfig struct {
	MaxFileSizeMB      int64 `yaml:"max_file_size_mb"`
	FastJPGThresholdMB int64 `yaml:"fast_jpg_threshold_mb"`
}

// OCRConfig controls the OCR fallback.
type OCRConfig struct {
	Isolation    string        `yaml:"isolation"` // goroutine or process
	MaxWorkers   int           `yaml:"max_workers"`
	Languages    []string      `yaml:"languages"`
	Level        string        `yaml:"level"` // textline or word
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// GeometryConfig overrides the table reconstruction constants.
type GeometryConfig struct {
	BandHeight      float64 `yaml:"band_height"`
	ColumnGap       float64 `yaml:"column_gap"`
	AssignTolerance float64 `yaml:"assign_tolerance"`
}

// RenderConfig holds raster output defaults.
type RenderConfig struct {
	PPTXDPI    int `yaml:"pptx_dpi"`
	JPGDPI     int `yaml:"jpg_dpi"`
	JPGQuality int `yaml:"jpg_quality"`
}

// DocxConfig holds Word output settings.
type DocxConfig struct {
	PageLimit int `yaml:"page_limit"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // none, memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	PoolSize    int    `yaml:"pool_size"`
	PingRetries int    `yaml:"ping_retries"`
}

// HistoryConfig selects where conversion history is stored.
type HistoryConfig struct {
	Driver   string         `yaml:"driver"` // none, sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnectRetries  int           `yaml:"connect_retries"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.History.Driver == "sqlite" {
			cfg.History.SQLite.Path = ResolveRelativePath(path, cfg.History.SQLite.Path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			MaxFileSizeMB:      100,
			FastJPGThresholdMB: 10,
		},
		OCR: OCRConfig{
			Isolation:  "goroutine",
			MaxWorkers: 4,
			Languages:  []string{"eng"},
			Level:      "textline",
		},
		Geometry: GeometryConfig{
			BandHeight:      25,
			ColumnGap:       80,
			AssignTolerance: 40,
		},
		Render: RenderConfig{
			PPTXDPI:    150,
			JPGDPI:     72,
			JPGQuality: 85,
		},
		Docx: DocxConfig{
			PageLimit: 50,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        24 * time.Hour,
			MaxEntries: 2000,
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				PoolSize:    10,
				PingRetries: 2,
			},
		},
		History: HistoryConfig{
			Driver: "none",
			SQLite: SQLiteConfig{
				Path: "pdf2all-history.db",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    10,
				ConnMaxLifetime: 5 * time.Minute,
				ConnectRetries:  3,
			},
		},
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     10 * time.Minute,
			RequestTimeout:   10 * time.Minute,
			GracefulShutdown: 15 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Limits.MaxFileSizeMB < 1 {
		return fmt.Errorf("max_file_size_mb must be positive")
	}

	if c.OCR.Isolation != "goroutine" && c.OCR.Isolation != "process" {
		return fmt.Errorf("invalid ocr isolation: %s", c.OCR.Isolation)
	}

	if c.OCR.MaxWorkers < 1 || c.OCR.MaxWorkers > 4 {
		return fmt.Errorf("ocr max_workers must be between 1 and 4")
	}

	if c.OCR.Level != "textline" && c.OCR.Level != "word" {
		return fmt.Errorf("invalid ocr level: %s", c.OCR.Level)
	}

	if c.Geometry.BandHeight <= 0 || c.Geometry.ColumnGap <= 0 || c.Geometry.AssignTolerance < 0 {
		return fmt.Errorf("geometry values must be positive")
	}

	if c.Render.JPGQuality < 1 || c.Render.JPGQuality > 95 {
		return fmt.Errorf("jpg_quality must be between 1 and 95")
	}

	if c.Render.PPTXDPI < 1 || c.Render.JPGDPI < 1 {
		return fmt.Errorf("render dpi must be positive")
	}

	switch c.Cache.Driver {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	switch c.History.Driver {
	case "none", "sqlite":
	case "postgres":
		if c.History.Postgres.DSN == "" {
			return fmt.Errorf("history postgres dsn is required")
		}
	default:
		return fmt.Errorf("invalid history driver: %s", c.History.Driver)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.Limits.MaxFileSizeMB * 1024 * 1024
}

// FastJPGThresholdBytes returns the size above which pdf_to_jpg switches to fast mode.
func (c *Config) FastJPGThresholdBytes() int64 {
	return c.Limits.FastJPGThresholdMB * 1024 * 1024
}

// HistoryDSN returns the connection string for the history driver.
func (c *Config) HistoryDSN() string {
	if c.History.Driver == "sqlite" {
		return c.History.SQLite.Path
	}
	return c.History.Postgres.DSN
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PDF2ALL_MAX_FILE_SIZE_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Limits.MaxFileSizeMB = n
		}
	}

	if v := os.Getenv("PDF2ALL_OCR_ISOLATION"); v != "" {
		cfg.OCR.Isolation = v
	}

	if v := os.Getenv("PDF2ALL_OCR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OCR.MaxWorkers = n
		}
	}

	if v := os.Getenv("PDF2ALL_OCR_LANGUAGES"); v != "" {
		cfg.OCR.Languages = strings.Split(v, "+")
	}

	if v := os.Getenv("PDF2ALL_OCR_BATCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.OCR.BatchTimeout = d
		}
	}

	if v := os.Getenv("PDF2ALL_CACHE_DRIVER"); v != "" {
		cfg.Cache.Driver = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.History.Driver = "sqlite"
			cfg.History.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.History.Driver = "postgres"
			cfg.History.Postgres.DSN = v
		}
	}

	if v := os.Getenv("PDF2ALL_SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}

	if v := os.Getenv("PDF2ALL_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
