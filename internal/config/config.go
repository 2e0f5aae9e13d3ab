package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

type Config struct {
	Server  ServerConfig
	Upload  UploadConfig
	Export  ExportConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Presets PresetsConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type UploadConfig struct {
	MaxFileSize  int64    `env:"MAX_FILE_SIZE" envDefault:"10485760"`
	AllowedTypes []string `env:"ALLOWED_TYPES" envSeparator:"," envDefault:"image/jpeg,image/png,image/gif,image/webp,image/bmp"`
}

type ExportConfig struct {
	MaxPixels int64 `env:"EXPORT_MAX_PIXELS" envDefault:"100000000"`
}

type CacheConfig struct {
	Backend  string        `env:"CACHE_BACKEND" envDefault:"memory"`
	Duration time.Duration `env:"CACHE_DURATION" envDefault:"24h"`
	MaxCost  int64         `env:"CACHE_MAX_COST" envDefault:"268435456"`
}

type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB" envDefault:"0"`
	MaxRetries int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	Timeout    time.Duration `env:"REDIS_TIMEOUT" envDefault:"5s"`
}

type PresetsConfig struct {
	File  string `env:"PRESETS_FILE"`
	Watch bool   `env:"PRESETS_WATCH" envDefault:"false"`
}

type LogConfig struct {
	Development bool `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Server.Port == "":
		return errors.New("PORT must not be empty")
	case c.Upload.MaxFileSize <= 0:
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Upload.MaxFileSize)
	case len(c.Upload.AllowedTypes) == 0:
		return errors.New("ALLOWED_TYPES must list at least one type")
	case c.Export.MaxPixels <= 0:
		return fmt.Errorf("EXPORT_MAX_PIXELS must be positive, got %d", c.Export.MaxPixels)
	}

	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendNone:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if c.Presets.Watch && c.Presets.File == "" {
		return errors.New("PRESETS_WATCH requires PRESETS_FILE")
	}
	return nil
}
