// Package config loads server settings from gudang.yaml and GUDANG_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend drivers.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all server settings.
type Config struct {
	Addr string `mapstructure:"addr"`
	Log  string `mapstructure:"log"`
	// LogLevelName is one of debug, info, warn or error.
	LogLevelName string `mapstructure:"log_level"`

	Backend struct {
		Driver string `mapstructure:"driver"`
		// DSN is the SQLite file path or the Postgres connection string.
		DSN string `mapstructure:"dsn"`
		// StateKey is the blob key the memory backend persists to. Empty
		// keeps the memory backend purely in process.
		StateKey string `mapstructure:"state_key"`
	} `mapstructure:"backend"`

	Blob struct {
		Driver  string `mapstructure:"driver"`
		Dir     string `mapstructure:"dir"`
		BaseURL string `mapstructure:"base_url"`
		S3      struct {
			Bucket          string `mapstructure:"bucket"`
			Region          string `mapstructure:"region"`
			Endpoint        string `mapstructure:"endpoint"`
			AccessKeyID     string `mapstructure:"access_key_id"`
			SecretAccessKey string `mapstructure:"secret_access_key"`
			PathStyle       bool   `mapstructure:"path_style"`
			PublicURL       string `mapstructure:"public_url"`
		} `mapstructure:"s3"`
	} `mapstructure:"blob"`

	Session struct {
		TTL time.Duration `mapstructure:"ttl"`
		// Secret overrides the signing key stored by the backend.
		Secret string `mapstructure:"secret"`
	} `mapstructure:"session"`

	Sync struct {
		Interval     time.Duration `mapstructure:"interval"`
		RetryCount   int           `mapstructure:"retry_count"`
		RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	} `mapstructure:"sync"`

	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("log", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("backend.driver", BackendSQLite)
	v.SetDefault("backend.dsn", "gudang.sqlite3")
	v.SetDefault("backend.state_key", "")

	v.SetDefault("blob.driver", "fs")
	v.SetDefault("blob.dir", "media")
	v.SetDefault("blob.base_url", "/media")
	v.SetDefault("blob.s3.bucket", "")
	v.SetDefault("blob.s3.region", "us-east-1")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.access_key_id", "")
	v.SetDefault("blob.s3.secret_access_key", "")
	v.SetDefault("blob.s3.path_style", false)
	v.SetDefault("blob.s3.public_url", "")

	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.secret", "")

	v.SetDefault("sync.interval", time.Minute)
	v.SetDefault("sync.retry_count", 3)
	v.SetDefault("sync.retry_backoff", 200*time.Millisecond)

	v.SetDefault("cors.allowed_origins", []string{})
}

// Load reads the config file at path (or gudang.yaml in the working
// directory when path is empty), then applies GUDANG_* environment
// variables, e.g. GUDANG_BACKEND_DRIVER.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gudang")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("GUDANG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, c.Validate()
}

// LogLevel returns the parsed log level, INFO when it is not valid.
func (c Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevelName)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Validate checks driver names and the settings each driver needs.
func (c Config) Validate() error {
	if c.LogLevelName != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(c.LogLevelName)); err != nil {
			return fmt.Errorf("invalid log_level %q", c.LogLevelName)
		}
	}

	switch c.Backend.Driver {
	case BackendSQLite, BackendPostgres:
		if c.Backend.DSN == "" {
			return fmt.Errorf("backend.dsn is required for the %s backend", c.Backend.Driver)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend driver %q", c.Backend.Driver)
	}

	switch c.Blob.Driver {
	case "fs":
		if c.Blob.Dir == "" {
			return errors.New("blob.dir is required for the fs blob driver")
		}
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return errors.New("blob.s3.bucket is required for the s3 blob driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}

	if c.Sync.RetryCount < 1 {
		return errors.New("sync.retry_count must be at least 1")
	}
	return nil
}
