// Package config loads the daemon configuration via viper. Every setting has
// a default and can be overridden through SYNC_-prefixed environment
// variables, e.g. SYNC_DIRECTORY_BASE_URL or SYNC_STORE_BACKEND.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all daemon configuration.
type Config struct {
	App       AppConfig
	Directory DirectoryConfig
	Store     StoreConfig
	Log       LogConfig
	Dispatch  DispatchConfig
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Name string
	Port string
}

// DirectoryConfig holds the remote user directory settings.
type DirectoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StoreConfig selects and parameterizes the contact store backend.
type StoreConfig struct {
	Backend     string
	MySQLDSN    string
	PostgresDSN string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// DispatchConfig holds the background worker pool settings.
type DispatchConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// Load builds the configuration from defaults and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "contacts-sync")
	v.SetDefault("app.port", "8080")
	v.SetDefault("directory.base_url", "https://dummyjson.com")
	v.SetDefault("directory.timeout", "60s")
	v.SetDefault("store.backend", BackendMySQL)
	v.SetDefault("store.mysql_dsn", "")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("dispatch.workers", 4)
	v.SetDefault("dispatch.queue_size", 64)
	v.SetDefault("dispatch.job_timeout", "90s")

	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Port: v.GetString("app.port"),
		},
		Directory: DirectoryConfig{
			BaseURL: v.GetString("directory.base_url"),
			Timeout: v.GetDuration("directory.timeout"),
		},
		Store: StoreConfig{
			Backend:     v.GetString("store.backend"),
			MySQLDSN:    v.GetString("store.mysql_dsn"),
			PostgresDSN: v.GetString("store.postgres_dsn"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Dispatch: DispatchConfig{
			Workers:    v.GetInt("dispatch.workers"),
			QueueSize:  v.GetInt("dispatch.queue_size"),
			JobTimeout: v.GetDuration("dispatch.job_timeout"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMySQL, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("invalid store backend %q", c.Store.Backend)
	}
	if c.Directory.BaseURL == "" {
		return fmt.Errorf("directory base URL must not be empty")
	}
	if c.Directory.Timeout <= 0 {
		return fmt.Errorf("directory timeout must be positive")
	}
	return nil
}
