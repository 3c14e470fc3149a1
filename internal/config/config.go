// Package config loads the service configuration from an optional YAML file
// and PICKS_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"picks-sizing/internal/sizing"
)

// Catalog backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRemote   = "remote"
)

// Config holds all service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Sizing     SizingConfig     `mapstructure:"sizing"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRequestSize int64         `mapstructure:"max_request_size"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	APIKey         string        `mapstructure:"api_key"`
}

// CatalogConfig selects where reference data is read from.
type CatalogConfig struct {
	Backend       string        `mapstructure:"backend"`
	SeedFile      string        `mapstructure:"seed_file"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
	RemoteURL     string        `mapstructure:"remote_url"`
	RemoteRetries int           `mapstructure:"remote_retries"`
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`
}

// ClickHouseConfig configures the optional estimate history store.
type ClickHouseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Debug    bool   `mapstructure:"debug"`
}

// SizingConfig configures the engine.
type SizingConfig struct {
	MatchRule string `mapstructure:"match_rule"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Default returns the development defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           5000,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			RequestTimeout: 60 * time.Second,
			MaxRequestSize: 10 * 1024 * 1024, // 10MB
			CORSOrigins:    []string{"*"},
		},
		Catalog: CatalogConfig{
			Backend:       BackendMemory,
			RemoteRetries: 3,
			RemoteTimeout: 10 * time.Second,
		},
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "picks",
			Username: "default",
		},
		Sizing: SizingConfig{MatchRule: string(sizing.MatchBestFit)},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path (when non-empty) and the environment over the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("PICKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Catalog.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Catalog.PostgresDSN == "" {
			return fmt.Errorf("catalog.postgres_dsn is required for the postgres backend")
		}
	case BackendRemote:
		if c.Catalog.RemoteURL == "" {
			return fmt.Errorf("catalog.remote_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend)
	}
	if !sizing.MatchRule(c.Sizing.MatchRule).Valid() {
		return fmt.Errorf("unknown sizing.match_rule %q", c.Sizing.MatchRule)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.max_request_size", d.Server.MaxRequestSize)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.api_key", d.Server.APIKey)

	v.SetDefault("catalog.backend", d.Catalog.Backend)
	v.SetDefault("catalog.seed_file", d.Catalog.SeedFile)
	v.SetDefault("catalog.postgres_dsn", d.Catalog.PostgresDSN)
	v.SetDefault("catalog.remote_url", d.Catalog.RemoteURL)
	v.SetDefault("catalog.remote_retries", d.Catalog.RemoteRetries)
	v.SetDefault("catalog.remote_timeout", d.Catalog.RemoteTimeout)

	v.SetDefault("clickhouse.enabled", d.ClickHouse.Enabled)
	v.SetDefault("clickhouse.host", d.ClickHouse.Host)
	v.SetDefault("clickhouse.port", d.ClickHouse.Port)
	v.SetDefault("clickhouse.database", d.ClickHouse.Database)
	v.SetDefault("clickhouse.username", d.ClickHouse.Username)
	v.SetDefault("clickhouse.password", d.ClickHouse.Password)
	v.SetDefault("clickhouse.debug", d.ClickHouse.Debug)

	v.SetDefault("sizing.match_rule", d.Sizing.MatchRule)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
}
