// Package config loads service configuration from config.yaml and
// CARGODESK_-prefixed environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Redline RedlineConfig `mapstructure:"redline"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreConfig struct {
	// Backend selects "memory" or "postgres".
	Backend      string        `mapstructure:"backend"`
	DSN          string        `mapstructure:"dsn"`
	MaxConns     int32         `mapstructure:"max_conns"`
	ConnLifetime time.Duration `mapstructure:"conn_lifetime"`
}

type AuthConfig struct {
	// JWTSecret signs access tokens (HS256).
	JWTSecret string `mapstructure:"jwt_secret"`
	// APIKeyHash is the bcrypt hash of the API key exchanged for tokens.
	APIKeyHash string        `mapstructure:"api_key_hash"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type SyncConfig struct {
	CascadeDelay  time.Duration `mapstructure:"cascade_delay"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

type RedlineConfig struct {
	// AutoApprove is a CEL expression; empty disables auto-approval.
	AutoApprove string `mapstructure:"auto_approve"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Load reads config.yaml from the usual locations, overlaying CARGODESK_
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	v.AddConfigPath("/etc/cargodesk/")

	v.SetEnvPrefix("CARGODESK")
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.conn_lifetime", time.Hour)
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("sync.cascade_delay", 50*time.Millisecond)
	v.SetDefault("sync.watch_debounce", 300*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus env are a valid setup.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Store.Backend != "memory" && cfg.Store.Backend != "postgres" {
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if cfg.Store.Backend == "postgres" && cfg.Store.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required for the postgres backend")
	}
	return &cfg, nil
}
