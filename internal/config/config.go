// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AppConfig holds all application configuration.
// It is instantiated by NewConfig() and passed to components that need it (dependency injection).
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

// OrdersConfig locates the order service's internal API, used to resolve
// order ownership and status at connect time.
type OrdersConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"` // Empty = allow all (development); set for production
}

// LogConfig holds comprehensive logging configuration
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  []LogOutputConfig `mapstructure:"output"`
	Levels  map[string]string `mapstructure:"levels"`
	Context LogContextConfig  `mapstructure:"context"`
}

// LogOutputConfig defines where logs are written
type LogOutputConfig struct {
	Type    string          `mapstructure:"type"` // "file" or "console"
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`   // For file output
	Rotate  LogRotateConfig `mapstructure:"rotate"` // For file output
}

// LogRotateConfig defines log rotation settings
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LogContextConfig defines what context to include in logs
type LogContextConfig struct {
	IncludeCaller    bool `mapstructure:"include_caller"`
	IncludeTimestamp bool `mapstructure:"include_timestamp"`
}

// RedisConfig holds the pub/sub bus connection configuration.
// The bus is optional: when Enabled is false (or the server is unreachable)
// events are fanned out to local subscribers only.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds token validation configuration. Tokens are issued by the
// platform's auth service; this process only verifies them.
type AuthConfig struct {
	Secret    string `mapstructure:"secret"`
	Algorithm string `mapstructure:"algorithm"`
}

// RealtimeConfig holds tuning knobs for the broadcast layer.
type RealtimeConfig struct {
	SendQueueSize  int           `mapstructure:"send_queue_size"` // per-connection outbound buffer
	MaxConnections int           `mapstructure:"max_connections"` // process-wide cap
	PongWait       time.Duration `mapstructure:"pong_wait"`       // close a connection with no keepalive within this window
	WriteWait      time.Duration `mapstructure:"write_wait"`      // per-frame write deadline
	BusQueueSize   int           `mapstructure:"bus_queue_size"`  // outbound bus forwarder buffer
	BusRetryMin    time.Duration `mapstructure:"bus_retry_min"`   // initial reconnect backoff
	BusRetryMax    time.Duration `mapstructure:"bus_retry_max"`   // backoff cap
}

// NewConfig creates a new AppConfig by reading from a file, environment variables,
// and applying defaults.
func NewConfig(configPath string) (*AppConfig, error) {
	cfg := defaultConfig()

	v := viper.New()

	// Set config file if provided, otherwise search in standard locations
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ordercast/")
		v.AddConfigPath("$HOME/.ordercast")
	}

	// Configure viper to use environment variables
	v.SetEnvPrefix("ORDERCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file. It's okay if it doesn't exist.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal the viper configuration into our config struct.
	// This will overwrite the default values with any values found in the config file or env vars.
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// defaultConfig returns an AppConfig with default values.
// This is more type-safe than using viper.SetDefault().
func defaultConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "console",
			Output: []LogOutputConfig{
				{
					Type:    "file",
					Enabled: true,
					Path:    "./logs/ordercast.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  100,
						MaxBackups: 7,
						MaxAgeDays: 30,
						Compress:   true,
					},
				},
				{
					Type:    "console",
					Enabled: true,
				},
			},
			Levels: map[string]string{
				"api":      "INFO",
				"realtime": "INFO",
				"bus":      "INFO",
				"auth":     "INFO",
				"main":     "INFO",
			},
			Context: LogContextConfig{
				IncludeCaller:    true,
				IncludeTimestamp: true,
			},
		},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Auth: AuthConfig{
			Algorithm: "HS256",
		},
		Orders: OrdersConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: 5 * time.Second,
		},
		Realtime: RealtimeConfig{
			SendQueueSize:  64,
			MaxConnections: 1000,
			PongWait:       60 * time.Second,
			WriteWait:      10 * time.Second,
			BusQueueSize:   256,
			BusRetryMin:    time.Second,
			BusRetryMax:    30 * time.Second,
		},
	}
}

// validate checks if the configuration is valid.
func (c *AppConfig) validate() error {
	validLogLevels := map[string]bool{
		"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true, "FATAL": true, "PANIC": true,
	}
	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}

	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	if c.Auth.Algorithm != "HS256" {
		return fmt.Errorf("unsupported auth algorithm: %s", c.Auth.Algorithm)
	}

	if c.Orders.BaseURL == "" {
		return errors.New("orders.base_url is required")
	}

	if c.Realtime.SendQueueSize <= 0 {
		return errors.New("realtime.send_queue_size must be positive")
	}
	if c.Realtime.PongWait <= 0 {
		return errors.New("realtime.pong_wait must be positive")
	}
	if c.Realtime.BusRetryMin <= 0 || c.Realtime.BusRetryMax < c.Realtime.BusRetryMin {
		return errors.New("realtime bus retry bounds are invalid")
	}

	return nil
}
