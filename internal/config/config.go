// Package config loads application configuration and sets up logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Monitor  MonitorConfig  `yaml:"monitor" mapstructure:"monitor"`
	Location LocationConfig `yaml:"location" mapstructure:"location"`
	Notify   NotifyConfig   `yaml:"notify" mapstructure:"notify"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// MonitorConfig configures the periodic geofence driver.
type MonitorConfig struct {
	UserID           string      `yaml:"user_id" mapstructure:"user_id"`
	TickIntervalSecs int         `yaml:"tick_interval_secs" mapstructure:"tick_interval_secs"`
	DefaultFence     FenceConfig `yaml:"default_fence" mapstructure:"default_fence"`
}

// FenceConfig describes the region seeded when none are registered.
type FenceConfig struct {
	ID        string  `yaml:"id" mapstructure:"id"`
	Latitude  float64 `yaml:"latitude" mapstructure:"latitude"`
	Longitude float64 `yaml:"longitude" mapstructure:"longitude"`
	Radius    float64 `yaml:"radius_meters" mapstructure:"radius_meters"`
}

// LocationConfig selects the position source.
type LocationConfig struct {
	Provider  string  `yaml:"provider" mapstructure:"provider"`
	URL       string  `yaml:"url" mapstructure:"url"`
	Latitude  float64 `yaml:"latitude" mapstructure:"latitude"`
	Longitude float64 `yaml:"longitude" mapstructure:"longitude"`
}

// NotifyConfig configures notification delivery.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	PerMinute  int    `yaml:"per_minute" mapstructure:"per_minute"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FENCEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "fencewatch.db")
	v.SetDefault("monitor.user_id", "default")
	v.SetDefault("monitor.tick_interval_secs", 5)
	v.SetDefault("monitor.default_fence.id", "home")
	v.SetDefault("monitor.default_fence.radius_meters", 100)
	v.SetDefault("location.provider", "static")
	v.SetDefault("notify.per_minute", 6)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
