package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/bassista/proto_cache/internal/cache"
	"github.com/bassista/proto_cache/internal/logger"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port               int           `validate:"required,gt=0,lte=65535"`
	ReadTimeout        time.Duration `validate:"required,gt=0"`
	WriteTimeout       time.Duration `validate:"required,gt=0"`
	IdleTimeout        time.Duration `validate:"required,gt=0"`
	ShutDownTimeout    time.Duration `validate:"required,gt=0"`
	RequestTimeout     time.Duration `validate:"required,gt=0"`
	CORSAllowedOrigins string
}

// UpstreamConfig holds the settings of the catalog API the snapshot is built from.
type UpstreamConfig struct {
	BaseURL           string        `validate:"required,url"`
	RequestTimeout    time.Duration `validate:"required,gt=0"`
	MaxTries          int           `validate:"gte=1"`
	RequestsPerSecond float64       `validate:"gt=0"`
	Burst             int           `validate:"gte=1"`
}

// CacheConfig holds the snapshot store settings.
type CacheConfig struct {
	TTL          time.Duration `validate:"gte=0"`
	MaxSizeBytes int64         `validate:"gte=0"`
	RefreshPoll  time.Duration `validate:"required,gt=0"`
}

// MiscConfig holds everything that does not fit the other sections.
type MiscConfig struct {
	GinMode  string `validate:"oneof=debug release test"`
	LogLevel string `validate:"required"`
}

// Config is the full application configuration, loaded once at startup.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Cache    CacheConfig
	Misc     MiscConfig
}

// LoadConfig reads config.yaml from the config path (PROTO_CACHE_CONFIG_PATH,
// default ./config), applies defaults, overlays environment variables and
// validates the result. PORT overrides server.port for PaaS-style deploys.
func LoadConfig() (*Config, error) {
	confPath := getEnvOrDefault("PROTO_CACHE_CONFIG_PATH", "./config")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(confPath)

	// Defaults to allow running without config file
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.request_timeout", "30s")
	viper.SetDefault("server.cors_allowed_origins", "*")
	viper.SetDefault("upstream.base_url", "http://localhost:9000")
	viper.SetDefault("upstream.request_timeout", "10s")
	viper.SetDefault("upstream.max_tries", 3)
	viper.SetDefault("upstream.requests_per_second", 5.0)
	viper.SetDefault("upstream.burst", 1)
	viper.SetDefault("cache.ttl", cache.DefaultTTL.String())
	viper.SetDefault("cache.max_size_bytes", cache.DefaultMaxSizeBytes)
	viper.SetDefault("cache.refresh_poll", "30s")
	viper.SetDefault("misc.gin_mode", "release")
	viper.SetDefault("misc.log_level", "info")

	// Environment variables automatically override config file values,
	// e.g. PROTO_CACHE_UPSTREAM_BASE_URL overrides upstream.base_url.
	viper.AutomaticEnv()
	viper.SetEnvPrefix("PROTO_CACHE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.WithComponent("config").Info("no config file found, using defaults and env vars")
		} else {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	port, err := getEnvOrViperPort("PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    viper.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     viper.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: viper.GetString("server.cors_allowed_origins"),
		},
		Upstream: UpstreamConfig{
			BaseURL:           viper.GetString("upstream.base_url"),
			RequestTimeout:    viper.GetDuration("upstream.request_timeout"),
			MaxTries:          viper.GetInt("upstream.max_tries"),
			RequestsPerSecond: viper.GetFloat64("upstream.requests_per_second"),
			Burst:             viper.GetInt("upstream.burst"),
		},
		Cache: CacheConfig{
			TTL:          viper.GetDuration("cache.ttl"),
			MaxSizeBytes: viper.GetInt64("cache.max_size_bytes"),
			RefreshPoll:  viper.GetDuration("cache.refresh_poll"),
		},
		Misc: MiscConfig{
			GinMode:  viper.GetString("misc.gin_mode"),
			LogLevel: viper.GetString("misc.log_level"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate checks the loaded configuration against the struct tags.
func (c *Config) validate() error {
	return validator.New().Struct(c)
}

// CacheConfig maps the cache section onto the snapshot store settings.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		TTL:          c.Cache.TTL,
		MaxSizeBytes: c.Cache.MaxSizeBytes,
	}
}

// WatchLogLevel re-applies misc.log_level whenever the config file changes on
// disk, so the level can be raised on a running server without a restart.
func WatchLogLevel() {
	viper.OnConfigChange(func(event fsnotify.Event) {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		level := viper.GetString("misc.log_level")
		logger.WithComponent("config").Infof("config file changed, applying log level: %s", level)
		logger.SetLevel(level)
	})
	viper.WatchConfig()
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvOrViperPort prefers the plain env var (e.g. PORT) over the viper key.
func getEnvOrViperPort(envKey, viperKey string) (int, error) {
	if raw := os.Getenv(envKey); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", envKey, err)
		}
		return port, nil
	}
	return viper.GetInt(viperKey), nil
}
