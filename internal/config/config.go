// Package config loads client settings from .env, an optional YAML file and
// RATLOGGER_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"ratlogger/internal/domain"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// Environment variable overriding the config file location.
	PathEnvVar  = "RATLOGGER_CONFIG"
	DefaultPath = "ratlogger.yaml"
	envPrefix   = "RATLOGGER_"
)

type Config struct {
	API         APIConfig         `koanf:"api"`
	Map         MapConfig         `koanf:"map"`
	Sync        SyncConfig        `koanf:"sync"`
	PinDrop     PinDropConfig     `koanf:"pindrop"`
	Geolocation GeolocationConfig `koanf:"geolocation"`
	Store       StoreConfig       `koanf:"store"`
	Dashboard   DashboardConfig   `koanf:"dashboard"`
	Logging     LoggingConfig     `koanf:"logging"`
	Status      StatusConfig      `koanf:"status"`
}

type APIConfig struct {
	BaseURL       string        `koanf:"base_url" validate:"required,url"`
	Timeout       time.Duration `koanf:"timeout" validate:"gt=0"`
	VerifyTimeout time.Duration `koanf:"verify_timeout" validate:"gt=0"`
	MaxAttempts   int           `koanf:"max_attempts" validate:"min=1,max=10"`
	// Consecutive failures that open the read circuit.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"min=1"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

type MapConfig struct {
	SurfaceID     string        `koanf:"surface_id" validate:"required"`
	DefaultLon    float64       `koanf:"default_lon" validate:"min=-180,max=180"`
	DefaultLat    float64       `koanf:"default_lat" validate:"min=-90,max=90"`
	Zoom          float64       `koanf:"zoom" validate:"min=0,max=22"`
	FlyToZoom     float64       `koanf:"fly_to_zoom" validate:"min=0,max=22"`
	FlyToDuration time.Duration `koanf:"fly_to_duration" validate:"gte=0"`
	HighlightTTL  time.Duration `koanf:"highlight_ttl" validate:"gt=0"`
}

type SyncConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
}

type PinDropConfig struct {
	GeolocationTimeout time.Duration `koanf:"geolocation_timeout" validate:"gt=0"`
	ErrorTTL           time.Duration `koanf:"error_ttl" validate:"gt=0"`
}

type GeolocationConfig struct {
	// static, http or none.
	Provider  string   `koanf:"provider" validate:"oneof=static http none"`
	URL       string   `koanf:"url" validate:"omitempty,url"`
	DeviceLon *float64 `koanf:"device_lon" validate:"omitempty,min=-180,max=180"`
	DeviceLat *float64 `koanf:"device_lat" validate:"omitempty,min=-90,max=90"`
}

type StoreConfig struct {
	// sqlite, postgres, redis or memory.
	Driver      string `koanf:"driver" validate:"oneof=sqlite postgres redis memory"`
	Path        string `koanf:"path"`
	DatabaseURL string `koanf:"database_url"`
	RedisAddr   string `koanf:"redis_addr"`
	Namespace   string `koanf:"namespace" validate:"required"`
}

type DashboardConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type StatusConfig struct {
	Addr string `koanf:"addr"`
}

// Defaults mirror the behaviour of the web client.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:         "http://localhost:8000",
			Timeout:         10 * time.Second,
			VerifyTimeout:   5 * time.Second,
			MaxAttempts:     3,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Map: MapConfig{
			SurfaceID:     "map",
			DefaultLon:    4.3517,
			DefaultLat:    50.8503,
			Zoom:          13,
			FlyToZoom:     16,
			FlyToDuration: 2 * time.Second,
			HighlightTTL:  5 * time.Second,
		},
		Sync: SyncConfig{Interval: 30 * time.Second},
		PinDrop: PinDropConfig{
			GeolocationTimeout: 5 * time.Second,
			ErrorTTL:           3 * time.Second,
		},
		Geolocation: GeolocationConfig{Provider: "none"},
		Store: StoreConfig{
			Driver:    "sqlite",
			Path:      "data/ratlogger.db",
			Namespace: "default",
		},
		Dashboard: DashboardConfig{CacheTTL: time.Minute},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		Status:    StatusConfig{Addr: "127.0.0.1:8089"},
	}
}

// Load builds the configuration. A missing .env or YAML file is not an error.
func Load() (*Config, error) {
	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load config: read .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config: defaults: %w", err)
	}

	if path := configPath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config: file %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load config: environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configPath() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// Environment names map onto config keys; unknown names are dropped.
var envKeys = map[string]string{
	"api_base_url":                "api.base_url",
	"api_timeout":                 "api.timeout",
	"api_verify_timeout":          "api.verify_timeout",
	"api_max_attempts":            "api.max_attempts",
	"api_breaker_failures":        "api.breaker_failures",
	"api_breaker_cooldown":        "api.breaker_cooldown",
	"map_surface_id":              "map.surface_id",
	"map_default_lon":             "map.default_lon",
	"map_default_lat":             "map.default_lat",
	"map_zoom":                    "map.zoom",
	"map_fly_to_zoom":             "map.fly_to_zoom",
	"map_fly_to_duration":         "map.fly_to_duration",
	"map_highlight_ttl":           "map.highlight_ttl",
	"sync_interval":               "sync.interval",
	"pindrop_geolocation_timeout": "pindrop.geolocation_timeout",
	"pindrop_error_ttl":           "pindrop.error_ttl",
	"geolocation_provider":        "geolocation.provider",
	"geolocation_url":             "geolocation.url",
	"geolocation_device_lon":      "geolocation.device_lon",
	"geolocation_device_lat":      "geolocation.device_lat",
	"store_driver":                "store.driver",
	"store_path":                  "store.path",
	"store_database_url":          "store.database_url",
	"store_redis_addr":            "store.redis_addr",
	"store_namespace":             "store.namespace",
	"dashboard_cache_ttl":         "dashboard.cache_ttl",
	"log_level":                   "logging.level",
	"log_format":                  "logging.format",
	"status_addr":                 "status.addr",
}

func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	return envKeys[key]
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch {
	case c.Geolocation.Provider == "http" && c.Geolocation.URL == "":
		return errors.New("invalid configuration: geolocation.url is required for the http provider")
	case c.Geolocation.Provider == "static" && (c.Geolocation.DeviceLon == nil || c.Geolocation.DeviceLat == nil):
		return errors.New("invalid configuration: geolocation.device_lon and device_lat are required for the static provider")
	case c.Store.Driver == "sqlite" && c.Store.Path == "":
		return errors.New("invalid configuration: store.path is required for sqlite")
	case c.Store.Driver == "postgres" && c.Store.DatabaseURL == "":
		return errors.New("invalid configuration: store.database_url is required for postgres")
	case c.Store.Driver == "redis" && c.Store.RedisAddr == "":
		return errors.New("invalid configuration: store.redis_addr is required for redis")
	}

	return nil
}

// Configured fallback map center.
func (c *Config) DefaultCenter() domain.Coordinates {
	return domain.Coordinates{Lon: c.Map.DefaultLon, Lat: c.Map.DefaultLat}
}

// Configured static device position, if any.
func (c *Config) DevicePosition() *domain.Coordinates {
	if c.Geolocation.DeviceLon == nil || c.Geolocation.DeviceLat == nil {
		return nil
	}
	return &domain.Coordinates{Lon: *c.Geolocation.DeviceLon, Lat: *c.Geolocation.DeviceLat}
}

// Get returns the environment variable key or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
