// Package config loads service settings from defaults, an optional YAML file and MEETUP_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"meetup-library/pkg/cache"
	"meetup-library/pkg/db"
	"meetup-library/pkg/domain"
	"meetup-library/pkg/feedimport"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MEETUP_"

// PathEnvVar names the config file when no path is given.
const PathEnvVar = EnvPrefix + "CONFIG"

// DefaultPaths are searched in order when neither a path nor PathEnvVar is set.
var DefaultPaths = []string{"config.yaml", "/etc/meetup-library/config.yaml"}

// Store backends.
const (
	StoreNone     = "none"
	StorePostgres = "postgres"
	StoreSupabase = "supabase"
	StoreMongo    = "mongo"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Cache   CacheConfig   `koanf:"cache"`
	Data    DataConfig    `koanf:"data"`
	Ranking RankingConfig `koanf:"ranking"`
	Logging LoggingConfig `koanf:"logging"`
	CheckIn CheckInConfig `koanf:"checkin"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	BaseURL      string        `koanf:"base_url"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// LibraryRateLimit requests per RateWindow are allowed per client on the library endpoint.
	LibraryRateLimit int           `koanf:"library_rate_limit"`
	RateWindow       time.Duration `koanf:"rate_window"`

	// RevalidateToken guards cache revalidation. Empty disables the endpoint.
	RevalidateToken string `koanf:"revalidate_token"`
}

// StoreConfig selects where likes and boosts live.
type StoreConfig struct {
	Backend  string            `koanf:"backend"`
	Postgres db.PostgresConfig `koanf:"postgres"`
	Supabase db.SupabaseConfig `koanf:"supabase"`
	Mongo    db.MongoConfig    `koanf:"mongo"`
}

// CacheConfig selects the response cache.
type CacheConfig struct {
	Backend string            `koanf:"backend"`
	Redis   cache.RedisConfig `koanf:"redis"`
}

// DataConfig locates the recording datasets.
type DataConfig struct {
	// Dir overrides the embedded datasets when set.
	Dir   string            `koanf:"dir"`
	Feeds []feedimport.Feed `koanf:"feeds"`
}

// RankingConfig bounds list sizes accepted by the API.
type RankingConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// CheckInConfig configures the door scanner.
type CheckInConfig struct {
	APIURL    string `koanf:"api_url"`
	AuthToken string `koanf:"auth_token"`
	EventID   string `koanf:"event_id"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:             ":8080",
			BaseURL:          "http://localhost:8080",
			ReadTimeout:      10 * time.Second,
			WriteTimeout:     15 * time.Second,
			LibraryRateLimit: 60,
			RateWindow:       time.Minute,
		},
		Store: StoreConfig{
			Backend: StoreNone,
			Mongo:   db.MongoConfig{Database: "meetup"},
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Redis:   cache.RedisConfig{Addr: "localhost:6379", Prefix: "meetup:"},
		},
		Ranking: RankingConfig{DefaultLimit: 8, MaxLimit: 50},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load layers defaults, the YAML file at path and environment overrides, then validates.
// An empty path falls back to PathEnvVar and DefaultPaths; a missing default file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// multiWordKeys maps environment names whose key segments contain underscores.
var multiWordKeys = map[string]string{
	"server_base_url":                    "server.base_url",
	"server_read_timeout":                "server.read_timeout",
	"server_write_timeout":               "server.write_timeout",
	"server_library_rate_limit":          "server.library_rate_limit",
	"server_rate_window":                 "server.rate_window",
	"server_revalidate_token":            "server.revalidate_token",
	"store_postgres_pool_max_open_conns": "store.postgres.pool.max_open_conns",
	"store_postgres_pool_max_idle_conns": "store.postgres.pool.max_idle_conns",
	"store_supabase_connection_string":   "store.supabase.connection_string",
	"ranking_default_limit":              "ranking.default_limit",
	"ranking_max_limit":                  "ranking.max_limit",
	"checkin_api_url":                    "checkin.api_url",
	"checkin_auth_token":                 "checkin.auth_token",
	"checkin_event_id":                   "checkin.event_id",
}

// envTransformFunc maps MEETUP_STORE_BACKEND to store.backend.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	if mapped, ok := multiWordKeys[key]; ok {
		return mapped
	}
	return strings.ReplaceAll(key, "_", ".")
}

// Validate checks that the selected backends are fully configured and normalizes feed locations.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, err := url.ParseRequestURI(c.Server.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("server.base_url: %w", err))
	}
	if c.Server.LibraryRateLimit <= 0 || c.Server.RateWindow <= 0 {
		errs = append(errs, errors.New("server.library_rate_limit and server.rate_window must be positive"))
	}

	switch c.Store.Backend {
	case StoreNone:
	case StorePostgres:
		if c.Store.Postgres.DSN == "" {
			errs = append(errs, errors.New("store.postgres.dsn is required"))
		}
	case StoreSupabase:
		s := c.Store.Supabase
		if (s.URL == "" || s.Key == "") && s.ConnectionString == "" && s.Password == "" {
			errs = append(errs, errors.New("store.supabase needs url+key or a connection string or password"))
		}
	case StoreMongo:
		if c.Store.Mongo.URI == "" || c.Store.Mongo.Database == "" {
			errs = append(errs, errors.New("store.mongo.uri and store.mongo.database are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}

	if c.Ranking.DefaultLimit <= 0 || c.Ranking.MaxLimit < c.Ranking.DefaultLimit {
		errs = append(errs, errors.New("ranking limits must satisfy 0 < default_limit <= max_limit"))
	}

	for i, f := range c.Data.Feeds {
		loc, err := domain.ParseLocation(string(f.Location))
		if err != nil {
			errs = append(errs, fmt.Errorf("data.feeds[%d]: %w", i, err))
		}
		c.Data.Feeds[i].Location = loc
		if f.URL == "" {
			errs = append(errs, fmt.Errorf("data.feeds[%d]: url is required", i))
		}
	}

	return errors.Join(errs...)
}
