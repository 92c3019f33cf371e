package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/terramo-esg/terramo/internal/utils"
)

// Cache backends for the gateway snapshot store.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds client and development backend settings.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	DevAPI  DevAPIConfig  `yaml:"devapi"`

	// Locale for notices ("en", "de"). Empty means negotiate from LANG.
	Locale string `yaml:"locale"`
}

// APIConfig configures the remote REST API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig selects where fetched snapshots are kept.
type CacheConfig struct {
	Backend  string `yaml:"backend"`
	RedisURL string `yaml:"redis_url"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// DevAPIConfig configures the development backend.
type DevAPIConfig struct {
	Addr      string `yaml:"addr"`
	DBPath    string `yaml:"db_path"` // empty keeps data in memory
	JWTSecret string `yaml:"jwt_secret"`
	// AllowedOrigins limits browser access; empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api",
			Timeout: 15 * time.Second,
		},
		Cache:   CacheConfig{Backend: CacheMemory},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		DevAPI: DevAPIConfig{
			Addr:      ":8000",
			JWTSecret: "terramo-dev-secret",
		},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory, and TERRAMO_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	// Values already in the environment take precedence over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.API.BaseURL = utils.SafeEnv("TERRAMO_API_URL", cfg.API.BaseURL)
	cfg.API.Token = utils.SafeEnv("TERRAMO_TOKEN", cfg.API.Token)
	cfg.API.Timeout = utils.EnvDuration("TERRAMO_TIMEOUT", cfg.API.Timeout)
	cfg.Cache.Backend = utils.SafeEnv("TERRAMO_CACHE", cfg.Cache.Backend)
	cfg.Cache.RedisURL = utils.SafeEnv("TERRAMO_REDIS_URL", cfg.Cache.RedisURL)
	cfg.Logging.Level = utils.SafeEnv("TERRAMO_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = utils.SafeEnv("TERRAMO_LOG_FORMAT", cfg.Logging.Format)
	cfg.DevAPI.Addr = utils.SafeEnv("TERRAMO_DEVAPI_ADDR", cfg.DevAPI.Addr)
	cfg.DevAPI.DBPath = utils.SafeEnv("TERRAMO_DEVAPI_DB", cfg.DevAPI.DBPath)
	cfg.DevAPI.JWTSecret = utils.SafeEnv("TERRAMO_JWT_SECRET", cfg.DevAPI.JWTSecret)
	if v := utils.SafeEnv("TERRAMO_CORS_ORIGINS", ""); v != "" {
		cfg.DevAPI.AllowedOrigins = strings.Split(v, ",")
	}
	cfg.Locale = utils.DetermineLocale(
		utils.SafeEnv("TERRAMO_LOCALE", cfg.Locale),
		utils.SafeEnv("LANG", ""),
		utils.SupportedLocales, "en")
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("config: api base_url required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api timeout must be positive, got %v", c.API.Timeout)
	}
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New("config: cache backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}
