package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrDatabaseURLRequired is returned when no database connection string is configured.
var ErrDatabaseURLRequired = errors.New("DATABASE_URL required (set env, .env or config/secrets.yaml database_url)")

// Config holds service configuration loaded from .env, YAML and env.
type Config struct {
	ServerPort string

	DatabaseURL    string
	DatabaseDriver string // "postgres" or "sqlite"
	AutoMigrate    bool

	LocationAPIKey string
	WeatherAPIKey  string
	TrailAPIKey    string
	MoviesAPIKey   string
	YelpAPIKey     string

	GeocodeURL string
	WeatherURL string
	TrailsURL  string
	MoviesURL  string
	YelpURL    string

	ProviderTimeout time.Duration
	RequestTimeout  time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerTimeout          time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	CacheBackend string // "none", "in_memory", "memcached" or "redis"
	CacheTTL     time.Duration
	Coalesce     bool

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WarmLocations []string
	WarmInterval  time.Duration

	ShutdownTimeout  time.Duration
	DegradedWindow   time.Duration
	DegradedErrorPct int
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver      string `yaml:"driver"`
		URL         string `yaml:"url"`
		AutoMigrate *bool  `yaml:"auto_migrate"`
	} `yaml:"database"`

	Providers struct {
		Timeout string `yaml:"timeout"`
		Geocode struct {
			URL string `yaml:"url"`
		} `yaml:"geocode"`
		Weather struct {
			URL string `yaml:"url"`
		} `yaml:"weather"`
		Trails struct {
			URL string `yaml:"url"`
		} `yaml:"trails"`
		Movies struct {
			URL string `yaml:"url"`
		} `yaml:"movies"`
		Yelp struct {
			URL string `yaml:"url"`
		} `yaml:"yelp"`
	} `yaml:"providers"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Coalesce  bool   `yaml:"coalesce"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Redis struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		WarmLocations []string `yaml:"warm_locations"`
		WarmInterval  string   `yaml:"warm_interval"`
	} `yaml:"cache"`

	Reliability struct {
		RetryMaxAttempts               int    `yaml:"retry_max_attempts"`
		RetryBaseDelay                 string `yaml:"retry_base_delay"`
		RetryMaxDelay                  string `yaml:"retry_max_delay"`
		RateLimitRPS                   int    `yaml:"rate_limit_rps"`
		RateLimitBurst                 int    `yaml:"rate_limit_burst"`
		CircuitBreakerEnabled          bool   `yaml:"circuit_breaker_enabled"`
		CircuitBreakerFailureThreshold int    `yaml:"circuit_breaker_failure_threshold"`
		CircuitBreakerTimeout          string `yaml:"circuit_breaker_timeout"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Health struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"health"`
}

type secretsFile struct {
	DatabaseURL    string `yaml:"database_url"`
	LocationAPIKey string `yaml:"location_api_key"`
	WeatherAPIKey  string `yaml:"weather_api_key"`
	TrailAPIKey    string `yaml:"trail_api_key"`
	MoviesAPIKey   string `yaml:"movies_api_key"`
	YelpAPIKey     string `yaml:"yelp_api_key"`
	RedisPassword  string `yaml:"redis_password"`
}

// Load reads .env, then config/{ENV_NAME}.yaml (default dev) and config/secrets.yaml.
// Both YAML files are optional; env vars override file values. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	if err := readYAML(filepath.Join(cwd, "config", env+".yaml"), &fc); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	var sec secretsFile
	if err := readYAML(filepath.Join(cwd, "config", "secrets.yaml"), &sec); err != nil {
		return nil, fmt.Errorf("secrets file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "3000")

	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), sec.DatabaseURL, fc.Database.URL)
	cfg.DatabaseDriver = strings.ToLower(firstNonEmpty(os.Getenv("DATABASE_DRIVER"), fc.Database.Driver, "postgres"))
	cfg.AutoMigrate = true
	if fc.Database.AutoMigrate != nil {
		cfg.AutoMigrate = *fc.Database.AutoMigrate
	}

	cfg.LocationAPIKey = firstNonEmpty(os.Getenv("LOCATION_API_KEY"), sec.LocationAPIKey)
	cfg.WeatherAPIKey = firstNonEmpty(os.Getenv("WEATHER_API_KEY"), sec.WeatherAPIKey)
	cfg.TrailAPIKey = firstNonEmpty(os.Getenv("TRAIL_API_KEY"), sec.TrailAPIKey)
	cfg.MoviesAPIKey = firstNonEmpty(os.Getenv("MOVIES_API_KEY"), sec.MoviesAPIKey)
	cfg.YelpAPIKey = firstNonEmpty(os.Getenv("YELP_API_KEY"), sec.YelpAPIKey)

	cfg.GeocodeURL = strings.TrimSpace(fc.Providers.Geocode.URL)
	cfg.WeatherURL = strings.TrimSpace(fc.Providers.Weather.URL)
	cfg.TrailsURL = strings.TrimSpace(fc.Providers.Trails.URL)
	cfg.MoviesURL = strings.TrimSpace(fc.Providers.Movies.URL)
	cfg.YelpURL = strings.TrimSpace(fc.Providers.Yelp.URL)

	cfg.ProviderTimeout = parseDurationOrZero(fc.Providers.Timeout, 5*time.Second)
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}
	cfg.CircuitBreakerEnabled = fc.Reliability.CircuitBreakerEnabled
	cfg.CircuitBreakerFailureThreshold = fc.Reliability.CircuitBreakerFailureThreshold
	if cfg.CircuitBreakerFailureThreshold <= 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerTimeout = parseDuration(fc.Reliability.CircuitBreakerTimeout, 30*time.Second)

	cfg.CacheBackend = strings.ToLower(firstNonEmpty(os.Getenv("CACHE_BACKEND"), fc.Cache.Backend, "none"))
	cfg.CacheTTL = parseDurationOrZero(fc.Cache.TTL, 24*time.Hour)
	if cfg.CacheTTL < 0 {
		cfg.CacheTTL = 0
	}
	cfg.Coalesce = fc.Cache.Coalesce
	cfg.MemcachedAddrs = firstNonEmpty(os.Getenv("MEMCACHED_ADDRS"), fc.Cache.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.RedisAddr = firstNonEmpty(os.Getenv("REDIS_ADDR"), fc.Cache.Redis.Addr, "localhost:6379")
	cfg.RedisPassword = firstNonEmpty(os.Getenv("REDIS_PASSWORD"), sec.RedisPassword)
	cfg.RedisDB = fc.Cache.Redis.DB
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}
	cfg.WarmLocations = fc.Cache.WarmLocations
	cfg.WarmInterval = parseDurationOrZero(fc.Cache.WarmInterval, 0)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.DegradedWindow = parseDuration(fc.Health.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Health.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MissingAPIKeys names the provider keys left empty. Startup warns about them
// instead of failing; the affected routes fail upstream.
func (c *Config) MissingAPIKeys() []string {
	var missing []string
	for _, k := range []struct {
		name, val string
	}{
		{"LOCATION_API_KEY", c.LocationAPIKey},
		{"WEATHER_API_KEY", c.WeatherAPIKey},
		{"TRAIL_API_KEY", c.TrailAPIKey},
		{"MOVIES_API_KEY", c.MoviesAPIKey},
		{"YELP_API_KEY", c.YelpAPIKey},
	} {
		if k.val == "" {
			missing = append(missing, k.name)
		}
	}
	return missing
}

// readYAML decodes path into out. A missing file leaves out untouched.
func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. RequestTimeout is raised above
// ProviderTimeout so an upstream call can finish before the request deadline.
func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}
	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", cfg.DatabaseDriver)
	}
	if cfg.ProviderTimeout <= 0 {
		return fmt.Errorf("providers.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.ProviderTimeout {
		cfg.RequestTimeout = cfg.ProviderTimeout + time.Second
	}
	switch cfg.CacheBackend {
	case "none", "in_memory", "memcached", "redis":
	default:
		return fmt.Errorf("cache.backend must be none, in_memory, memcached or redis, got %q", cfg.CacheBackend)
	}
	return nil
}
