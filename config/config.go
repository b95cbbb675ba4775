package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProfileDevelopment = "development"
	ProfileProduction  = "production"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Profile string

	LogLevel  string
	LogFormat string

	RateLimitWindow time.Duration
	FlexibleMaxAge  time.Duration

	CollectorCommand    string
	CollectorArgs       []string
	CollectorTimeout    time.Duration
	CollectorAttempts   int
	CollectorRatePerMin int

	CacheBackend  string
	CacheFile     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	PostgresDSN string
	RawDumpPath string

	FallbackSeed      uint64
	RenovationPerRoom float64

	WarmConcurrency int
	WarmSpacing     time.Duration
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	profile := strings.ToLower(v.GetString("APP_ENV"))
	if profile != ProfileProduction {
		profile = ProfileDevelopment
	}

	cfg := &Config{
		Profile: profile,

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		RateLimitWindow: v.GetDuration("RATE_LIMIT_WINDOW"),
		FlexibleMaxAge:  v.GetDuration("FLEXIBLE_MAX_AGE"),

		CollectorCommand:    v.GetString("COLLECTOR_COMMAND"),
		CollectorArgs:       strings.Fields(v.GetString("COLLECTOR_ARGS")),
		CollectorTimeout:    v.GetDuration("COLLECTOR_TIMEOUT"),
		CollectorAttempts:   v.GetInt("COLLECTOR_ATTEMPTS"),
		CollectorRatePerMin: v.GetInt("COLLECTOR_RATE_PER_MIN"),

		CacheBackend:  strings.ToLower(v.GetString("CACHE_BACKEND")),
		CacheFile:     v.GetString("CACHE_FILE"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		RedisKey:      v.GetString("REDIS_KEY"),

		PostgresDSN: v.GetString("POSTGRES_DSN"),
		RawDumpPath: v.GetString("RAW_DUMP_PATH"),

		FallbackSeed:      v.GetUint64("FALLBACK_SEED"),
		RenovationPerRoom: v.GetFloat64("RENOVATION_PER_ROOM"),

		WarmConcurrency: v.GetInt("WARM_CONCURRENCY"),
		WarmSpacing:     v.GetDuration("WARM_SPACING"),
	}

	// Profile-dependent defaults apply only when the variable is unset.
	if v.GetString("RATE_LIMIT_WINDOW") == "" {
		cfg.RateLimitWindow = DefaultRateLimitWindow(profile)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if profile == ProfileProduction {
			cfg.LogFormat = "json"
		}
	}

	return cfg
}

// DefaultRateLimitWindow is short for interactive use and long in production
// to protect the external collector.
func DefaultRateLimitWindow(profile string) time.Duration {
	if profile == ProfileProduction {
		return 15 * time.Minute
	}
	return 30 * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", ProfileDevelopment)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("FLEXIBLE_MAX_AGE", "0s")

	v.SetDefault("COLLECTOR_COMMAND", "python3")
	v.SetDefault("COLLECTOR_ARGS", "server/scraper/zoopla_scraper.py")
	v.SetDefault("COLLECTOR_TIMEOUT", "60s")
	v.SetDefault("COLLECTOR_ATTEMPTS", 1)
	v.SetDefault("COLLECTOR_RATE_PER_MIN", 0)

	v.SetDefault("CACHE_BACKEND", "file")
	v.SetDefault("CACHE_FILE", "./data/scrape_cache.json")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY", "hmo:scrape_cache")

	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("RAW_DUMP_PATH", "")

	v.SetDefault("FALLBACK_SEED", 0)
	v.SetDefault("RENOVATION_PER_ROOM", 15000)

	v.SetDefault("WARM_CONCURRENCY", 2)
	v.SetDefault("WARM_SPACING", "2s")
}
