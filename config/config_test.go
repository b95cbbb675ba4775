package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("LOG_FORMAT", "")

	cfg := Load()

	assert.Equal(t, ProfileDevelopment, cfg.Profile)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 60*time.Second, cfg.CollectorTimeout)
	assert.Equal(t, 1, cfg.CollectorAttempts)
	assert.Equal(t, "file", cfg.CacheBackend)
	assert.Equal(t, []string{"server/scraper/zoopla_scraper.py"}, cfg.CollectorArgs)
	assert.Equal(t, 15000.0, cfg.RenovationPerRoom)
}

func TestLoadProductionProfile(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("LOG_FORMAT", "")

	cfg := Load()

	assert.Equal(t, ProfileProduction, cfg.Profile)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("RATE_LIMIT_WINDOW", "45s")
	t.Setenv("COLLECTOR_ARGS", "-u scraper/prime.py")
	t.Setenv("COLLECTOR_RATE_PER_MIN", "6")
	t.Setenv("CACHE_BACKEND", "Redis")

	cfg := Load()

	assert.Equal(t, 45*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, []string{"-u", "scraper/prime.py"}, cfg.CollectorArgs)
	assert.Equal(t, 6, cfg.CollectorRatePerMin)
	assert.Equal(t, "redis", cfg.CacheBackend)
}
