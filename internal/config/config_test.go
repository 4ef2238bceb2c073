package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "APP_PORT", "API_BASE_URL", "VITE_API_BASE_URL", "SESSION_SECRET",
		"SESSION_TTL", "SHOW_STORE", "VOICE_DISMISS_DELAY", "BOOKING_SEAT_PRICE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Len(t, cfg.SessionSecret, 64, "a random secret is generated")
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "memory", cfg.ShowStore)
	assert.Equal(t, 800*time.Millisecond, cfg.VoiceDismissDelay)
	assert.Equal(t, 250, cfg.SeatPrice)
}

func TestLoad_APIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("VITE_API_BASE_URL", "http://api.local:9000/")
	assert.Equal(t, "http://api.local:9000", Load().APIBaseURL)

	t.Setenv("API_BASE_URL", "http://primary:8000")
	assert.Equal(t, "http://primary:8000", Load().APIBaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SHOW_STORE", "Redis")
	t.Setenv("VOICE_DISMISS_DELAY", "1s")
	t.Setenv("BOOKING_SEAT_PRICE", "-5")
	cfg := Load()
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.Equal(t, "redis", cfg.ShowStore)
	assert.Equal(t, time.Second, cfg.VoiceDismissDelay)
	assert.Equal(t, 250, cfg.SeatPrice)
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL, "TTL is at least five refill intervals")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_INT", "twelve")
	t.Setenv("X_DUR", "soon")
	assert.True(t, envBool("X_BOOL", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, time.Minute, envDur("X_DUR", time.Minute))
}
