package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://api.local/")
	t.Setenv("CHECKOUT_POLL_INTERVAL", "")

	cfg := Load()
	assert.Equal(t, "http://api.local", cfg.BackendURL)
	assert.Equal(t, 600*time.Second, cfg.Checkout.Countdown)
	assert.Equal(t, time.Second, cfg.Checkout.Tick)
	assert.Equal(t, 10*time.Second, cfg.Checkout.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Checkout.CopyIndicator)
	assert.Equal(t, "Cinema Booking System", cfg.ABA.Name)
	assert.Equal(t, "000123456", cfg.ABA.Number)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHECKOUT_COUNTDOWN", "90s")
	t.Setenv("CHECKOUT_POLL_INTERVAL", "3s")
	t.Setenv("SESSION_COOKIE_SECURE", "yes")
	t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")

	cfg := Load()
	assert.Equal(t, 90*time.Second, cfg.Checkout.Countdown)
	assert.Equal(t, 3*time.Second, cfg.Checkout.PollInterval)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.AMQPURL)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.BackendURL = "not a url"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.Checkout.Countdown = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestParseMethods(t *testing.T) {
	m := parseMethods(" get, head ,,")
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, m)
}

func TestLocation(t *testing.T) {
	cfg := Load()
	cfg.TimeZone = "UTC"
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.TimeZone = "Nowhere/Special"
	assert.Error(t, cfg.Validate())
	assert.Equal(t, time.UTC, cfg.Location())
}
