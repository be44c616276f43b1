package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "polling", cfg.Bot.Mode)
	assert.Equal(t, 50, cfg.Bot.PollTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "./data/store.json", cfg.Store.SnapshotPath)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.Broadcast.DelayMS)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("BOT_OWNER_ID", "42")
	t.Setenv("BOT_MODE", "webhook")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATELIMIT_ENABLED", "no")
	t.Setenv("STORE_FLUSH_INTERVAL", "5")

	cfg := Load()

	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, int64(42), cfg.Bot.OwnerID)
	assert.Equal(t, "webhook", cfg.Bot.Mode)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.Store.FlushInterval)
}
