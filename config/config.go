package config

import (
	"os"
	"strconv"
	"strings"

	"autocaption/internal/model"

	"github.com/joho/godotenv"
)

// Load loads configuration from environment variables
func Load() *model.Config {
	godotenv.Load()

	return &model.Config{
		Bot: model.BotConfig{
			Token:       getEnvStr("BOT_TOKEN", ""),
			OwnerID:     getEnvInt64("BOT_OWNER_ID", 0),
			Mode:        getEnvStr("BOT_MODE", "polling"),
			PollTimeout: getEnvInt("BOT_POLL_TIMEOUT", 50),
			APITimeout:  getEnvInt("BOT_API_TIMEOUT", 60),
			StartPic:    getEnvStr("BOT_START_PIC", ""),
		},
		Server: model.ServerConfig{
			Port:    getEnvInt("SERVER_PORT", 8080),
			Host:    getEnvStr("SERVER_HOST", "0.0.0.0"),
			Timeout: getEnvInt("SERVER_TIMEOUT", 30),
		},
		Logging: model.LoggingConfig{
			Level:    getEnvStr("LOG_LEVEL", "info"),
			FilePath: getEnvStr("LOG_FILE", "./log/app.log"),
		},
		Store: model.StoreConfig{
			SnapshotPath:  getEnvStr("STORE_SNAPSHOT_PATH", "./data/store.json"),
			FlushInterval: getEnvInt("STORE_FLUSH_INTERVAL", 30),
		},
		RateLimit: model.RateLimitConfig{
			Enabled:           getEnvBool("RATELIMIT_ENABLED", true),
			RequestsPerMinute: getEnvInt("RATELIMIT_REQUESTS_PER_MINUTE", 60),
			CleanupInterval:   getEnvInt("RATELIMIT_CLEANUP_INTERVAL", 1800),
		},
		Broadcast: model.BroadcastConfig{
			DelayMS: getEnvInt("BROADCAST_DELAY_MS", 100),
		},
	}
}

func getEnvStr(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	valStr := getEnvStr(key, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	valStr := getEnvStr(key, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	valStr := strings.ToLower(getEnvStr(key, ""))
	if valStr == "true" || valStr == "1" || valStr == "yes" {
		return true
	}
	if valStr == "false" || valStr == "0" || valStr == "no" {
		return false
	}
	return defaultVal
}
