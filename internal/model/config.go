package model

// Config holds application configuration
type Config struct {
	Bot       BotConfig
	Server    ServerConfig
	Logging   LoggingConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	Broadcast BroadcastConfig
}

// BotConfig holds Telegram bot configuration
type BotConfig struct {
	Token       string
	OwnerID     int64  // user allowed to run /broadcast and /users
	Mode        string // "polling" or "webhook"
	PollTimeout int    // seconds, long-poll timeout for getUpdates
	APITimeout  int    // seconds, per-request HTTP timeout
	StartPic    string // optional photo URL for the /start greeting
}

// ServerConfig holds admin API server configuration
type ServerConfig struct {
	Port    int
	Host    string
	Timeout int // seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string
	FilePath string
}

// StoreConfig holds configuration store persistence settings
type StoreConfig struct {
	SnapshotPath  string
	FlushInterval int // seconds between dirty-snapshot flushes
}

// RateLimitConfig holds rate limiting configuration for the admin API
type RateLimitConfig struct {
	Enabled           bool // Enable rate limiting
	RequestsPerMinute int  // Max requests per minute per IP
	CleanupInterval   int  // Interval in seconds to clean up old entries
}

// BroadcastConfig holds broadcast fan-out settings
type BroadcastConfig struct {
	DelayMS int // delay between outbound sends to avoid flooding
}
