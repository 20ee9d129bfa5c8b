package config

import (
	"os"
	"time"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port           string
	AllowedOrigins string
	// RedisURL enables the finished-game archive; empty disables it.
	RedisURL    string
	RoomIdleTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:           envOrDefault("PORT", "8000"),
		AllowedOrigins: envOrDefault("ALLOWED_ORIGINS", "*"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RoomIdleTTL:    durationOrDefault("ROOM_IDLE_TTL", 2*time.Hour),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
