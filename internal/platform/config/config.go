package config

import (
	"os"
	"strconv"
	"time"
)

// Version is the server version reported by the /system/version probe.
const Version = "1.0.0"

// Config captures process-level configuration. Built once in main and passed
// down; nothing below cmd reads the environment directly.
type Config struct {
	Addr     string
	Redis    RedisConfig
	Postgres PostgresConfig

	// DefaultLockTTL applies when an acquire request carries no TTL.
	DefaultLockTTL time.Duration
	// DefaultRateWindow applies when an increment request carries no window.
	DefaultRateWindow time.Duration
}

// RedisConfig holds connection settings for the ephemeral store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds connection settings for the durable store.
type PostgresConfig struct {
	DSN string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr: envOr("POMA_ADDR", ":8080"),
		Redis: RedisConfig{
			URL:          envOr("REDIS_URL", "redis://localhost:6379"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: envOr("POSTGRES_DSN", "postgres://localhost:5432/poma?sslmode=disable"),
		},
		DefaultLockTTL:    envDurationOr("POMA_DEFAULT_LOCK_TTL", 30*time.Second),
		DefaultRateWindow: envDurationOr("POMA_DEFAULT_RATE_WINDOW", 60*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
