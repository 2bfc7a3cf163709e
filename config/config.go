package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// HTTP/WS listen address for the trainer gateway
	Addr string
	// Prometheus metrics listen address
	MetricsAddr string

	// Infrastructure
	RedisAddr     string // empty disables the entitlement watcher
	RedisPassword string
	SQLitePath    string

	// Simulation
	TradeSize float64 // fixed lot size per trade intent

	// Entitlement
	PremiumDefault bool   // tier assumed until the billing sync reports
	EntitlementKey string // Redis key holding the premium flag
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is honored if present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	return &Config{
		Addr:        getEnv("ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/datasets.db"),

		TradeSize: getEnvFloat("TRADE_SIZE", 100),

		PremiumDefault: getEnvBool("PREMIUM_DEFAULT", false),
		EntitlementKey: getEnv("ENTITLEMENT_KEY", "trainer:premium"),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return b
}
