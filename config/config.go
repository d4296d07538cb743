package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Market-data provider credentials
	ProviderAPIKey     string
	ProviderClientCode string
	ProviderPassword   string
	ProviderTOTPSecret string
	ProviderRootURL    string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	GatewayAddr   string

	// Notifications (optional; empty disables Telegram)
	TelegramBotToken string
	TelegramChatID   string

	// Scan
	Universe        string // comma-separated symbols
	FetchWindowDays int
	Workers         int
	ScanEvery       time.Duration // 0 = scan once and exit
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ProviderAPIKey:     mustEnv("PROVIDER_API_KEY"),
		ProviderClientCode: mustEnv("PROVIDER_CLIENT_CODE"),
		ProviderPassword:   mustEnv("PROVIDER_PASSWORD"),
		ProviderTOTPSecret: mustEnv("PROVIDER_TOTP_SECRET"),
		ProviderRootURL:    getEnv("PROVIDER_ROOT_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/signals.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		GatewayAddr:   getEnv("GATEWAY_ADDR", ":8081"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		Universe:        getEnv("UNIVERSE", ""),
		FetchWindowDays: getEnvInt("FETCH_WINDOW_DAYS", 100),
		Workers:         getEnvInt("SCAN_WORKERS", 4),
		ScanEvery:       getEnvDuration("SCAN_EVERY", 0),
	}
}

// ParseUniverse splits the Universe string into a cleaned symbol slice.
func (c *Config) ParseUniverse() []string {
	parts := strings.Split(c.Universe, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		symbols = append(symbols, p)
	}
	return symbols
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
