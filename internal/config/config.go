package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// Grace window after a connection drop during which a reconnect keeps
	// the match alive. A page reload must not look like a partner leaving.
	DefaultGracePeriod = 5 * time.Second

	// WebSocket pump tuning.
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 4096
	SendBufferSize = 256

	// Text that replaces the content of a deleted message.
	DeletedMessageText = "This message was deleted"

	// TTL for anonymous-phase match snapshots in Redis.
	ActiveMatchTTL = 24 * time.Hour

	JWTIssuer = "veilmatch-service"
	JWTTTL    = 72 * time.Hour
)

// Config — значення, які читаються з оточення при старті.
type Config struct {
	ListenAddr    string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	TelegramToken string // Порожній, якщо push-сповіщення вимкнено
	GracePeriod   time.Duration
}

// Load збирає Config з змінних оточення (після godotenv.Load у main).
func Load() Config {
	cfg := Config{
		ListenAddr: getenv("LISTEN_ADDR", ":8080"),
		PostgresDSN: fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getenv("DB_HOST", "localhost"),
			getenv("DB_USER", "user"),
			getenv("DB_PASSWORD", "password"),
			getenv("DB_NAME", "veilmatchdb"),
			getenv("DB_PORT", "5432"),
		),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GracePeriod:   DefaultGracePeriod,
	}
	if v := os.Getenv("GRACE_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GracePeriod = d
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
