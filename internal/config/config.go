package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	// Telegram admin approval channel for deposits/withdrawals.
	BotToken        string
	AdminTelegramID string

	// Token required by the admin approval endpoints.
	AdminToken string

	AppVersion string
	UpdateURL  string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:       os.Getenv("REDIS_PASS"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		BotToken:        os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminTelegramID: os.Getenv("ADMIN_TELEGRAM_ID"),
		AdminToken:      os.Getenv("ADMIN_API_TOKEN"),
		AppVersion:      getEnv("APP_VERSION", "1.0.0"),
		UpdateURL:       getEnv("APP_UPDATE_URL", "https://t.me/etafanta_user"),
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
		}
		cfg.RedisDB = db
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
