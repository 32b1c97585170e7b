package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	TokenTTL     time.Duration
	CacheTTL     time.Duration
	// Час суточного сброса флагов участия (локальное время сервера).
	DailyResetHour int
	// K-фактор рейтинга; 0 — использовать канонический.
	RatingK int

	// Cloudflare R2 — опционально: пустые значения отключают выгрузку
	// архивных CSV.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	tokenTTLHours, err := intFromEnv("TOKEN_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cacheTTLSeconds, err := intFromEnv("CACHE_TTL_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	resetHour, err := intFromEnv("DAILY_RESET_HOUR", 4)
	if err != nil {
		return nil, err
	}
	if resetHour < 0 || resetHour > 23 {
		return nil, fmt.Errorf("DAILY_RESET_HOUR must be between 0 and 23, got %d", resetHour)
	}

	ratingK, err := intFromEnv("RATING_K_FACTOR", 0)
	if err != nil {
		return nil, err
	}
	if ratingK < 0 {
		return nil, fmt.Errorf("RATING_K_FACTOR must not be negative, got %d", ratingK)
	}

	return &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		TokenTTL:          time.Duration(tokenTTLHours) * time.Hour,
		CacheTTL:          time.Duration(cacheTTLSeconds) * time.Second,
		DailyResetHour:    resetHour,
		RatingK:           ratingK,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}, nil
}

// R2Configured сообщает, заданы ли все поля для выгрузки в R2.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func intFromEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
