package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DBHost             string
	DBPort             string
	DBUser             string
	DBPass             string
	DBName             string
	DBSSLMode          string
	JWTSecret          string
	Port               string
	Env                string
	QRDir              string
	MealTypes          []string
	DefaultMemberLimit int
	StrictRUT          bool
	LogLevel           string
}

func NewConfigFromEnv() (*Config, error) {
	defaultLimit, _ := strconv.Atoi(getenv("DEFAULT_MEMBER_LIMIT", "50"))
	strictRUT, _ := strconv.ParseBool(getenv("STRICT_RUT", "false"))

	cfg := &Config{
		DBHost:             getenv("DB_HOST", "localhost"),
		DBPort:             getenv("DB_PORT", "5432"),
		DBUser:             getenv("DB_USER", "postgres"),
		DBPass:             getenv("DB_PASSWORD", "postgres"),
		DBName:             getenv("DB_NAME", "accreditationdb"),
		DBSSLMode:          getenv("DB_SSLMODE", "disable"),
		JWTSecret:          getenv("JWT_SECRET", ""),
		Port:               getenv("PORT", "3000"),
		Env:                getenv("ENV", "development"),
		QRDir:              getenv("QR_DIR", "./uploads/qrcodes"),
		MealTypes:          splitList(getenv("MEAL_TYPES", "lunch,once")),
		DefaultMemberLimit: defaultLimit,
		StrictRUT:          strictRUT,
		LogLevel:           getenv("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if len(cfg.MealTypes) == 0 {
		return nil, errors.New("MEAL_TYPES must list at least one meal category")
	}
	if cfg.DefaultMemberLimit <= 0 {
		return nil, errors.New("DEFAULT_MEMBER_LIMIT must be positive")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
