package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	DatabaseURL     string
	RedisAddr       string
	RedisPass       string
	RedisDB         int
	SessionBackend  string
	CookieSecure    bool
	LoginRatePerMin int
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is applied first.
func Load() App {
	_ = godotenv.Load()
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", "sqlite:rollcall.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:       getEnv("REDIS_PASS", ""),
		RedisDB:         intEnv("REDIS_DB", 0),
		SessionBackend:  getEnv("SESSION_BACKEND", "redis"),
		CookieSecure:    boolEnv("COOKIE_SECURE", false),
		LoginRatePerMin: intEnv("LOGIN_RATE_PER_MIN", 30),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		switch val {
		case "1", "true", "TRUE":
			return true
		case "0", "false", "FALSE":
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
