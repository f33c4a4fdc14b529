package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries process-level settings. Values come from the environment
// with development-friendly defaults; a local .env file is honoured if present.
type Config struct {
	ServiceName    string
	Env            string
	HTTPAddr       string
	ChallengeStore string // "memory" or "redis"
	RedisURL       string
	ChallengeTTL   time.Duration
	ExposeRawCode  bool

	// Per-IP request budget. Zero disables the limiter.
	RateLimitPerMin int
	RateLimitBurst  int
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName:    getEnv("SERVICE_NAME", "checkout"),
		Env:            getEnv("ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		ChallengeStore: getEnv("CHALLENGE_STORE", "memory"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		ChallengeTTL:   5 * time.Minute,
		ExposeRawCode:  getEnv("EXPOSE_RAW_CODE", "false") == "true",

		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 120),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
