package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	DatabaseURL string

	// Redis (login codes, tier cache, ideas history)
	RedisAddr     string
	RedisPassword string

	// Upstream model API
	ModelAPIKey  string
	ModelBaseURL string
	ModelName    string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceDayPass  string
	StripePriceWeekPass string

	// Auth
	JWTSecret string

	// External PDF renderer
	PDFRendererURL string

	// Free tier
	FreeRunLimit int

	// Rate Limiting
	RateLimitRPS int

	// Frontend
	FrontendURL    string
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists (development only)
	loadEnvFile(".env")

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		ModelAPIKey:         getEnv("MODEL_API_KEY", ""),
		ModelBaseURL:        getEnv("MODEL_BASE_URL", "https://api.openai.com"),
		ModelName:           getEnv("MODEL_NAME", "gpt-4o-mini"),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceDayPass:  getEnv("STRIPE_PRICE_DAY_PASS", ""),
		StripePriceWeekPass: getEnv("STRIPE_PRICE_WEEK_PASS", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		PDFRendererURL:      getEnv("PDF_RENDERER_URL", ""),
		FreeRunLimit:        getEnvInt("FREE_RUN_LIMIT", 3),
		RateLimitRPS:        getEnvInt("RATE_LIMIT_RPS", 10),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		AllowedOrigins: []string{
			"http://localhost:5173",
			"https://resumeclarity.app",
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// loadEnvFile reads a .env file and sets environment variables.
// Silently skips if the file doesn't exist (production uses real env vars).
func loadEnvFile(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on first = sign
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't overwrite existing env vars (real env takes precedence)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
