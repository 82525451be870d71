package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	StripeAPIKey        string
	StripeWebhookSecret string
	ServerPort          string
	PrometheusPort      string
	AllowedOrigins      []string
	LogFile             string
}

// LoadConfig reads configuration from a .env file if present, falling back
// to the process environment. Both Stripe secrets are required; starting
// without them would silently reject every webhook, so we abort instead.
func LoadConfig() *Config {
	err := godotenv.Load(".env")
	if err != nil {
		log.Info().Msg("Using environment variables directly")
	}

	cfg := &Config{
		StripeAPIKey:        getEnv("STRIPE_API_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		PrometheusPort:      getEnv("PROMETHEUS_PORT", "9090"),
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		LogFile:             getEnv("LOG_FILE", ""),
	}

	if cfg.StripeAPIKey == "" {
		log.Fatal().Msg("STRIPE_API_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		log.Fatal().Msg("STRIPE_WEBHOOK_SECRET is required")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
