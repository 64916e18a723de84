package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	SessionRetention time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		SessionRetention: time.Hour,
	}

	if v := os.Getenv("QA_SESSION_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("[ERROR] Invalid QA_SESSION_RETENTION %q, falling back to default: %v", v, err)
		} else {
			cfg.SessionRetention = d
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
