// Package config provides configuration for the relay.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the relay configuration.
type Config struct {
	// Server settings
	HTTPPort  int
	PublicDir string

	// Data
	DataDir     string
	DatabaseURL string

	// Bridge transport
	BridgeURL string

	// Model backend
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	Model            string
	ModelTemperature float64
	ModelTimeout     time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from a .env file if present, then from
// environment variables.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 3000),
		PublicDir:        getEnv("PUBLIC_DIR", "public"),
		DataDir:          getEnv("DATA_DIR", "data"),
		DatabaseURL:      getEnv("DATABASE_URL", "file:chatrelay.db?cache=shared&mode=rwc"),
		BridgeURL:        getEnv("BRIDGE_URL", "ws://localhost:8090"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		Model:            getEnv("MODEL", "gpt-3.5-turbo"),
		ModelTemperature: getEnvFloat("MODEL_TEMPERATURE", 0.7),
		ModelTimeout:     time.Duration(getEnvInt("MODEL_TIMEOUT_MS", 60000)) * time.Millisecond,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
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
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}
