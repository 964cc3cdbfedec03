// Package config provides configuration for the chat service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Model provider. Mode "MOCK" swaps in the in-process mock client.
	Mode       string
	LLMBaseURL string
	LLMAPIKey  string
	Model      string
	LLMTimeout time.Duration

	// Generation
	MaxToolSteps int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:     getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:  getEnv("DATABASE_URL", "file:chatstream.db?cache=shared&mode=rwc"),
		Mode:         getEnv("MODE", ""),
		LLMBaseURL:   getEnv("LLM_BASE_URL", "http://localhost:4000"),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		Model:        getEnv("LLM_MODEL", "gemini-2.0-flash"),
		LLMTimeout:   time.Duration(getEnvInt("LLM_TIMEOUT_MS", 300000)) * time.Millisecond,
		MaxToolSteps: getEnvInt("MAX_TOOL_STEPS", 10),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
	return cfg
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
