package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Language model
	LLMProvider       string
	ClaudeAPIKey      string
	ClaudeModel       string
	ClaudeAPIURL      string
	GeminiAPIKey      string
	GeminiModel       string
	MaxOutputTokens   int
	CompletionTimeout time.Duration

	// Storage
	PagesDir string

	// Rate limiting
	RateLimit int
	RedisURL  string

	// CORS
	AllowedOrigins []string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		LLMProvider:       strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "anthropic")),
		ClaudeModel:       getEnvOrDefault("CLAUDE_MODEL", "claude-sonnet-4-5"),
		ClaudeAPIURL:      getEnvOrDefault("CLAUDE_API_URL", "https://api.anthropic.com/v1/messages"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		MaxOutputTokens:   getEnvAsIntOrDefault("MAX_OUTPUT_TOKENS", 8192),
		CompletionTimeout: time.Duration(getEnvAsIntOrDefault("COMPLETION_TIMEOUT_SECONDS", 120)) * time.Second,
		PagesDir:          getEnvOrDefault("PAGES_DIR", "./pages"),
		RateLimit:         getEnvAsIntOrDefault("RATE_LIMIT", 30),
		RedisURL:          getEnvOrDefault("REDIS_URL", ""),
		AllowedOrigins:    splitList(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
	}

	// Only the selected provider's key is required.
	switch cfg.LLMProvider {
	case "gemini":
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	default:
		cfg.ClaudeAPIKey = mustGetEnv("CLAUDE_API_KEY")
	}

	return cfg
}

// LLMAPIKey returns the key of the selected provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.ClaudeAPIKey
}

// LLMModel returns the model of the selected provider.
func (c *Config) LLMModel() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiModel
	}
	return c.ClaudeModel
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
