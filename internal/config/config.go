package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Gemini inference
	GeminiAPIKey  string
	GeminiModelID string

	// Chat pipeline
	MaxMessageLength    int
	RateLimitWindow     time.Duration
	RateLimitMax        int
	SessionTTL          time.Duration
	SessionMaxMessages  int
	InferenceTimeout    time.Duration
	DetectTimeout       time.Duration
	DetectRetryBackoff  time.Duration
	CatalogRefreshEvery time.Duration

	CORSAllowedOrigins []string
	AdminToken         string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		MaxMessageLength:    getEnvAsInt("CHAT_MAX_MESSAGE_LENGTH", 500),
		RateLimitWindow:     getEnvAsDuration("CHAT_RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:        getEnvAsInt("CHAT_RATE_LIMIT_MAX", 10),
		SessionTTL:          getEnvAsDuration("CHAT_SESSION_TTL", 30*24*time.Hour),
		SessionMaxMessages:  getEnvAsInt("CHAT_SESSION_MAX_MESSAGES", 250),
		InferenceTimeout:    getEnvAsDuration("CHAT_INFERENCE_TIMEOUT", 15*time.Second),
		DetectTimeout:       getEnvAsDuration("CHAT_DETECT_TIMEOUT", 3*time.Second),
		DetectRetryBackoff:  getEnvAsDuration("CHAT_DETECT_RETRY_BACKOFF", 500*time.Millisecond),
		CatalogRefreshEvery: getEnvAsDuration("CTA_CATALOG_REFRESH_INTERVAL", 5*time.Minute),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
