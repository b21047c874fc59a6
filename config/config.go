package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// languageCodeMap maps 2-letter language codes to full language names used
// in translation prompts.
var languageCodeMap = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"mr": "Marathi",
	"ta": "Tamil",
	"bn": "Bengali",
	"te": "Telugu",
	"gu": "Gujarati",
	"kn": "Kannada",
	"ml": "Malayalam",
	"pa": "Punjabi",
}

// LanguageName resolves a language code to its full name; unknown codes are
// passed through as-is so the translator can still attempt them.
func LanguageName(code string) string {
	if name, ok := languageCodeMap[code]; ok {
		return name
	}
	return code
}

// RabbitMQConfig holds broker connection settings for the ingest/egress
// queues.
type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string

	Exchange                string
	SubmissionQueue         string
	SubmissionRoutingKey    string
	AnalyzedClaimRoutingKey string
	PrefetchCount           int
}

// GetAMQPURL builds the AMQP connection URL.
func (r RabbitMQConfig) GetAMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, r.Port)
}

// Config holds all configuration for the claim analyze pipeline service.
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Model provider configuration
	LLMProvider  string // "gemini", "openai" or "stub"
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	// Backend claim API (async path)
	ClaimAPIBaseURL string
	ClaimPollMax    int
	ClaimPollDelay  time.Duration
	UseClaimBackend bool

	// Translation configuration
	TranslationLanguages map[string]string // code -> full name
	TranslateWorkers     int

	// Messaging
	RabbitMQ RabbitMQConfig

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "claimcheck"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Model provider defaults
		LLMProvider:  getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),

		// Claim backend defaults (30 polls, 1s apart)
		ClaimAPIBaseURL: getEnv("CLAIM_API_BASE_URL", ""),
		ClaimPollMax:    getIntEnv("CLAIM_POLL_MAX_ATTEMPTS", 30),
		ClaimPollDelay:  getDurationEnv("CLAIM_POLL_DELAY", 1*time.Second),
		UseClaimBackend: getBoolEnv("USE_CLAIM_BACKEND", false),

		// Translation defaults
		TranslationLanguages: getLanguagesEnv("TRANSLATION_LANGUAGES", "en,hi"),
		TranslateWorkers:     getIntEnv("TRANSLATE_WORKERS", 4),

		RabbitMQ: RabbitMQConfig{
			Host:                    getEnv("RABBITMQ_HOST", "localhost"),
			Port:                    getEnv("RABBITMQ_PORT", "5672"),
			User:                    getEnv("RABBITMQ_USER", "guest"),
			Password:                getEnv("RABBITMQ_PASSWORD", "guest"),
			Exchange:                getEnv("RABBITMQ_EXCHANGE", "claimcheck"),
			SubmissionQueue:         getEnv("RABBITMQ_SUBMISSION_QUEUE", "claim-submissions"),
			SubmissionRoutingKey:    getEnv("RABBITMQ_SUBMISSION_ROUTING_KEY", "claim.submitted"),
			AnalyzedClaimRoutingKey: getEnv("RABBITMQ_ANALYZED_ROUTING_KEY", "claim.analyzed"),
			PrefetchCount:           getIntEnv("RABBITMQ_PREFETCH", 10),
		},

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getLanguagesEnv parses a comma-separated list of language codes and
// resolves each to its full name.
func getLanguagesEnv(key, defaultValue string) map[string]string {
	value := getEnv(key, defaultValue)
	languages := make(map[string]string)
	for _, code := range strings.Split(value, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		languages[code] = LanguageName(code)
	}
	return languages
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
