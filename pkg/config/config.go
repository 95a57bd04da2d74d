package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	JWTSecret string

	// Database
	DatabaseDSN string

	// Mail provider: "gmail" or "imap"
	MailProvider       string
	GoogleClientID     string
	GoogleClientSecret string
	GmailAccessToken   string
	GmailRefreshToken  string
	IMAPHost           string
	IMAPPort           string
	IMAPUsername       string
	IMAPPassword       string

	// AI classifier provider
	AIProvider    string
	GeminiAPIKey  string
	OllamaBaseURL string
	OllamaModel   string

	// Sync engine tuning
	SyncInterval        time.Duration
	SyncDailyHour       int
	ConfidenceThreshold float64
	MatchMinScore       float64
	MatchAmbiguityDelta float64
	ClassifyMaxAttempts int
	ClassifyRetryDelay  time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	syncInterval := 6 * time.Hour
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			syncInterval = parsed
		}
	}

	retryDelay := 2 * time.Second
	if v := os.Getenv("CLASSIFY_RETRY_DELAY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			retryDelay = parsed
		}
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=jobtrack port=5432 sslmode=disable"),

		MailProvider:       getEnv("MAIL_PROVIDER", "gmail"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GmailAccessToken:   getEnv("GMAIL_ACCESS_TOKEN", ""),
		GmailRefreshToken:  getEnv("GMAIL_REFRESH_TOKEN", ""),
		IMAPHost:           getEnv("IMAP_HOST", ""),
		IMAPPort:           getEnv("IMAP_PORT", "993"),
		IMAPUsername:       getEnv("IMAP_USERNAME", ""),
		IMAPPassword:       getEnv("IMAP_PASSWORD", ""),

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		SyncInterval:        syncInterval,
		SyncDailyHour:       getEnvInt("SYNC_DAILY_HOUR", 7),
		ConfidenceThreshold: getEnvFloat("CLASSIFIER_CONFIDENCE_THRESHOLD", 0.6),
		MatchMinScore:       getEnvFloat("MATCH_MIN_SCORE", 0.4),
		MatchAmbiguityDelta: getEnvFloat("MATCH_AMBIGUITY_DELTA", 0.05),
		ClassifyMaxAttempts: getEnvInt("CLASSIFY_MAX_ATTEMPTS", 2),
		ClassifyRetryDelay:  retryDelay,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
