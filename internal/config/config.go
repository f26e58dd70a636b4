package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Session transport
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	// Language model (OpenAI-compatible endpoint; Perplexity works too)
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTimeout     time.Duration
	HistoryWindow  int

	// Embeddings run against OpenAI proper even when chat goes elsewhere
	OpenAIAPIKey   string
	EmbeddingModel string
	EmbeddingDim   int

	// Retrieval index persistence
	RAGDataDir  string
	RAGS3Bucket string
	AWSRegion   string

	// Property-management backend: "postgres" or "webservice"
	PMSBackend       string
	DatabaseURL      string
	PMSBaseURL       string
	PMSAPIKey        string
	PMSTimeout       time.Duration
	ExtraGuestFee    float64
	PropertyInfoFile string

	// Staff notifications
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	StaffEmail         string
	NotifyWebhookURL   string
	NotifyRecipient    string
	PropertyName       string
	ReceptionPhone     string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.perplexity.ai"),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "sonar-pro"),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		HistoryWindow:  getEnvAsInt("HISTORY_WINDOW", 10),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDim:   getEnvAsInt("EMBEDDING_DIM", 384),

		RAGDataDir:  getEnv("RAG_DATA_DIR", "rag_data"),
		RAGS3Bucket: getEnv("RAG_S3_BUCKET", ""),
		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),

		PMSBackend:       strings.ToLower(strings.TrimSpace(getEnv("PMS_BACKEND", "postgres"))),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		PMSBaseURL:       getEnv("PMS_BASE_URL", ""),
		PMSAPIKey:        getEnv("PMS_API_KEY", ""),
		PMSTimeout:       getEnvAsDuration("PMS_TIMEOUT", 15*time.Second),
		ExtraGuestFee:    getEnvAsFloat("EXTRA_GUEST_FEE", 20),
		PropertyInfoFile: getEnv("PROPERTY_INFO_FILE", "data/property_info.txt"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Guest Concierge"),
		StaffEmail:        getEnv("STAFF_EMAIL", ""),
		NotifyWebhookURL:  getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyRecipient:   getEnv("NOTIFY_RECIPIENT", "frontdesk"),
		PropertyName:      getEnv("PROPERTY_NAME", "Chennai BnB Serviced Apartments"),
		ReceptionPhone:    getEnv("RECEPTION_PHONE", "+91-9876543210"),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
