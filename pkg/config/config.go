package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string

	// Shared secret expected from the external invoker
	CronSecret string

	// AI backends, tried in order
	GeminiAPIKey  string
	GeminiModels  []string
	OllamaBaseURL string // empty disables the legacy tier
	OllamaModel   string

	NotionAPIBaseURL string
	NotionVersion    string
	NotionPageSize   int
	NotionFetchDelay time.Duration

	TelegramBotToken   string
	TelegramAPIBaseURL string

	// Per external call budget; 0 disables it
	StageTimeout time.Duration

	LogLevel string
	LogEnv   string // "prod" or "dev"
	LogFile  string

	GoogleProjectID          string
	GooglePubSubTopic        string
	GooglePubSubSubscription string
	GoogleCredentials        string

	InternalTicker bool
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:                     getEnv("PORT", "8080"),
		DatabaseDriver:           getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:              getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=digest port=5432 sslmode=disable"),
		CronSecret:               getEnv("CRON_SECRET", ""),
		GeminiAPIKey:             getEnv("GEMINI_API_KEY", ""),
		GeminiModels:             getList("GEMINI_MODELS", []string{"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-flash"}),
		OllamaBaseURL:            getEnv("OLLAMA_BASE_URL", ""),
		OllamaModel:              getEnv("OLLAMA_MODEL", "llama3"),
		NotionAPIBaseURL:         getEnv("NOTION_API_BASE_URL", "https://api.notion.com/v1"),
		NotionVersion:            getEnv("NOTION_VERSION", "2022-06-28"),
		NotionPageSize:           getInt("NOTION_PAGE_SIZE", 20),
		NotionFetchDelay:         getDuration("NOTION_FETCH_DELAY", 350*time.Millisecond),
		TelegramBotToken:         getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIBaseURL:       getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		StageTimeout:             getDuration("STAGE_TIMEOUT", 2*time.Minute),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		LogEnv:                   getEnv("LOG_ENV", "prod"),
		LogFile:                  getEnv("LOG_FILE", ""),
		GoogleProjectID:          getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic:        getEnv("GOOGLE_PUBSUB_TOPIC", "digest-trigger"),
		GooglePubSubSubscription: getEnv("GOOGLE_PUBSUB_SUBSCRIPTION", "digest-trigger-sub"),
		GoogleCredentials:        getEnv("GOOGLE_CREDENTIALS", ""),
		InternalTicker:           getBool("INTERNAL_TICKER", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
