package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// Provider selection and credentials.
	DefaultProvider string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	OpenAIOrg       string

	// Provider retry tuning.
	ProviderMaxAttempts int
	ProviderBaseDelay   time.Duration
	ProviderMaxDelay    time.Duration
	ProviderMultiplier  float64
	ProviderCallTimeout time.Duration

	// Queue tuning.
	JobMaxAttempts  int
	JobRetryBase    time.Duration
	PlanConcurrency int
	ScanConcurrency int
	JobStaleAfter   time.Duration
	ReaperSchedule  string
	JobPollInterval time.Duration

	// Quota limits per 30-day period; -1 means unlimited.
	WorkoutQuota   int
	MealQuota      int
	InbodyQuota    int
	BodyPhotoQuota int

	DefaultLanguage string
	StoragePath     string
	GeoIPDBPath     string

	HTTPReadTimeout       time.Duration
	HTTPReadHeaderTimeout time.Duration
	HTTPWriteTimeout      time.Duration
	HTTPIdleTimeout       time.Duration
	RateLimitPerMin       int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		DefaultProvider: getEnv("AI_DEFAULT_PROVIDER", "gemini"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:       os.Getenv("OPENAI_ORG"),

		ProviderMaxAttempts: getEnvInt("AI_RETRY_MAX_ATTEMPTS", 5),
		ProviderBaseDelay:   getEnvDuration("AI_RETRY_BASE_DELAY", 20*time.Second),
		ProviderMaxDelay:    getEnvDuration("AI_RETRY_MAX_DELAY", 120*time.Second),
		ProviderMultiplier:  getEnvFloat("AI_RETRY_MULTIPLIER", 2),
		ProviderCallTimeout: getEnvDuration("AI_CALL_TIMEOUT", 90*time.Second),

		JobMaxAttempts:  getEnvInt("JOB_MAX_ATTEMPTS", 3),
		JobRetryBase:    getEnvDuration("JOB_RETRY_BASE_DELAY", 2*time.Second),
		PlanConcurrency: getEnvInt("PLAN_WORKER_CONCURRENCY", 2),
		ScanConcurrency: getEnvInt("SCAN_WORKER_CONCURRENCY", 4),
		JobStaleAfter:   getEnvDuration("JOB_STALE_AFTER", 15*time.Minute),
		ReaperSchedule:  getEnv("JOB_REAPER_SCHEDULE", "@every 1m"),
		JobPollInterval: getEnvDuration("JOB_POLL_INTERVAL", 2*time.Second),

		WorkoutQuota:   getEnvInt("QUOTA_WORKOUT", 5),
		MealQuota:      getEnvInt("QUOTA_MEAL", 5),
		InbodyQuota:    getEnvInt("QUOTA_INBODY_SCAN", 10),
		BodyPhotoQuota: getEnvInt("QUOTA_BODY_PHOTO", 10),

		DefaultLanguage: getEnv("NOTIFY_DEFAULT_LANGUAGE", "en"),
		StoragePath:     getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),

		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPReadHeaderTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_HEADER_TIMEOUT_SECONDS", 5)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.DefaultProvider != "gemini" && cfg.DefaultProvider != "openai" {
		return nil, fmt.Errorf("AI_DEFAULT_PROVIDER must be gemini or openai, got %q", cfg.DefaultProvider)
	}

	return cfg, nil
}

// QuotaLimit returns the configured per-period limit for a category name.
func (c *Config) QuotaLimit(category string) int {
	switch category {
	case "workout":
		return c.WorkoutQuota
	case "meal":
		return c.MealQuota
	case "inbody-scan":
		return c.InbodyQuota
	case "body-photo":
		return c.BodyPhotoQuota
	}
	return 0
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
