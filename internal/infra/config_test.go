package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("AI_DEFAULT_PROVIDER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want 8080", cfg.Port)
	}
	if cfg.DefaultProvider != "gemini" {
		t.Fatalf("DefaultProvider mismatch: got %q", cfg.DefaultProvider)
	}
	if cfg.JobMaxAttempts != 3 {
		t.Fatalf("JobMaxAttempts mismatch: got %d", cfg.JobMaxAttempts)
	}
	if cfg.ProviderBaseDelay != 20*time.Second {
		t.Fatalf("ProviderBaseDelay mismatch: got %s", cfg.ProviderBaseDelay)
	}
	if cfg.WorkoutQuota != 5 || cfg.InbodyQuota != 10 {
		t.Fatalf("quota defaults mismatch: workout=%d inbody=%d", cfg.WorkoutQuota, cfg.InbodyQuota)
	}
	if cfg.DefaultLanguage != "en" {
		t.Fatalf("DefaultLanguage mismatch: got %q", cfg.DefaultLanguage)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig accepted missing DATABASE_URL")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("AI_DEFAULT_PROVIDER", "claude")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig accepted unknown provider")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("AI_DEFAULT_PROVIDER", "openai")
	t.Setenv("QUOTA_WORKOUT", "-1")
	t.Setenv("JOB_RETRY_BASE_DELAY", "500ms")
	t.Setenv("SCAN_WORKER_CONCURRENCY", "8")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DefaultProvider != "openai" {
		t.Fatalf("DefaultProvider mismatch: got %q", cfg.DefaultProvider)
	}
	if cfg.WorkoutQuota != -1 {
		t.Fatalf("WorkoutQuota mismatch: got %d", cfg.WorkoutQuota)
	}
	if cfg.JobRetryBase != 500*time.Millisecond {
		t.Fatalf("JobRetryBase mismatch: got %s", cfg.JobRetryBase)
	}
	if cfg.ScanConcurrency != 8 {
		t.Fatalf("ScanConcurrency mismatch: got %d", cfg.ScanConcurrency)
	}
	if cfg.QuotaLimit("workout") != -1 {
		t.Fatalf("QuotaLimit(workout) mismatch: got %d", cfg.QuotaLimit("workout"))
	}
}
