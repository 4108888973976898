package infra

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevelByEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	if got := NewLogger("development").GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("development level = %v, want debug", got)
	}
	if got := NewLogger("production").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("production level = %v, want info", got)
	}
}

func TestNewLoggerHonorsLogLevelOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	if got := NewLogger("development").GetLevel(); got != zerolog.WarnLevel {
		t.Fatalf("level = %v, want warn from LOG_LEVEL", got)
	}

	t.Setenv("LOG_LEVEL", "not-a-level")
	if got := NewLogger("production").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info when the override is invalid", got)
	}
}
