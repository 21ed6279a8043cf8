package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// These tests mutate the global viper instance and environment, so they do
// not run in parallel.

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	if err := Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if APIAddr() != ":8080" {
		t.Errorf("expected :8080, got %s", APIAddr())
	}
	if ReadingStore() != StoreMock || Detector() != StrategyStatistical || Summarizer() != StrategyStatistical {
		t.Errorf("unexpected strategy defaults: %s %s %s", ReadingStore(), Detector(), Summarizer())
	}
	if AnomalyThreshold() != 2.5 || RecentCount() != 20 || HistoricalCount() != 200 || MaxWindow() != 10000 {
		t.Errorf("unexpected detection defaults: %v %d %d %d", AnomalyThreshold(), RecentCount(), HistoricalCount(), MaxWindow())
	}
	if RecentHorizon() != time.Hour || LLMTimeout() != 30*time.Second {
		t.Errorf("unexpected durations: %v %v", RecentHorizon(), LLMTimeout())
	}
	if UseCloudServices() {
		t.Error("expected cloud services disabled by default")
	}
	if LogLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %v", LogLevel())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("READING_STORE", "DynamoDB")
	t.Setenv("ANOMALY_THRESHOLD", "3.5")
	t.Setenv("USE_CLOUD_SERVICES", "true")
	t.Setenv("LOG_LEVEL", "debug")

	if err := Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ReadingStore() != StoreDynamoDB {
		t.Errorf("expected dynamodb, got %s", ReadingStore())
	}
	if AnomalyThreshold() != 3.5 {
		t.Errorf("expected 3.5, got %v", AnomalyThreshold())
	}
	if !UseCloudServices() {
		t.Error("expected cloud services enabled")
	}
	if LogLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %v", LogLevel())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"READING_STORE", "firestore"},
		{"DETECTOR", "magic"},
		{"SUMMARIZER", "lambda"},
		{"ANOMALY_THRESHOLD", "0"},
		{"RECENT_COUNT", "-1"},
		{"HISTORICAL_COUNT", "20000"},
		{"MAX_WINDOW", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			viper.Reset()
			t.Setenv(tt.key, tt.value)
			if err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
