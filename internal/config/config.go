package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the support chat service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	DatabaseURL string

	MemoryWindow         int
	KnowledgeSampleLimit int
	KnowledgeSeedFile    string

	IntentCatalogFile         string
	IntentConfidenceThreshold float64

	LLMMode        string
	LLMURL         string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMTimeout     time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "sabia"),
		AllowAnyOrigin:   false,
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),

		MemoryWindow:         10,
		KnowledgeSampleLimit: 5,
		KnowledgeSeedFile:    stringsTrimSpace("KNOWLEDGE_SEED_FILE"),

		IntentCatalogFile:         stringsTrimSpace("INTENT_CATALOG_FILE"),
		IntentConfidenceThreshold: 0.6,

		LLMMode:   envOrDefault("LLM_MODE", "auto"),
		LLMURL:    stringsTrimSpace("LLM_URL"),
		LLMAPIKey: stringsTrimSpace("LLM_API_KEY"),
		// Low temperature on purpose: support answers should be consistent,
		// not creative.
		LLMModel:       envOrDefault("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature: 0.2,
		LLMTimeout:     30 * time.Second,

		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryWindow, err = intFromEnv("MEMORY_WINDOW", cfg.MemoryWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.KnowledgeSampleLimit, err = intFromEnv("KNOWLEDGE_SAMPLE_LIMIT", cfg.KnowledgeSampleLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.IntentConfidenceThreshold, err = floatFromEnv("INTENT_CONFIDENCE_THRESHOLD", cfg.IntentConfidenceThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTemperature, err = floatFromEnv("LLM_TEMPERATURE", cfg.LLMTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.MemoryWindow <= 0 {
		return Config{}, fmt.Errorf("MEMORY_WINDOW must be positive")
	}
	if cfg.KnowledgeSampleLimit <= 0 {
		return Config{}, fmt.Errorf("KNOWLEDGE_SAMPLE_LIMIT must be positive")
	}
	if cfg.IntentConfidenceThreshold <= 0 || cfg.IntentConfidenceThreshold > 1 {
		return Config{}, fmt.Errorf("INTENT_CONFIDENCE_THRESHOLD must be in (0,1]")
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
		return Config{}, fmt.Errorf("LLM_TEMPERATURE must be in [0,2]")
	}
	if cfg.LLMTimeout <= 0 {
		return Config{}, fmt.Errorf("LLM_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
