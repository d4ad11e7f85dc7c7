// Package config centralizes the environment variables linkmind reads at
// startup, the way the teacher's cmd/* mains each call godotenv.Load()
// followed by scattered os.Getenv calls -- gathered here into one struct so
// every binary reads the same names the same way.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL    string
	RedisURL       string
	SessionSecret  string
	WebBaseURL     string
	LogLevel       string
	LogFile        string
	OpenAIAPIKey   string
	AnthropicAPIKey string

	ProbeEventTTL time.Duration
	WorkerCount   int
}

// Load reads every variable from the environment. It does not call
// godotenv.Load itself -- callers do that first in main, same as the
// teacher's cmd/api, cmd/fetcher, cmd/transformer, cmd/summarizer all do.
func Load() Config {
	return Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		WebBaseURL:      getEnvDefault("WEB_BASE_URL", "http://localhost:8080"),
		LogLevel:        getEnvDefault("LOG_LEVEL", "info"),
		LogFile:         os.Getenv("LOG_FILE"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		ProbeEventTTL:   getEnvDurationSeconds("PROBE_EVENT_TTL_SECONDS", 600),
		WorkerCount:     getEnvInt("WORKER_COUNT", 2),
	}
}

func getEnvDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getEnvInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDurationSeconds(name string, defSeconds int) time.Duration {
	return time.Duration(getEnvInt(name, defSeconds)) * time.Second
}
