package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	LogLevel             string
	HTTPListenAddr       string
	StorageDriver        string
	SQLitePath           string
	DatabaseURL          string
	SessionBackend       string
	SessionIdleTimeout   time.Duration
	SessionSweepSchedule string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	RedisTLS             bool
	TurnRateLimit        int
	ClassifierBackend    string
	ClassifierThreshold  float64
	RuleConfidence       float64
	CorpusPath           string
	CorpusEncoding       string
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAITimeout        time.Duration
	FAQPath              string
	MetricsNamespace     string
	CORSOrigins          []string
}

// Load returns configuration populated from environment variables with fallbacks.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:               getenvDefault("APP_ENV", "development"),
		LogLevel:             getenvDefault("LOG_LEVEL", "info"),
		HTTPListenAddr:       getenvDefault("HTTP_LISTEN_ADDR", ":8080"),
		StorageDriver:        strings.ToLower(getenvDefault("STORAGE_DRIVER", "sqlite")),
		SQLitePath:           getenvDefault("SQLITE_PATH", "data/bankbot.db"),
		DatabaseURL:          trimmedEnv("DATABASE_URL"),
		SessionBackend:       strings.ToLower(getenvDefault("SESSION_BACKEND", "memory")),
		SessionSweepSchedule: getenvDefault("SESSION_SWEEP_SCHEDULE", "@every 1m"),
		RedisAddr:            getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        trimmedEnv("REDIS_PASSWORD"),
		ClassifierBackend:    strings.ToLower(getenvDefault("CLASSIFIER_BACKEND", "local")),
		CorpusPath:           getenvDefault("CORPUS_PATH", "data/corpus.csv"),
		CorpusEncoding:       strings.ToLower(getenvDefault("CORPUS_ENCODING", "utf-8")),
		OpenAIAPIKey:         trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:        trimmedEnv("OPENAI_BASE_URL"),
		OpenAIModel:          getenvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		FAQPath:              trimmedEnv("FAQ_PATH"),
		MetricsNamespace:     getenvDefault("METRICS_NAMESPACE", "bankbot"),
		CORSOrigins:          splitAndTrim(getenvDefault("CORS_ORIGINS", "*")),
	}

	var err error
	idle := getenvDefault("SESSION_IDLE_TIMEOUT", "30m")
	if cfg.SessionIdleTimeout, err = time.ParseDuration(idle); err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT duration: %w", err)
	}
	if cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}

	openAITimeout := getenvDefault("OPENAI_TIMEOUT", "15s")
	if cfg.OpenAITimeout, err = time.ParseDuration(openAITimeout); err != nil {
		return nil, fmt.Errorf("invalid OPENAI_TIMEOUT duration: %w", err)
	}

	if redisDBStr := getenvDefault("REDIS_DB", "0"); redisDBStr != "" {
		db, convErr := strconv.Atoi(redisDBStr)
		if convErr != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value: %w", convErr)
		}
		cfg.RedisDB = db
	}
	cfg.RedisTLS = strings.EqualFold(getenvDefault("REDIS_TLS", "false"), "true")

	limit, convErr := strconv.Atoi(getenvDefault("TURN_RATE_LIMIT", "0"))
	if convErr != nil {
		return nil, fmt.Errorf("invalid TURN_RATE_LIMIT value: %w", convErr)
	}
	if limit < 0 {
		limit = 0
	}
	cfg.TurnRateLimit = limit

	if cfg.ClassifierThreshold, err = probabilityEnv("CLASSIFIER_THRESHOLD", 0.55); err != nil {
		return nil, err
	}
	if cfg.RuleConfidence, err = probabilityEnv("RULE_CONFIDENCE", 0.70); err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	switch cfg.SessionBackend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("unsupported SESSION_BACKEND %q", cfg.SessionBackend)
	}

	switch cfg.ClassifierBackend {
	case "local", "none":
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai classifier")
		}
	default:
		return nil, fmt.Errorf("unsupported CLASSIFIER_BACKEND %q", cfg.ClassifierBackend)
	}

	switch cfg.CorpusEncoding {
	case "utf-8", "utf8", "latin1", "latin-1", "iso-8859-1":
	default:
		return nil, fmt.Errorf("unsupported CORPUS_ENCODING %q", cfg.CorpusEncoding)
	}

	return cfg, nil
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.SessionBackend == "redis" || c.TurnRateLimit > 0
}

func probabilityEnv(key string, fallback float64) (float64, error) {
	raw := trimmedEnv(key)
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	if val < 0 || val > 1 {
		return 0, fmt.Errorf("%s must be between 0 and 1", key)
	}
	return val, nil
}

func getenvDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func splitAndTrim(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}

func trimmedEnv(key string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return ""
}
