// Package config loads server configuration from the environment and
// scoring profiles from YAML files.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds verdictd server configuration.
type Config struct {
	Port     string
	LogLevel string

	// DatabaseURL selects the postgres result store. Empty falls back to
	// the embedded sqlite store at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// RedisAddr selects the shared result cache. Empty falls back to the
	// in-process memory cache.
	RedisAddr string

	// KafkaBrokers enables audit publication when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	RulesDir       string
	ProfilesDir    string
	ScoringProfile string

	// Jurisdiction narrows rule applicability. Empty applies every rule.
	Jurisdiction string

	MaxConcurrent int
	ModuleTimeout time.Duration
	CacheSize     int
	CacheTTL      time.Duration

	RateRPS   int
	RateBurst int

	ReceiptIssuer   string
	ReceiptAudience string
	ReceiptTTL      time.Duration

	OTLPEndpoint   string
	TracingEnabled bool
	Environment    string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getenvDefault("PORT", "8080"),
		LogLevel: getenvDefault("LOG_LEVEL", "INFO"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getenvDefault("VERDICT_SQLITE_PATH", "verdict.db"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		AuditTopic:   getenvDefault("VERDICT_AUDIT_TOPIC", "verdict.audit"),

		RulesDir:       getenvDefault("VERDICT_RULES_DIR", "rules"),
		ProfilesDir:    getenvDefault("VERDICT_PROFILES_DIR", "profiles"),
		ScoringProfile: os.Getenv("VERDICT_SCORING_PROFILE"),

		Jurisdiction: os.Getenv("VERDICT_JURISDICTION"),

		MaxConcurrent: getenvIntDefault("VERDICT_MAX_CONCURRENT", 100),
		ModuleTimeout: time.Duration(getenvIntDefault("VERDICT_MODULE_TIMEOUT_MS", 30000)) * time.Millisecond,
		CacheSize:     getenvIntDefault("VERDICT_CACHE_SIZE", 1000),
		CacheTTL:      time.Duration(getenvIntDefault("VERDICT_CACHE_TTL_SECONDS", 3600)) * time.Second,

		RateRPS:   getenvIntDefault("VERDICT_RATE_RPS", 50),
		RateBurst: getenvIntDefault("VERDICT_RATE_BURST", 100),

		ReceiptIssuer:   getenvDefault("VERDICT_RECEIPT_ISSUER", "verdict"),
		ReceiptAudience: getenvDefault("VERDICT_RECEIPT_AUDIENCE", "verdict-clients"),
		ReceiptTTL:      time.Duration(getenvIntDefault("VERDICT_RECEIPT_TTL_HOURS", 720)) * time.Hour,

		OTLPEndpoint:   getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: os.Getenv("VERDICT_TRACING") == "true",
		Environment:    getenvDefault("VERDICT_ENV", "development"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
