package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	DatabaseURL     string
	JWTSigningKey   string
	JWTIssuer       string
	SeedDemoData    bool
	ShutdownTimeout time.Duration

	Log    LogConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Outbox OutboxConfig
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// RedisConfig configures the district cache connection. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the audit topic the outbox relay publishes to.
// No brokers means the relay is not started.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real environment
// variables win over it.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	cacheTTL, err := durationEnv("DISTRICT_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return Server{}, err
	}
	pollInterval, err := durationEnv("OUTBOX_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Server{}, err
	}
	batchSize, err := intEnv("OUTBOX_BATCH_SIZE", 100)
	if err != nil {
		return Server{}, err
	}

	return Server{
		Addr:            stringEnv("MEMBERPANEL_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSigningKey:   jwtSigningKey,
		JWTIssuer:       stringEnv("JWT_ISSUER", "memberpanel"),
		SeedDemoData:    os.Getenv("SEED_DEMO_DATA") == "true",
		ShutdownTimeout: 10 * time.Second,
		Log: LogConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     cacheTTL,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   stringEnv("AUDIT_TOPIC", "panel-user-audit"),
		},
		Outbox: OutboxConfig{
			PollInterval: pollInterval,
			BatchSize:    batchSize,
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
