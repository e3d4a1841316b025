package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration for annald. Empty backend URLs
// select the in-memory implementations so a dev instance runs with zero
// external services.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	FeedTopic     string
	JWTSigningKey string

	ManifestCacheTTL time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("ANNAL_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("ANNAL_DATABASE_URL"),
		RedisURL:         os.Getenv("ANNAL_REDIS_URL"),
		FeedTopic:        envOr("ANNAL_FEED_TOPIC", "annal.commit-feed"),
		JWTSigningKey:    envOr("ANNAL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ManifestCacheTTL: 15 * time.Minute,
	}
	if brokers := os.Getenv("ANNAL_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if ttl := os.Getenv("ANNAL_MANIFEST_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.ManifestCacheTTL = d
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
