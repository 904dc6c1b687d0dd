package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type settings struct {
	ServiceName string
	LogLevel    string
	Port        string
	GRPCPort    string // empty when GRPC_PORT=off

	StorageDriver  string
	DatabaseURL    string
	MigrateOnStart bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AvailableTTL  time.Duration

	KafkaBrokers    []string
	OutboxPollEvery time.Duration
	OutboxBatchSize int

	JWTSecret            string
	TrustIdentityHeaders bool
	CORSOrigins          string
	RateLimitPerMinute   int
}

func loadSettings(l *config.Loader) (settings, error) {
	s := settings{
		ServiceName:          l.String("SERVICE_NAME", "booking-service"),
		LogLevel:             l.String("LOG_LEVEL", "info"),
		StorageDriver:        strings.ToLower(l.String("STORAGE_DRIVER", driverPostgres)),
		DatabaseURL:          l.String("DATABASE_URL", ""),
		MigrateOnStart:       l.Bool("MIGRATE_ON_START", true),
		RedisAddr:            l.String("REDIS_ADDR", ""),
		RedisPassword:        l.String("REDIS_PASSWORD", ""),
		KafkaBrokers:         kafkax.SplitBrokers(l.String("KAFKA_BROKERS", "")),
		JWTSecret:            l.String("JWT_SECRET", ""),
		TrustIdentityHeaders: l.Bool("TRUST_IDENTITY_HEADERS", false),
		CORSOrigins:          l.String("CORS_ALLOWED_ORIGINS", ""),
	}

	var err error
	if s.Port, err = l.Port("PORT", "8083"); err != nil {
		return settings{}, err
	}
	if raw := l.String("GRPC_PORT", "9083"); raw != "off" {
		if s.GRPCPort, err = l.Port("GRPC_PORT", "9083"); err != nil {
			return settings{}, err
		}
	}
	if s.RedisDB, err = l.Int("REDIS_DB", 0); err != nil {
		return settings{}, err
	}
	if s.AvailableTTL, err = l.Duration("AVAILABLE_CACHE_TTL", 5*time.Minute); err != nil {
		return settings{}, err
	}
	if s.OutboxPollEvery, err = l.Duration("OUTBOX_POLL_EVERY", 2*time.Second); err != nil {
		return settings{}, err
	}
	if s.OutboxBatchSize, err = l.Int("OUTBOX_BATCH_SIZE", 50); err != nil {
		return settings{}, err
	}
	if s.RateLimitPerMinute, err = l.Int("RATE_LIMIT_PER_MINUTE", 0); err != nil {
		return settings{}, err
	}

	switch s.StorageDriver {
	case driverPostgres:
		if s.DatabaseURL == "" {
			return settings{}, fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", driverPostgres)
		}
	case driverMemory:
	default:
		return settings{}, fmt.Errorf("STORAGE_DRIVER must be %s or %s (got %q)", driverPostgres, driverMemory, s.StorageDriver)
	}
	if s.JWTSecret == "" && !s.TrustIdentityHeaders {
		return settings{}, fmt.Errorf("JWT_SECRET is required unless TRUST_IDENTITY_HEADERS=true")
	}
	return s, nil
}
