package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/slotbook/libs/config"
)

func load(t *testing.T, env map[string]string) (settings, error) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "GRPC_PORT", "STORAGE_DRIVER", "DATABASE_URL", "JWT_SECRET",
		"TRUST_IDENTITY_HEADERS", "AVAILABLE_CACHE_TTL", "KAFKA_BROKERS", "OUTBOX_BATCH_SIZE",
	} {
		t.Setenv(k, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	l, err := config.Load()
	require.NoError(t, err)
	return loadSettings(l)
}

func TestDefaults(t *testing.T) {
	s, err := load(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/slotbook",
		"JWT_SECRET":   "s",
	})
	require.NoError(t, err)
	assert.Equal(t, "8083", s.Port)
	assert.Equal(t, "9083", s.GRPCPort)
	assert.Equal(t, driverPostgres, s.StorageDriver)
	assert.True(t, s.MigrateOnStart)
	assert.Equal(t, 5*time.Minute, s.AvailableTTL)
	assert.Equal(t, 50, s.OutboxBatchSize)
	assert.Empty(t, s.KafkaBrokers)
}

func TestMemoryDriverWithHeaderIdentity(t *testing.T) {
	s, err := load(t, map[string]string{
		"STORAGE_DRIVER":         "memory",
		"TRUST_IDENTITY_HEADERS": "true",
		"GRPC_PORT":              "off",
		"KAFKA_BROKERS":          "k1:9092,k2:9092",
	})
	require.NoError(t, err)
	assert.Equal(t, driverMemory, s.StorageDriver)
	assert.Empty(t, s.GRPCPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, s.KafkaBrokers)
}

func TestInvalidSettings(t *testing.T) {
	_, err := load(t, map[string]string{"JWT_SECRET": "s"})
	assert.Error(t, err, "postgres without DATABASE_URL")

	_, err = load(t, map[string]string{"STORAGE_DRIVER": "sqlite", "JWT_SECRET": "s"})
	assert.Error(t, err)

	_, err = load(t, map[string]string{"STORAGE_DRIVER": "memory"})
	assert.Error(t, err, "no identity source")

	_, err = load(t, map[string]string{"STORAGE_DRIVER": "memory", "JWT_SECRET": "s", "AVAILABLE_CACHE_TTL": "often"})
	assert.Error(t, err)
}
