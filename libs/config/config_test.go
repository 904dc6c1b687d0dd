package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SLOTBOOK_TEST_PORT", "8083")
	t.Setenv("SLOTBOOK_TEST_TTL", "90s")
	t.Setenv("SLOTBOOK_TEST_BATCH", "25")
	t.Setenv("SLOTBOOK_TEST_FLAG", "off")
	t.Setenv("SLOTBOOK_TEST_EMPTY", "  ")

	l, err := Load()
	require.NoError(t, err)

	port, err := l.Port("SLOTBOOK_TEST_PORT", "1")
	require.NoError(t, err)
	assert.Equal(t, "8083", port)

	ttl, err := l.Duration("SLOTBOOK_TEST_TTL", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, ttl)

	n, err := l.Int("SLOTBOOK_TEST_BATCH", 50)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	assert.False(t, l.Bool("SLOTBOOK_TEST_FLAG", true))
	assert.True(t, l.Bool("SLOTBOOK_TEST_MISSING", true))
	assert.Equal(t, "fallback", l.String("SLOTBOOK_TEST_EMPTY", "fallback"))

	_, err = l.RequiredString("SLOTBOOK_TEST_MISSING")
	assert.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SLOTBOOK_TEST_PORT", "99999")
	t.Setenv("SLOTBOOK_TEST_TTL", "soon")

	l, err := Load()
	require.NoError(t, err)

	_, err = l.Port("SLOTBOOK_TEST_PORT", "8083")
	assert.Error(t, err)
	_, err = l.Duration("SLOTBOOK_TEST_TTL", time.Minute)
	assert.Error(t, err)
}

func TestConfigFileUnderEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "booking.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: \"9000\"\nstorage_driver: memory\n"), 0o600))

	t.Setenv("CONFIG_FILE", file)
	t.Setenv("PORT", "9100")

	l, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", l.String("PORT", ""))
	assert.Equal(t, "memory", l.String("STORAGE_DRIVER", "postgres"))
}

func TestMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
