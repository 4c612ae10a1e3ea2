package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClientConfigDefaults(t *testing.T) {
	for _, k := range []string{"EVENTOPS_API_URL", "EVENTOPS_TIMEOUT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := LoadClientConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}

func TestLoadClientConfigErrors(t *testing.T) {
	t.Setenv("EVENTOPS_TIMEOUT", "soon")
	_, err := LoadClientConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")

	t.Setenv("EVENTOPS_TIMEOUT", "-1s")
	_, err = LoadClientConfig()
	require.Error(t, err)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	t.Setenv("CACHE_TTL", "bogus")
	t.Setenv("CACHE_INVALIDATE_ON_WRITE", "off")

	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.False(t, cfg.InvalidateOnWrite)
	assert.True(t, cfg.Enabled)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, 3, cfg.WriteCost)

	t.Setenv("RATE_LIMIT_WRITE_COST", "-4")
	assert.Equal(t, 1, LoadRateLimitConfig().WriteCost)
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("EVENTOPS_TEST_A=from-file\nEVENTOPS_TEST_B=from-file\n"), 0o600))
	t.Setenv("EVENTOPS_TEST_A", "from-env")
	os.Unsetenv("EVENTOPS_TEST_B")
	t.Cleanup(func() { os.Unsetenv("EVENTOPS_TEST_B") })

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))
	assert.Equal(t, "from-env", os.Getenv("EVENTOPS_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("EVENTOPS_TEST_B"))
}

func TestAMQPURLPrecedence(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://b")
	assert.Equal(t, "amqp://b", AMQPURL())
	t.Setenv("RABBITMQ_URL", "amqp://a")
	assert.Equal(t, "amqp://a", AMQPURL())
}

func TestLoadMemoryStorageSkipsDatabase(t *testing.T) {
	for _, k := range []string{"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8000")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("SEED_FILE", "seed.yaml")

	cfg := Load()
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "seed.yaml", cfg.SeedFile)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Empty(t, cfg.DBHost)
}
