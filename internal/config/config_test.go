package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so a developer's .env
// cannot leak into it.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "STORE_BACKEND", "REDIS_URL", "CORS_ORIGINS", "S3_BUCKET", "LOG_LEVEL",
		"JWT_SECRET", "RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BURST", "MIGRATE_ON_START", "DATABASE_URL",
		"DB_MAX_CONNS", "DB_MIN_CONNS",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 120, cfg.RateLimit.PerMinute)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.S3.Bucket)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, PoolConfig{MaxConns: 25, MinConns: 5}, cfg.DBPool)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = "9000"
store_backend = "memory"
jwt_secret = "from-file"

[rate_limit]
per_minute = 30

[s3]
bucket = "images"
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 30, cfg.RateLimit.PerMinute)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "images", cfg.S3.Bucket)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "secret")

	t.Setenv("RATE_LIMIT_BURST", "many")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "RATE_LIMIT_BURST")

	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("STORE_BACKEND", "sqlite")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "STORE_BACKEND")

	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("DB_MIN_CONNS", "8")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "DB_MIN_CONNS")
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
