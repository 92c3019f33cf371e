package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TERRAMO_API_URL", "TERRAMO_TOKEN", "TERRAMO_TIMEOUT", "TERRAMO_CACHE",
		"TERRAMO_REDIS_URL", "TERRAMO_LOG_LEVEL", "TERRAMO_LOG_FORMAT",
		"TERRAMO_DEVAPI_ADDR", "TERRAMO_DEVAPI_DB", "TERRAMO_JWT_SECRET",
		"TERRAMO_LOCALE", "LANG", "TERRAMO_CORS_ORIGINS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	// Keep godotenv from picking up a developer's .env.
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, "en", cfg.Locale)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "terramo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://esg.example.com/api
  timeout: 5s
locale: de
logging:
  level: debug
`), 0o600))
	t.Setenv("TERRAMO_TOKEN", "tok")
	t.Setenv("TERRAMO_TIMEOUT", "30")
	t.Setenv("TERRAMO_CORS_ORIGINS", "https://esg.example.com,http://localhost:3000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://esg.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "tok", cfg.API.Token)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"https://esg.example.com", "http://localhost:3000"}, cfg.DevAPI.AllowedOrigins)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("TERRAMO_API_URL=http://dotenv:9000\n"), 0o600))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv:9000", cfg.API.BaseURL)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = "disk"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Cache.Backend = CacheRedis
	assert.Error(t, cfg.Validate())
	cfg.Cache.RedisURL = "redis://localhost:6379/0"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.API.Timeout = 0
	assert.Error(t, cfg.Validate())
}
