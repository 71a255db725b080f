package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"ADDR", "API_BASE", "CLOUD_BASE_URL", "CLOUD_TIMEOUT_SECONDS", "RANGES_REFRESH_SECONDS",
	"RANGES_SINGLE_FLIGHT", "STATS_ENABLED", "REDIS_ENABLED", "RATE_LIMIT_ENABLED", "RATE_LIMIT_QPS",
	"TLS_ENABLE", "TLS_CERT_PATH", "TLS_KEY_PATH",
}

func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	c := FromEnv()
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "/api", c.APIBase)
	assert.Equal(t, DefaultBaseURL, c.CloudBaseURL)
	assert.Equal(t, 5*time.Second, c.CloudTimeout)
	assert.Equal(t, time.Hour, c.RefreshInterval)
	assert.False(t, c.SingleFlight)
	assert.False(t, c.RateLimitEnabled)
	assert.Equal(t, 200, c.RateLimitQPS)
	assert.False(t, c.TLSEnable)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE", "v1/")
	t.Setenv("CLOUD_BASE_URL", "http://127.0.0.1:9000")
	t.Setenv("RANGES_REFRESH_SECONDS", "60")
	t.Setenv("RANGES_SINGLE_FLIGHT", "true")
	t.Setenv("RATE_LIMIT_QPS", "-3")
	t.Setenv("STATS_ENABLED", "not-a-bool")

	c := FromEnv()
	assert.Equal(t, "/v1", c.APIBase)
	assert.Equal(t, "http://127.0.0.1:9000", c.CloudBaseURL)
	assert.Equal(t, time.Minute, c.RefreshInterval)
	assert.True(t, c.SingleFlight)
	assert.Equal(t, 200, c.RateLimitQPS)
	assert.False(t, c.StatsEnabled)
}

func TestAPIBaseRoot(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE", "/")
	assert.Equal(t, "", FromEnv().APIBase)
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ADDR=:9999\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("ADDR")
	})
	require.NoError(t, os.Unsetenv("ADDR"))

	Load()
	assert.Equal(t, ":9999", FromEnv().Addr)
}
