package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":               "www.example:8000",
		"database_dsn":            "postgres://x",
		"secret_key":              "my_secret_key",
		"access_token_ttl":        "1h",
		"reset_token_ttl":         "3h",
		"password_scheme":         "argon2id",
		"bcrypt_cost":             10,
		"users_open_registration": true,
		"backend_cors_origins":    []string{"https://a.example"},
		"health_check_interval":   5000000000,
	})

	t.Run("loads from json", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-config", path})

		assert.Equal(t, "www.example:8000", cfg.HTTPAddr)
		assert.Equal(t, ":50051", cfg.GRPCAddr, "absent key keeps default")
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
		assert.Equal(t, 3*time.Hour, cfg.ResetTokenTTL)
		assert.Equal(t, SchemeArgon2id, cfg.PasswordScheme)
		assert.Equal(t, 10, cfg.BcryptCost)
		assert.True(t, cfg.OpenRegistration)
		assert.Equal(t, []string{"https://a.example"}, cfg.CORSOrigins)
		assert.Equal(t, 5*time.Second, cfg.HealthCheckInterval)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{HTTPAddr: "defaults:1234", SecretKey: "key", AccessTokenTTL: 2 * time.Minute}
		parseJson(cfg, []string{"-a", ":1"})

		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenTTL)
	})

	t.Run("missing file panics", func(t *testing.T) {
		t.Parallel()
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", filepath.Join(dir, "nope.json")}) })
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		t.Parallel()
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", bad}) })
	})
}

func Test_parseJson_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "http_addr: \":9000\"\naccess_token_ttl: 45m\nusers_open_registration: true\nbackend_cors_origins:\n  - https://b.example\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, []string{"-c", path})

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 45*time.Minute, cfg.AccessTokenTTL)
	assert.True(t, cfg.OpenRegistration)
	assert.Equal(t, []string{"https://b.example"}, cfg.CORSOrigins)
}
