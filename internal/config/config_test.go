package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:4000", cfg.Server.Addr)
	require.Equal(t, "data/placeshare.db", cfg.Database.Path)
	require.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 10, cfg.RateLimit.Burst)
	require.Empty(t, cfg.Server.TrustedProxies)
	require.Error(t, cfg.Validate(), "missing secret must fail validation")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PLACESHARE_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("PLACESHARE_AUTH_JWTSECRET", "from-env")
	t.Setenv("PLACESHARE_AUTH_TOKENTTL", "30m")
	t.Setenv("PLACESHARE_SERVER_TRUSTEDPROXIES", "10.0.0.1,10.1.0.0/16")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	require.Equal(t, "from-env", cfg.Auth.JWTSecret)
	require.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	require.Equal(t, []string{"10.0.0.1", "10.1.0.0/16"}, cfg.Server.TrustedProxies)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "database:\n  path: /tmp/places.db\nlog:\n  format: json\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "/tmp/places.db", cfg.Database.Path)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	const key = "PLACESHARE_LOG_LEVEL"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=debug\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_BrokenConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [\n"), 0o600))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	var cfg Config
	cfg.Auth.JWTSecret = "k"
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.RPS = -1
	require.Error(t, cfg.Validate())
}
