package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultravionic/cozyui/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COZYUI_AUTH_SECRET", "test-secret")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 60*time.Second, cfg.Collab.IdleTimeout.Std())
	assert.Equal(t, 256, cfg.Collab.SendBuffer)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cozyui.yaml")
	content := `
server:
  addr: ":9000"
redis:
  addr: "redis:6379"
  db: 2
collab:
  idle_timeout: 45s
  send_buffer: 64
auth:
  secret: "file-secret"
  token_ttl: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 45*time.Second, cfg.Collab.IdleTimeout.Std())
	assert.Equal(t, 64, cfg.Collab.SendBuffer)
	assert.Equal(t, "file-secret", cfg.Auth.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL.Std())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COZYUI_ADDR", ":7777")
	t.Setenv("COZYUI_REDIS_ADDR", "override:6379")
	t.Setenv("COZYUI_AUTH_SECRET", "env-secret")
	t.Setenv("COMFYUI_API_URL", "http://comfy.local:8188")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "override:6379", cfg.Redis.Addr)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	assert.Equal(t, "http://comfy.local:8188", cfg.Comfy.URL)
}

func TestLoad_RequiresAuthSecret(t *testing.T) {
	t.Setenv("COZYUI_AUTH_SECRET", "")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.secret")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("COZYUI_AUTH_SECRET", "test-secret")

	path := filepath.Join(t.TempDir(), "cozyui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collab:\n  idle_timeout: soon\n"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	t.Setenv("COZYUI_AUTH_SECRET", "test-secret")

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
}
