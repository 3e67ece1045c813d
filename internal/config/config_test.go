package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvPrefix+"_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/rmg", cfg.Server.BasePath)
	assert.Equal(t, int64(20240611), cfg.Dataset.Seed)
	assert.Equal(t, 1500*time.Millisecond, cfg.Chat.ReplyDelay)
	assert.Equal(t, time.Minute, cfg.Charts.CacheTTL)
	assert.False(t, cfg.Upstream.Enabled())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rmgdash.yaml")
	content := []byte(`server:
  addr: ":9000"
dataset:
  seed: 7
  manifests:
    - packs/apac.yaml
chat:
  reply_delay: 250ms
upstream:
  url: https://rmg.example.com/api
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv(EnvPrefix+"_CHARTS_THEME", "vintage")
	t.Setenv(EnvPrefix+"_UPSTREAM_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, int64(7), cfg.Dataset.Seed)
	assert.Equal(t, []string{"packs/apac.yaml"}, cfg.Dataset.Manifests)
	assert.Equal(t, 250*time.Millisecond, cfg.Chat.ReplyDelay)
	assert.Equal(t, "vintage", cfg.Charts.Theme)
	assert.True(t, cfg.Upstream.Enabled())
	assert.Equal(t, "secret", cfg.Upstream.APIKey)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{Server: ServerConfig{Addr: ":8080", BasePath: "rmg"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected base path without slash to fail")
	}
	cfg.Server.BasePath = "/rmg"
	cfg.Chat.ReplyDelay = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected negative delay to fail")
	}
	cfg.Chat.ReplyDelay = 0
	assert.NoError(t, cfg.Validate())
}
