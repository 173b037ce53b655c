package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
session:
  ttl_minutes: 5
inventory:
  source: file
  file: ./parties.yaml
redis:
  enabled: true
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Session.Cleanup)
	assert.Equal(t, SourceFile, cfg.Inventory.Source)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "rooming:changes", cfg.Redis.Stream)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("INVENTORY_SOURCE", SourceBackend)
	t.Setenv("BACKEND_BASE_URL", "http://backend:3000/api")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal port=5432")
	assert.Equal(t, "http://backend:3000/api", cfg.Backend.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "malformed yaml", body: "server: [oops"},
		{name: "unknown source", body: "inventory:\n  source: carrier-pigeon\n"},
		{name: "file source without file", body: "inventory:\n  source: file\n"},
		{name: "backend source without url", body: "inventory:\n  source: backend\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}
