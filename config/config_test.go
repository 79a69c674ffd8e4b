package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "server.yaml", `
server_name: demo
server_version: "1.0.0"
logger_level: debug
client_timeout_ms: 5000
async_dispatch: true
transport:
  type: http
  address: 127.0.0.1:8800
  allowed_origins:
    - http://localhost:3000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.ServerName)
	assert.Equal(t, "1.0.0", cfg.ServerVersion)
	assert.Equal(t, 5*time.Second, cfg.ClientTimeout())
	assert.True(t, cfg.AsyncDispatch)
	assert.Equal(t, "http", cfg.Transport.Type)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Transport.AllowedOrigins)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "server.json", `{
  "server_name": "demo",
  "server_version": "2",
  "transport": {"type": "stdio"}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.ServerName)
	assert.Equal(t, "stdio", cfg.Transport.Type)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "server.toml", `server_name = "x"`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", `transport: {type: stdio}`))
	assert.ErrorContains(t, err, "server_name")

	_, err = Load(writeFile(t, "bad2.yaml", "server_name: x\ntransport: {type: http}"))
	assert.ErrorContains(t, err, "address")

	_, err = Load(writeFile(t, "bad3.yaml", "server_name: x\ntransport: {type: carrier-pigeon}"))
	assert.ErrorContains(t, err, "unknown transport type")
}
