package server_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := server.DefaultConfig()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.EqualValues(t, 2138, cfg.Port)
	assert.Equal(t, 5, cfg.MaxClients)
	assert.Equal(t, 255, cfg.BufferSize)
	assert.Equal(t, server.RejectMessage, cfg.RejectMessage)
	assert.True(t, cfg.IsolateFaults)
	assert.Equal(t, -1, cfg.CPU)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  max_clients: 16
  isolate_faults: false
log:
  level: debug
  format: console
metrics:
  addr: 127.0.0.1:9100
`)
	cfg, err := server.LoadFileConfig(path)
	require.NoError(t, err)
	assert.EqualValues(t, 9000, cfg.Server.Port)
	assert.Equal(t, 16, cfg.Server.MaxClients)
	assert.False(t, cfg.Server.IsolateFaults)
	assert.Equal(t, 255, cfg.Server.BufferSize, "unset keys keep defaults")
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
}

func TestLoadFileConfig_EmptyFileIsDefaults(t *testing.T) {
	cfg, err := server.LoadFileConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, server.DefaultFileConfig(), cfg)
}

func TestLoadFileConfig_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown key":       "server:\n  max_connections: 3\n",
		"zero capacity":     "server:\n  max_clients: 0\n",
		"port out of range": "server:\n  port: 70000\n",
		"empty host":        "server:\n  host: \"\"\n",
		"bad cpu":           "server:\n  cpu: -3\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := server.LoadFileConfig(writeConfig(t, body))
			assert.ErrorIs(t, err, api.ErrInvalidArgument)
		})
	}

	_, err := server.LoadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
