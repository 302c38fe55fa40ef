package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharrohilla/ringhistory/ringbuffer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ringhistory.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
addr = ":9090"
api_key = "from-file"
history_size = 7
subscriber_queue_size = 3
heartbeat_interval = "5s"
shutdown_timeout = "1s"
`)
	t.Setenv("API_KEY", "from-env")
	t.Setenv("HISTORY_SIZE", "12")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, 12, cfg.HistorySize)
	assert.Equal(t, 3, cfg.SubscriberQueueSize)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfigRejectsBadHistorySize(t *testing.T) {
	t.Setenv("HISTORY_SIZE", "0")
	_, err := loadConfig("")
	require.ErrorIs(t, err, ringbuffer.ErrInvalidArgument)

	t.Setenv("HISTORY_SIZE", "lots")
	_, err = loadConfig("")
	require.Error(t, err)
}

func TestLoadConfigBadFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = loadConfig(writeConfig(t, `history_size = "ten"`))
	require.Error(t, err)

	_, err = loadConfig(writeConfig(t, `heartbeat_interval = "soon"`))
	require.Error(t, err)
}

func TestSubscriberQueueSizeFallsBack(t *testing.T) {
	t.Setenv("SUBSCRIBER_QUEUE_SIZE", "-4")
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.SubscriberQueueSize)
}

func TestLoadConfigRejectsNonPositiveLimits(t *testing.T) {
	_, err := loadConfig(writeConfig(t, `read_limit_bytes = 0`))
	require.ErrorContains(t, err, "read limit")

	_, err = loadConfig(writeConfig(t, `shutdown_timeout = "-1s"`))
	require.ErrorContains(t, err, "shutdown timeout")
}
