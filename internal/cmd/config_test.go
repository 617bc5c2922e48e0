package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Game.TickRate)
	assert.Empty(t, cfg.Relay.URL)

	sc := cfg.sessionConfig()
	assert.Equal(t, time.Second/60, sc.TickInterval)
	assert.Equal(t, time.Second, sc.CountdownInterval)
	assert.Equal(t, 8.0, sc.Physics.MaxSpeed)
}

func TestLoadConfigFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9999"
game:
  tick_rate: 30
physics:
  max_speed: 12
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Game.TickRate)
	assert.Equal(t, 12.0, cfg.Physics.MaxSpeed)
	assert.Equal(t, 0.95, cfg.Physics.Drag, "untouched tunables keep their defaults")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "nats://localhost:4222", cfg.Relay.URL)
}

func TestLoadConfigRejectsBadTickRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  tick_rate: 0\n"), 0o644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
