package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igraph100/DW-Spectrum/internal/client"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	v := newViper()

	cfg := Connection(v)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.True(t, cfg.SSL)
	assert.False(t, cfg.VerifySSL)

	iv := Intervals(v)
	assert.Equal(t, 15*time.Second, iv.Devices)
	assert.Equal(t, 15*time.Second, iv.Server)
	assert.Equal(t, 30*time.Second, iv.Status)

	_, prefix, ok := Broker(v)
	assert.False(t, ok)
	assert.Equal(t, "spectrum", prefix)
}

func TestConnectionFromYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
host: " vms.local "
port: "7443"
ssl: false
username: admin
password: secret
intervals:
  devices: 1m
  status: nonsense
`), 0o600))

	v := newViper()
	v.SetConfigFile(file)
	require.NoError(t, v.ReadInConfig())

	cfg := Connection(v)
	assert.Equal(t, client.ClientConfig{Host: "vms.local", Port: 7443, Username: "admin", Password: "secret"}, cfg)
	assert.NoError(t, Validate(cfg))
	assert.Equal(t, "vms.local_7443", InstanceName(v))

	iv := Intervals(v)
	assert.Equal(t, time.Minute, iv.Devices)
	assert.Zero(t, iv.Status)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(client.ClientConfig{Port: 7001, Username: "a"}))
	assert.Error(t, Validate(client.ClientConfig{Host: "h", Port: 0, Username: "a"}))
	assert.Error(t, Validate(client.ClientConfig{Host: "h", Port: 7001}))
	assert.NoError(t, Validate(client.ClientConfig{Host: "h", Port: 7001, Username: "a"}))
}

func TestSaveConnectionKeepsClientID(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cfg.yaml")

	v := newViper()
	v.SetConfigFile(file)
	require.NoError(t, SaveConnection(v, client.ClientConfig{Host: "vms", Port: 7001, Username: "admin", Password: "pw"}))

	r := newViper()
	r.SetConfigFile(file)
	require.NoError(t, r.ReadInConfig())
	cfg := Connection(r)
	assert.Equal(t, "vms", cfg.Host)
	assert.Equal(t, "pw", cfg.Password)
	require.NotEmpty(t, cfg.ClientID)

	// Saving again keeps the generated id.
	require.NoError(t, SaveConnection(r, cfg))
	again := newViper()
	again.SetConfigFile(file)
	require.NoError(t, again.ReadInConfig())
	assert.Equal(t, cfg.ClientID, Connection(again).ClientID)
}

func TestStateDirAndInstance(t *testing.T) {
	v := newViper()
	v.Set("state_dir", "/tmp/x")
	v.Set("instance", "site-a")

	dir, err := StateDir(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", dir)
	assert.Equal(t, "site-a", InstanceName(v))
}
