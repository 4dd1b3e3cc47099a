package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "piggybank", cfg.Scan.NameFilter)
	assert.False(t, cfg.Scan.AutoScan)
	assert.Equal(t, 10, cfg.Scan.TimeoutSeconds)
	assert.True(t, cfg.UI.ShowDisconnectButton)
	assert.True(t, cfg.UI.CollectExtendedInfo)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
scan:
  auto_scan: true
  name_filter: ""
  timeout_seconds: 5
ui:
  show_disconnect_button: false
log_level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Scan.AutoScan)
	assert.Empty(t, cfg.Scan.NameFilter, "empty filter means accept all devices")
	assert.Equal(t, 5*time.Second, cfg.ScanTimeout())
	assert.False(t, cfg.UI.ShowDisconnectButton)
	assert.True(t, cfg.UI.CollectExtendedInfo, "unset fields keep their defaults")
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: ["), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Scan.TimeoutSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}
