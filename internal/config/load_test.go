// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 31000
  state_dir: /tmp/sensorlink-test
mirror:
  endpoint: 10.0.0.5:502
  protocol: ingest
  data_unit_id: 3
  status_unit_id: 4
client:
  address: 192.168.1.20
  device_kind: 1
  count: 5
debug: true
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_LayersFileOverDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 31000, cfg.Server.Port)
	assert.Equal(t, "/tmp/sensorlink-test", cfg.Server.StateDir)
	assert.Equal(t, DefaultInterface, cfg.Server.Interface)
	assert.Equal(t, 1000, cfg.Server.Backlog)

	assert.Equal(t, "10.0.0.5:502", cfg.Mirror.Endpoint)
	assert.Equal(t, "ingest", cfg.Mirror.Protocol)
	assert.Equal(t, uint8(3), cfg.Mirror.DataUnitID)
	assert.Equal(t, uint8(4), cfg.Mirror.StatusUnitID)
	assert.Equal(t, DefaultMirrorTimeoutMs, cfg.Mirror.TimeoutMs)

	assert.Equal(t, "192.168.1.20", cfg.Client.Address)
	assert.Equal(t, 29482, cfg.Client.Port)
	assert.Equal(t, uint8(1), cfg.Client.DeviceKind)
	assert.Equal(t, 5, cfg.Client.Count)
	assert.True(t, cfg.Debug)
}

func TestLoad_InvalidFileRejected(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "server:\n  backlog: 5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.backlog")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestParse_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "config.yaml", sampleYAML)

	cmd := &cobra.Command{Use: "serve"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().IntP("port", "p", 0, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--port", "32000"}))

	cfg, err := Parse(cmd)
	require.NoError(t, err)

	assert.Equal(t, 32000, cfg.Server.Port)
	assert.Equal(t, 29482, cfg.Client.Port)
	assert.Equal(t, "ingest", cfg.Mirror.Protocol)
}

func TestParse_SendBindsClientKeys(t *testing.T) {
	path := writeFile(t, "config.yaml", sampleYAML)

	cmd := &cobra.Command{Use: "send"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().IntP("port", "p", 0, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--port", "33000"}))

	cfg, err := Parse(cmd)
	require.NoError(t, err)

	assert.Equal(t, 33000, cfg.Client.Port)
	assert.Equal(t, 31000, cfg.Server.Port)
}

func TestParse_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", sampleYAML)
	t.Setenv("SENSORLINK_CONFIG", path)
	t.Setenv("SENSORLINK_CLIENT_COUNT", "9")

	cmd := &cobra.Command{Use: "send"}
	cfg, err := Parse(cmd)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Client.Count)
	assert.Equal(t, "192.168.1.20", cfg.Client.Address)
}

func TestDump_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, Dump(Default(), path, false))
	err := Dump(Default(), path, false)
	require.ErrorIs(t, err, ErrExists)
	require.NoError(t, Dump(Default(), path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Client.Address, cfg.Client.Address)
}
