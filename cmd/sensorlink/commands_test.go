// cmd/sensorlink/commands_test.go
package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/sensorlink/internal/collector"
	"github.com/tamzrod/sensorlink/internal/config"
	"github.com/tamzrod/sensorlink/internal/idfile"
	"github.com/tamzrod/sensorlink/internal/protocol"
)

// getRootCmd registers flags on package-level commands, so it runs once.
var root = getRootCmd()

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// flag values persist on the package-level commands between runs
	for _, c := range root.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInitPrint(t *testing.T) {
	out, err := execute(t, "init", "--print")
	require.NoError(t, err)

	assert.Contains(t, out, "server:")
	assert.Contains(t, out, "port: 29482")
	assert.Contains(t, out, "status_unit_id: 2")
}

func TestInitOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensorlink", "config.yaml")

	_, err := execute(t, "init", "-o", path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, protocol.DefaultPort, cfg.Server.Port)

	_, err = execute(t, "init", "-o", path)
	require.ErrorIs(t, err, config.ErrExists)

	_, err = execute(t, "init", "-o", path, "-y")
	require.NoError(t, err)
}

func TestSendAgainstCollector(t *testing.T) {
	logger, _ := test.NewNullLogger()
	col, err := collector.New(config.ServerConfig{
		Interface: "127.0.0.1",
		Backlog:   protocol.MinBacklog,
		StateDir:  t.TempDir(),
	}, config.MirrorConfig{}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- col.Serve(ctx) }()
	defer func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("collector did not stop")
		}
		_ = col.Close()
	}()

	port := strconv.Itoa(col.Addr().(*net.TCPAddr).Port)
	state := t.TempDir()

	_, err = execute(t, "send", "127.0.0.1", port,
		"--count", "2", "--interval", "10", "--device-kind", "3", "--state-dir", state)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(state, idfile.ClientIDFile))
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(string(b)))

	m, ok := col.Registry().Meter(1)
	require.True(t, ok)
	assert.Equal(t, uint64(2), m.Records)
	assert.Equal(t, uint8(3), uint8(m.DeviceKind))
}

func TestSendRejectsInvalidAddress(t *testing.T) {
	_, err := execute(t, "send", "not-an-ip", "29482",
		"--count", "1", "--state-dir", t.TempDir())
	require.Error(t, err)
}
