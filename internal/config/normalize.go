// internal/config/normalize.go
package config

import (
	"github.com/tamzrod/sensorlink/internal/idfile"
	"github.com/tamzrod/sensorlink/internal/protocol"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Interface == "" {
		cfg.Server.Interface = DefaultInterface
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = protocol.DefaultPort
	}
	if cfg.Server.Backlog == 0 {
		cfg.Server.Backlog = protocol.MinBacklog
	}

	if cfg.Mirror.Protocol == "" {
		cfg.Mirror.Protocol = DefaultMirrorProtocol
	}
	if cfg.Mirror.TimeoutMs == 0 {
		cfg.Mirror.TimeoutMs = DefaultMirrorTimeoutMs
	}

	if cfg.Client.IntervalMs == 0 {
		cfg.Client.IntervalMs = DefaultIntervalMs
	}
	if cfg.Client.SampleTimeoutMs == 0 {
		cfg.Client.SampleTimeoutMs = DefaultSampleTimeoutMs
	}

	if cfg.Client.Source == "" {
		cfg.Client.Source = DefaultSource
	}
	if cfg.Client.Modbus.FC == 0 {
		cfg.Client.Modbus.FC = DefaultSourceFC
	}
	if cfg.Client.Modbus.TimeoutMs == 0 {
		cfg.Client.Modbus.TimeoutMs = DefaultMirrorTimeoutMs
	}

	if cfg.Server.StateDir == "" {
		cfg.Server.StateDir = idfile.DefaultDir()
	}
	if cfg.Client.StateDir == "" {
		cfg.Client.StateDir = idfile.DefaultDir()
	}
}
