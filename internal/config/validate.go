// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/sensorlink/internal/protocol"
	"github.com/tamzrod/sensorlink/internal/record"
	"github.com/tamzrod/sensorlink/internal/transport"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}

	// ------------------------------------------------------------
	// SERVER
	// ------------------------------------------------------------

	s := cfg.Server
	if s.Interface != "" {
		if _, err := transport.ParseIPv4(s.Interface); err != nil {
			return fmt.Errorf("server.interface %q: must be a dotted-quad IPv4 address", s.Interface)
		}
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("server.port %d: out of range", s.Port)
	}
	// 0 selects the default; anything else must honour the minimum
	if s.Backlog != 0 && s.Backlog < protocol.MinBacklog {
		return fmt.Errorf("server.backlog %d: must be at least %d", s.Backlog, protocol.MinBacklog)
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	m := cfg.Mirror
	if m.Endpoint != "" {
		switch m.Protocol {
		case "", "modbus", "ingest":
		default:
			return fmt.Errorf("mirror.protocol %q: must be modbus or ingest", m.Protocol)
		}

		// readings and status blocks would overlap in one memory
		if m.DataUnitID == m.StatusUnitID {
			return fmt.Errorf(
				"mirror: data_unit_id and status_unit_id must differ (both %d)",
				m.DataUnitID,
			)
		}
	}
	if m.TimeoutMs < 0 {
		return fmt.Errorf("mirror.timeout_ms %d: must not be negative", m.TimeoutMs)
	}

	// ------------------------------------------------------------
	// CLIENT
	// ------------------------------------------------------------

	c := cfg.Client
	if c.IntervalMs < 0 {
		return fmt.Errorf("client.interval_ms %d: must not be negative", c.IntervalMs)
	}
	if c.SampleTimeoutMs < 0 {
		return fmt.Errorf("client.sample_timeout_ms %d: must not be negative", c.SampleTimeoutMs)
	}
	if c.DeviceKind > uint8(record.DeviceOther) {
		return fmt.Errorf("client.device_kind %d: unknown device kind", c.DeviceKind)
	}
	if c.Count < 0 {
		return fmt.Errorf("client.count %d: must not be negative", c.Count)
	}

	switch c.Source {
	case "", "synthetic":
	case "modbus":
		if c.Modbus.Endpoint == "" {
			return fmt.Errorf("client.modbus.endpoint: required when client.source is modbus")
		}
		switch c.Modbus.FC {
		case 0, 3, 4:
		default:
			return fmt.Errorf("client.modbus.fc %d: must be 3 or 4", c.Modbus.FC)
		}
		if c.Modbus.TimeoutMs < 0 {
			return fmt.Errorf("client.modbus.timeout_ms %d: must not be negative", c.Modbus.TimeoutMs)
		}
	default:
		return fmt.Errorf("client.source %q: must be synthetic or modbus", c.Source)
	}

	return nil
}
