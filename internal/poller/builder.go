// internal/poller/builder.go
package poller

import (
	"fmt"
	"time"

	cfg "github.com/tamzrod/sensorlink/internal/config"
	pmodbus "github.com/tamzrod/sensorlink/internal/poller/modbus"
)

// BuildSources constructs the sensor sources named by c and wires their
// lifecycle. The returned closer releases any device connection.
func BuildSources(c cfg.ClientConfig) (Sources, func() error, error) {
	switch c.Source {
	case "", "synthetic":
		return NewSynthetic(0).Sources(), func() error { return nil }, nil

	case "modbus":
		// initial client (fail fast at startup)
		client, err := pmodbus.New(pmodbus.Config{
			Endpoint: c.Modbus.Endpoint,
			UnitID:   c.Modbus.UnitID,
			FC:       c.Modbus.FC,
			Address:  c.Modbus.Address,
			Timeout:  time.Duration(c.Modbus.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return Sources{}, nil, err
		}
		return FromBlock(client), client.Close, nil

	default:
		return Sources{}, nil, fmt.Errorf("poller: unknown source %q", c.Source)
	}
}
