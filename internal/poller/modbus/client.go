// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/sensorlink/internal/record"
	"github.com/tamzrod/sensorlink/internal/writer"
)

// Client reads a reading block from a Modbus TCP device.
// The block uses the same layout the collector mirrors readings in,
// so one collector's data memory can feed another client.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
	fc      uint8
	addr    uint16
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   uint8
	FC       uint8 // 3 holding, 4 input
	Address  uint16
	Timeout  time.Duration
}

// New creates a connected Modbus TCP client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus source: endpoint required")
	}
	if cfg.FC == 0 {
		cfg.FC = 4
	}
	if cfg.FC != 3 && cfg.FC != 4 {
		return nil, fmt.Errorf("modbus source: unsupported function code %d", cfg.FC)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
		fc:      cfg.FC,
		addr:    cfg.Address,
	}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ReadRecord reads and decodes one reading block.
func (c *Client) ReadRecord() (record.SensorRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	const qty = writer.ReadingSlotsPerDevice

	var (
		raw []byte
		err error
	)
	switch c.fc {
	case 3:
		raw, err = c.client.ReadHoldingRegisters(c.addr, qty)
	default:
		raw, err = c.client.ReadInputRegisters(c.addr, qty)
	}
	if err != nil {
		return record.SensorRecord{}, fmt.Errorf("modbus source: fc=%d addr=%d: %w", c.fc, c.addr, err)
	}
	if len(raw) != 2*qty {
		return record.SensorRecord{}, fmt.Errorf("modbus source: short read: %d bytes", len(raw))
	}

	return writer.DecodeReading(unpackRegisters(raw))
}

// ---- helpers (pure geometry) ----

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
