// internal/writer/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// MaxWriteRegisters is the FC16 per-request register limit.
const MaxWriteRegisters = 123

// Client is one Modbus TCP connection to a register memory endpoint.
// Calls are serialized; the unit id is switched per write.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Dial connects to the endpoint.
func Dial(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus mirror: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus mirror: connect %s: %w", cfg.Endpoint, err)
	}

	return &Client{handler: h, client: modbus.NewClient(h)}, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteRegisters writes holding registers (FC16), split into as many
// requests as the protocol limit requires.
func (c *Client) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	for len(regs) > 0 {
		n := len(regs)
		if n > MaxWriteRegisters {
			n = MaxWriteRegisters
		}

		payload := make([]byte, 0, 2*n)
		for _, r := range regs[:n] {
			payload = binary.BigEndian.AppendUint16(payload, r)
		}

		if _, err := c.client.WriteMultipleRegisters(addr, uint16(n), payload); err != nil {
			return fmt.Errorf("modbus mirror: unit=%d addr=%d qty=%d: %w", unitID, addr, n, err)
		}

		addr += uint16(n)
		regs = regs[n:]
	}
	return nil
}
