// internal/writer/ingest/client.go
package ingest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// ErrRejected is returned when the endpoint refuses a packet.
var ErrRejected = errors.New("ingest: packet rejected")

// Client writes register packets to a Raw Ingest v1 endpoint.
// Stateless: every packet uses its own connection.
type Client struct {
	endpoint string
	timeout  time.Duration
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("ingest: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Client{endpoint: cfg.Endpoint, timeout: cfg.Timeout}, nil
}

// Close is a no-op; there is no connection to release between packets.
func (c *Client) Close() error { return nil }

// WriteRegisters writes regs into the holding registers of unitID.
func (c *Client) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	return c.Send(Packet{
		Area:      AreaHoldingRegisters,
		UnitID:    unitID,
		Address:   addr,
		Registers: regs,
	})
}

// Send delivers one packet and waits for its status byte.
func (c *Client) Send(p Packet) error {
	pkt, err := p.MarshalBinary()
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("tcp", c.endpoint, c.timeout)
	if err != nil {
		return fmt.Errorf("ingest: dial: %w", err)
	}
	defer conn.Close()

	// one deadline covers the whole exchange
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write(pkt); err != nil {
		return fmt.Errorf("ingest: write: %w", err)
	}

	var status [1]byte
	if _, err := io.ReadFull(conn, status[:]); err != nil {
		return fmt.Errorf("ingest: read status: %w", err)
	}

	switch status[0] {
	case StatusOK:
		return nil
	case StatusRejected:
		return fmt.Errorf("%w: unit=%d addr=%d", ErrRejected, p.UnitID, p.Address)
	default:
		return fmt.Errorf("ingest: unknown status 0x%02x", status[0])
	}
}
