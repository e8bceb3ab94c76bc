// internal/transport/client.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/sensorlink/internal/protocol"
	"github.com/tamzrod/sensorlink/internal/record"
)

// Client sends one record per connection and waits for the 2-byte reply.
// Stateless: no retries, no pooling, no timeouts beyond the platform connect
// timeout and the caller's context.
type Client struct {
	dialer net.Dialer
	log    log.FieldLogger
}

// NewClient returns a client that logs failure detail to logger.
// A nil logger uses the logrus standard logger.
func NewClient(logger log.FieldLogger) *Client {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{log: logger}
}

// Send delivers data to address:port. Failures never escape as errors; they
// are folded into the response code:
//
//	connect failed          -> CouldNotConnect, 0
//	write failed            -> GotNoResponse, 0
//	reply unreadable/unknown -> GotWrongResponse, 0
//
// The returned id is only meaningful with AllOk.
func (c *Client) Send(ctx context.Context, address string, port int, data []byte) (protocol.ResponseCode, uint8) {
	reply, err := c.exchange(ctx, address, port, data)
	if err != nil {
		c.log.WithField("endpoint", endpoint(address, port)).Debugf("send failed: %v", err)

		switch {
		case errors.Is(err, protocol.ErrConnectFailure):
			return protocol.CouldNotConnect, 0
		case errors.Is(err, protocol.ErrSendFailure):
			return protocol.GotNoResponse, 0
		default:
			return protocol.GotWrongResponse, 0
		}
	}
	return reply.Code, reply.MachineID
}

// SendRecord encodes r in the binary layout and sends it.
func (c *Client) SendRecord(ctx context.Context, address string, port int, r record.SensorRecord) (protocol.ResponseCode, uint8) {
	return c.Send(ctx, address, port, record.EncodeBinary(r))
}

func (c *Client) exchange(ctx context.Context, address string, port int, data []byte) (protocol.Reply, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", endpoint(address, port))
	if err != nil {
		return protocol.Reply{}, fmt.Errorf("transport: dial: %v: %w", err, protocol.ErrConnectFailure)
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		return protocol.Reply{}, fmt.Errorf("transport: write: %v: %w", err, protocol.ErrSendFailure)
	}

	var resp [protocol.ReplySize]byte
	if _, err := io.ReadFull(conn, resp[:]); err != nil {
		return protocol.Reply{}, fmt.Errorf("transport: read reply: %w", err)
	}

	return protocol.DecodeReply(resp[:])
}

func endpoint(address string, port int) string {
	return net.JoinHostPort(address, strconv.Itoa(port))
}
