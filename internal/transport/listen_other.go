// internal/transport/listen_other.go

//go:build !linux

package transport

import (
	"fmt"
	"net"
	"strconv"
)

// Listen binds iface:port. Outside Linux the runtime picks the backlog
// (somaxconn or the platform equivalent); backlog is only validated.
func Listen(iface string, port int, backlog int) (net.Listener, error) {
	if iface != "" {
		if _, err := ParseIPv4(iface); err != nil {
			return nil, fmt.Errorf("transport: listen interface %q: %w", iface, err)
		}
	}
	if backlog <= 0 {
		return nil, fmt.Errorf("transport: backlog must be > 0, got %d", backlog)
	}
	return net.Listen("tcp4", net.JoinHostPort(iface, strconv.Itoa(port)))
}
