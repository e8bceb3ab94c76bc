// internal/transport/listen_linux.go

//go:build linux

package transport

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Listen binds iface:port and listens with an explicit backlog.
// net.Listen always uses the kernel default backlog, so the socket is built
// by hand and then handed to the runtime poller.
func Listen(iface string, port int, backlog int) (net.Listener, error) {
	addr := [4]byte{}
	if iface != "" {
		a, err := ParseIPv4(iface)
		if err != nil {
			return nil, fmt.Errorf("transport: listen interface %q: %w", iface, err)
		}
		addr = a
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("transport: socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("transport: setsockopt: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: addr}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("transport: bind %s: %w", endpoint(net.IP(addr[:]).String(), port), err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("transport: listen: %w", err)
	}

	f := os.NewFile(uintptr(fd), fmt.Sprintf("sensorlink-listener-%d", port))
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("transport: file listener: %w", err)
	}
	return ln, nil
}
