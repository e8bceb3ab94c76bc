// internal/transport/validate.go
package transport

import (
	"errors"
	"strconv"
	"strings"
)

// ParseIPv4 parses dotted-quad text into its four octets.
func ParseIPv4(address string) ([4]byte, error) {
	var out [4]byte

	parts := strings.Split(address, ".")
	if len(parts) != 4 {
		return out, errors.New("transport: address must have four octets")
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return out, errors.New("transport: address octet out of range: " + strconv.Quote(p))
		}
		out[i] = byte(v)
	}
	return out, nil
}

// CheckValid reports whether address is a dotted-quad IPv4 and port parses
// as an integer. Empty strings stand for missing values. No connection is
// attempted.
func CheckValid(address, port string) bool {
	if address == "" || port == "" {
		return false
	}
	if _, err := strconv.Atoi(port); err != nil {
		return false
	}
	if _, err := ParseIPv4(address); err != nil {
		return false
	}
	return true
}
