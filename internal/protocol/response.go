// internal/protocol/response.go
package protocol

import "fmt"

// ResponseCode is the outcome of one client send. The ordinal is the first
// byte of the server reply.
type ResponseCode uint8

const (
	CouldNotConnect ResponseCode = iota
	GotNoResponse
	GotWrongResponse
	AllOk
)

func (c ResponseCode) String() string {
	switch c {
	case CouldNotConnect:
		return "CouldNotConnect"
	case GotNoResponse:
		return "GotNoResponse"
	case GotWrongResponse:
		return "GotWrongResponse"
	case AllOk:
		return "AllOk"
	default:
		return fmt.Sprintf("ResponseCode(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the four defined ordinals.
func (c ResponseCode) Valid() bool {
	return c <= AllOk
}

// Reply is the 2-byte server acknowledgement.
// MachineID is only meaningful when Code is AllOk.
type Reply struct {
	Code      ResponseCode
	MachineID uint8
}

// EncodeReply packs a reply as [status ordinal, machine id].
func EncodeReply(r Reply) []byte {
	return []byte{byte(r.Code), r.MachineID}
}

// DecodeReply unpacks a 2-byte reply. Unknown ordinals are rejected.
func DecodeReply(b []byte) (Reply, error) {
	if len(b) != ReplySize {
		return Reply{}, fmt.Errorf("protocol: reply must be %d bytes, got %d", ReplySize, len(b))
	}
	code := ResponseCode(b[0])
	if !code.Valid() {
		return Reply{}, fmt.Errorf("protocol: unknown response code %d", b[0])
	}
	return Reply{Code: code, MachineID: b[1]}, nil
}

// Failure is the reply sent for every per-connection failure on the server.
var Failure = Reply{Code: GotWrongResponse, MachineID: UnassignedMachineID}
