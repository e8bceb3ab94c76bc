// internal/writer/ingest/packet.go
package ingest

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Raw Ingest v1 packet layout (LOCKED):
//
//	0–1  magic "RI"
//	2    version (0x01)
//	3    area
//	4–5  unit id
//	6–7  address
//	8–9  register count
//	10+  registers, big-endian
const (
	HeaderSize = 10
	Version1   = 0x01

	// AreaHoldingRegisters is the only area this client writes.
	AreaHoldingRegisters byte = 3
)

var magic = [2]byte{'R', 'I'}

// Status bytes returned by the endpoint, one per packet.
const (
	StatusOK       byte = 0x00
	StatusRejected byte = 0x01
)

var errShortPacket = errors.New("ingest: short packet")

// Packet is one register write.
type Packet struct {
	Area      byte
	UnitID    uint8
	Address   uint16
	Registers []uint16
}

// MarshalBinary encodes p in the v1 layout.
func (p Packet) MarshalBinary() ([]byte, error) {
	if len(p.Registers) > 0xFFFF {
		return nil, fmt.Errorf("ingest: %d registers exceed one packet", len(p.Registers))
	}

	b := make([]byte, 0, HeaderSize+2*len(p.Registers))
	b = append(b, magic[0], magic[1], Version1, p.Area)
	b = binary.BigEndian.AppendUint16(b, uint16(p.UnitID))
	b = binary.BigEndian.AppendUint16(b, p.Address)
	b = binary.BigEndian.AppendUint16(b, uint16(len(p.Registers)))
	for _, r := range p.Registers {
		b = binary.BigEndian.AppendUint16(b, r)
	}
	return b, nil
}

// UnmarshalBinary decodes one complete packet.
func (p *Packet) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return errShortPacket
	}
	if b[0] != magic[0] || b[1] != magic[1] {
		return fmt.Errorf("ingest: bad magic %q", b[0:2])
	}
	if b[2] != Version1 {
		return fmt.Errorf("ingest: unsupported version %d", b[2])
	}

	unit := binary.BigEndian.Uint16(b[4:6])
	if unit > 0xFF {
		return fmt.Errorf("ingest: unit id %d out of range", unit)
	}
	count := int(binary.BigEndian.Uint16(b[8:10]))
	if len(b) != HeaderSize+2*count {
		return fmt.Errorf("ingest: %d bytes for %d registers", len(b), count)
	}

	p.Area = b[3]
	p.UnitID = uint8(unit)
	p.Address = binary.BigEndian.Uint16(b[6:8])
	p.Registers = make([]uint16, count)
	for i := range p.Registers {
		p.Registers[i] = binary.BigEndian.Uint16(b[HeaderSize+2*i:])
	}
	return nil
}

// PayloadLen reads the register count from a header and returns the number
// of payload bytes that follow it.
func PayloadLen(header []byte) (int, error) {
	if len(header) < HeaderSize {
		return 0, errShortPacket
	}
	return 2 * int(binary.BigEndian.Uint16(header[8:10])), nil
}
