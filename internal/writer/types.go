// internal/writer/types.go
package writer

import "github.com/tamzrod/sensorlink/internal/record"

// Protocols an endpoint client can speak.
const (
	ProtocolModbus = "modbus"
	ProtocolIngest = "ingest"
)

// Plan is the fully-built mirror plan.
type Plan struct {
	Endpoint string
	Protocol string

	// DataUnitID receives the latest reading of every machine.
	DataUnitID uint8

	// StatusUnitID receives the per-machine status blocks.
	StatusUnitID uint8
}

// Writer writes the latest reading of a machine into register memory.
type Writer interface {
	Write(machineID uint8, r record.SensorRecord) error
}

// endpointClient is the exact contract the writers use.
// Implemented by writer/modbus and writer/ingest.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
