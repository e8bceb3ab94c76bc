// internal/writer/status_writer.go
package writer

import (
	"fmt"

	"github.com/tamzrod/sensorlink/internal/status"
)

// StatusWriter is the delivery-only contract for machine status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(machineID uint8, s status.Snapshot) error
}

// machineStatusWriter keeps the last block it knows the endpoint holds for
// each machine and only writes registers that differ from it.
type machineStatusWriter struct {
	plan Plan
	cli  endpointClient

	// nil entry => endpoint content unknown, write the full block
	held map[uint8][]uint16
}

// NewStatusWriter builds a status writer over the status memory of the plan.
func NewStatusWriter(plan Plan, cli endpointClient) StatusWriter {
	return &machineStatusWriter{
		plan: plan,
		cli:  cli,
		held: make(map[uint8][]uint16),
	}
}

// WriteStatus delivers a machine status snapshot into status memory.
// The first write for a machine, and the next write after any failure,
// re-asserts the full block including the label.
func (sw *machineStatusWriter) WriteStatus(machineID uint8, s status.Snapshot) error {
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	base := uint16(machineID) * status.SlotsPerDevice
	next := blockRegs(machineID, s)
	prev := sw.held[machineID]

	// Forget what the endpoint holds until this write succeeds.
	delete(sw.held, machineID)

	if prev == nil {
		if err := sw.cli.WriteRegisters(sw.plan.StatusUnitID, base, next); err != nil {
			return fmt.Errorf("status writer: machine %d full block: %w", machineID, err)
		}
		sw.held[machineID] = next
		return nil
	}

	for _, run := range changedRuns(prev, next) {
		if err := sw.cli.WriteRegisters(sw.plan.StatusUnitID, base+uint16(run.from), next[run.from:run.to]); err != nil {
			return fmt.Errorf("status writer: machine %d slots %d-%d: %w", machineID, run.from, run.to-1, err)
		}
	}

	sw.held[machineID] = next
	return nil
}

type slotRun struct{ from, to int }

// changedRuns returns the maximal runs of slots where a and b differ.
func changedRuns(a, b []uint16) []slotRun {
	var runs []slotRun
	for i := 0; i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		j := i + 1
		for j < len(b) && a[j] != b[j] {
			j++
		}
		runs = append(runs, slotRun{from: i, to: j})
		i = j
	}
	return runs
}

// blockRegs is the complete status block of a machine, label included.
func blockRegs(machineID uint8, s status.Snapshot) []uint16 {
	regs := status.Encode(s)
	copy(regs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1], encodeDeviceNameRegs(MachineLabel(machineID)))
	return regs
}

// MachineLabel is the label written into a machine's status block.
func MachineLabel(machineID uint8) string {
	return fmt.Sprintf("machine-%03d", machineID)
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 uint16 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > status.DeviceNameMaxChars {
		b = b[:status.DeviceNameMaxChars]
	}

	for i, c := range b {
		// sanitize to printable ASCII
		if c < 0x20 || c > 0x7E {
			c = '?'
		}
		if i%2 == 0 {
			out[i/2] |= uint16(c) << 8
		} else {
			out[i/2] |= uint16(c)
		}
	}

	return out
}
