// internal/status/encode.go
package status

// Encode converts a Snapshot into the live part of a machine status block.
// Reserved and label slots are left zero.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotDeviceKind] = s.DeviceKind
	copy(regs[SlotRecordsStart:], Words32(s.Records))
	copy(regs[SlotBytesStart:], Words64(s.Bytes))
	regs[SlotLastElapsedMs] = s.LastElapsedMs

	return regs
}

// Words32 splits v into two registers, most significant first.
func Words32(v uint32) []uint16 {
	return []uint16{uint16(v >> 16), uint16(v)}
}

// Words64 splits v into four registers, most significant first.
func Words64(v uint64) []uint16 {
	return []uint16{uint16(v >> 48), uint16(v >> 32), uint16(v >> 16), uint16(v)}
}
