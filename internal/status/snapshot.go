// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver for one machine.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health        uint16
	DeviceKind    uint16
	Records       uint32
	Bytes         uint64
	LastElapsedMs uint16
}

// ElapsedMs converts a latency in seconds to the saturating slot value.
// Negative input means "unknown".
func ElapsedMs(seconds float64) uint16 {
	if seconds < 0 {
		return ElapsedUnknown
	}
	ms := seconds * 1000
	if ms >= float64(ElapsedUnknown) {
		return ElapsedUnknown - 1
	}
	return uint16(ms)
}
