// internal/registry/meter.go
package registry

import (
	"time"

	"github.com/tamzrod/sensorlink/internal/record"
)

// Meter is the in-memory traffic account of one machine.
// It is lost on restart.
type Meter struct {
	MachineID  uint8
	DeviceKind record.DeviceKind

	Bytes    uint64
	Records  uint64
	LastSeen time.Time

	// Receive latency in seconds.
	LastElapsed    float64
	MinElapsed     float64
	MaxElapsed     float64
	TotalElapsed   float64
	TimedSamples   uint64
	UnknownTimings uint64
}

// MeanElapsed is the average of the reliable latency samples, or -1 if none.
func (m Meter) MeanElapsed() float64 {
	if m.TimedSamples == 0 {
		return -1
	}
	return m.TotalElapsed / float64(m.TimedSamples)
}
