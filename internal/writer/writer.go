// internal/writer/writer.go
package writer

import (
	"fmt"
	"math"

	"github.com/tamzrod/sensorlink/internal/record"
	"github.com/tamzrod/sensorlink/internal/status"
)

// Reading block layout (per machine, LOCKED).
// Floats are IEEE-754 split into big-endian words.
//
//	0      enabled flags (bit0 acc, bit1 baro, bit2 compass, bit3 gyro, bit4 orientation)
//	1–6    accelerometer x,y,z   float32
//	7–10   barometer pressure    float64
//	11–14  compass heading       float64
//	15–20  gyroscope x,y,z       float32
//	21–28  orientation x,y,z,w   float32
//	29     device kind
//	30–31  reserved
const (
	ReadingSlotsPerDevice = 32

	slotFlags       = 0
	slotAccel       = 1
	slotPressure    = 7
	slotHeading     = 11
	slotGyro        = 15
	slotOrientation = 21
	slotDeviceKind  = 29
)

type readingWriter struct {
	plan Plan
	cli  endpointClient
}

// New returns a Writer for the data memory of the plan.
func New(plan Plan, cli endpointClient) Writer {
	return &readingWriter{plan: plan, cli: cli}
}

func (w *readingWriter) Write(machineID uint8, r record.SensorRecord) error {
	if w.cli == nil {
		return fmt.Errorf("writer: missing client for endpoint %s", w.plan.Endpoint)
	}

	addr := uint16(machineID) * ReadingSlotsPerDevice
	if err := w.cli.WriteRegisters(w.plan.DataUnitID, addr, EncodeReading(r)); err != nil {
		return fmt.Errorf(
			"writer: ep=%s unit=%d machine=%d addr=%d err=%v",
			w.plan.Endpoint, w.plan.DataUnitID, machineID, addr, err,
		)
	}
	return nil
}

// EncodeReading packs one record into a reading block.
// No IO. No side effects.
func EncodeReading(r record.SensorRecord) []uint16 {
	regs := make([]uint16, ReadingSlotsPerDevice)

	var flags uint16
	for i, on := range []bool{
		r.Accelerometer.Enabled,
		r.Barometer.Enabled,
		r.Compass.Enabled,
		r.Gyroscope.Enabled,
		r.Orientation.Enabled,
	} {
		if on {
			flags |= 1 << uint(i)
		}
	}
	regs[slotFlags] = flags

	putF32s(regs[slotAccel:], r.Accelerometer.X, r.Accelerometer.Y, r.Accelerometer.Z)
	copy(regs[slotPressure:], status.Words64(math.Float64bits(r.Barometer.PressureHPa)))
	copy(regs[slotHeading:], status.Words64(math.Float64bits(r.Compass.HeadingDegrees)))
	putF32s(regs[slotGyro:], r.Gyroscope.X, r.Gyroscope.Y, r.Gyroscope.Z)
	putF32s(regs[slotOrientation:], r.Orientation.X, r.Orientation.Y, r.Orientation.Z, r.Orientation.W)
	regs[slotDeviceKind] = uint16(r.DeviceKind)

	return regs
}

// DecodeReading is the inverse of EncodeReading. MachineID is not part of
// the block and stays zero.
func DecodeReading(regs []uint16) (record.SensorRecord, error) {
	if len(regs) < ReadingSlotsPerDevice {
		return record.SensorRecord{}, fmt.Errorf(
			"writer: reading block needs %d registers, got %d",
			ReadingSlotsPerDevice, len(regs),
		)
	}

	flags := regs[slotFlags]
	on := func(bit uint) bool { return flags&(1<<bit) != 0 }

	var r record.SensorRecord
	r.Accelerometer = record.Vector3{
		X: getF32(regs[slotAccel:]), Y: getF32(regs[slotAccel+2:]), Z: getF32(regs[slotAccel+4:]),
		Enabled: on(0),
	}
	r.Barometer = record.Barometer{PressureHPa: getF64(regs[slotPressure:]), Enabled: on(1)}
	r.Compass = record.Compass{HeadingDegrees: getF64(regs[slotHeading:]), Enabled: on(2)}
	r.Gyroscope = record.Vector3{
		X: getF32(regs[slotGyro:]), Y: getF32(regs[slotGyro+2:]), Z: getF32(regs[slotGyro+4:]),
		Enabled: on(3),
	}
	r.Orientation = record.Quaternion{
		X: getF32(regs[slotOrientation:]), Y: getF32(regs[slotOrientation+2:]),
		Z: getF32(regs[slotOrientation+4:]), W: getF32(regs[slotOrientation+6:]),
		Enabled: on(4),
	}
	r.DeviceKind = record.DeviceKind(regs[slotDeviceKind])

	return r, nil
}

func getF32(src []uint16) float32 {
	return math.Float32frombits(uint32(src[0])<<16 | uint32(src[1]))
}

func getF64(src []uint16) float64 {
	var v uint64
	for i := 0; i < 4; i++ {
		v = v<<16 | uint64(src[i])
	}
	return math.Float64frombits(v)
}

func putF32s(dst []uint16, vs ...float32) {
	for i, v := range vs {
		copy(dst[2*i:], status.Words32(math.Float32bits(v)))
	}
}
