// internal/record/binary.go
package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tamzrod/sensorlink/internal/protocol"
)

// Binary layout (63 bytes, little-endian, LOCKED):
//
//	0      accelerometer.enabled
//	1–12   accelerometer.x,y,z   float32
//	13     barometer.enabled
//	14–21  barometer.pressure    float64
//	22     compass.enabled
//	23–30  compass.heading       float64
//	31     gyroscope.enabled
//	32–43  gyroscope.x,y,z       float32
//	44     orientation.enabled
//	45–60  orientation.x,y,z,w   float32
//	61     device kind
//	62     machine id

// EncodeBinary packs r into exactly protocol.RecordSize bytes.
func EncodeBinary(r SensorRecord) []byte {
	w := writer{buf: make([]byte, 0, protocol.RecordSize)}

	w.bool(r.Accelerometer.Enabled)
	w.f32(r.Accelerometer.X)
	w.f32(r.Accelerometer.Y)
	w.f32(r.Accelerometer.Z)

	w.bool(r.Barometer.Enabled)
	w.f64(r.Barometer.PressureHPa)

	w.bool(r.Compass.Enabled)
	w.f64(r.Compass.HeadingDegrees)

	w.bool(r.Gyroscope.Enabled)
	w.f32(r.Gyroscope.X)
	w.f32(r.Gyroscope.Y)
	w.f32(r.Gyroscope.Z)

	w.bool(r.Orientation.Enabled)
	w.f32(r.Orientation.X)
	w.f32(r.Orientation.Y)
	w.f32(r.Orientation.Z)
	w.f32(r.Orientation.W)

	w.buf = append(w.buf, byte(r.DeviceKind), r.MachineID)

	return w.buf
}

// DecodeBinary unpacks a binary record. Truncated or oversized input and
// boolean bytes other than 0/1 are rejected with protocol.ErrMalformedRecord.
func DecodeBinary(b []byte) (SensorRecord, error) {
	if len(b) != protocol.RecordSize {
		return SensorRecord{}, fmt.Errorf(
			"record: binary payload must be %d bytes, got %d: %w",
			protocol.RecordSize, len(b), protocol.ErrMalformedRecord,
		)
	}

	var r SensorRecord
	rd := reader{buf: b}

	r.Accelerometer.Enabled = rd.bool()
	r.Accelerometer.X = rd.f32()
	r.Accelerometer.Y = rd.f32()
	r.Accelerometer.Z = rd.f32()

	r.Barometer.Enabled = rd.bool()
	r.Barometer.PressureHPa = rd.f64()

	r.Compass.Enabled = rd.bool()
	r.Compass.HeadingDegrees = rd.f64()

	r.Gyroscope.Enabled = rd.bool()
	r.Gyroscope.X = rd.f32()
	r.Gyroscope.Y = rd.f32()
	r.Gyroscope.Z = rd.f32()

	r.Orientation.Enabled = rd.bool()
	r.Orientation.X = rd.f32()
	r.Orientation.Y = rd.f32()
	r.Orientation.Z = rd.f32()
	r.Orientation.W = rd.f32()

	r.DeviceKind = DeviceKind(rd.u8())
	r.MachineID = rd.u8()

	if rd.err != nil {
		return SensorRecord{}, rd.err
	}
	return r, nil
}

// ---- helpers ----

type writer struct {
	buf []byte
}

func (w *writer) bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

func (w *writer) f32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

func (w *writer) f64(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// reader keeps the first error and returns zero values after it.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = fmt.Errorf("record: short read at offset %d: %w", r.off, protocol.ErrMalformedRecord)
		return nil
	}
	p := r.buf[r.off : r.off+n]
	r.off += n
	return p
}

func (r *reader) u8() uint8 {
	p := r.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (r *reader) bool() bool {
	off := r.off
	v := r.u8()
	if r.err == nil && v > 1 {
		r.err = fmt.Errorf("record: invalid boolean 0x%02x at offset %d: %w", v, off, protocol.ErrMalformedRecord)
	}
	return v == 1
}

func (r *reader) f32() float32 {
	p := r.take(4)
	if p == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p))
}

func (r *reader) f64() float64 {
	p := r.take(8)
	if p == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p))
}
