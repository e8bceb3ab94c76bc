// internal/record/record.go
package record

import "math"

// DeviceKind is the coarse device category a client reports about itself.
type DeviceKind uint8

const (
	DeviceUnknown DeviceKind = iota
	DevicePhone
	DeviceTablet
	DeviceDesktop
	DeviceTV
	DeviceWatch
	DeviceOther
)

func (k DeviceKind) String() string {
	switch k {
	case DeviceUnknown:
		return "unknown"
	case DevicePhone:
		return "phone"
	case DeviceTablet:
		return "tablet"
	case DeviceDesktop:
		return "desktop"
	case DeviceTV:
		return "tv"
	case DeviceWatch:
		return "watch"
	case DeviceOther:
		return "other"
	default:
		return "invalid"
	}
}

// ---- READINGS ----

// Vector3 is an accelerometer or gyroscope reading.
type Vector3 struct {
	X       float32 `json:"X"`
	Y       float32 `json:"Y"`
	Z       float32 `json:"Z"`
	Enabled bool    `json:"Enabled"`
}

// Barometer is a pressure reading in hectopascals.
type Barometer struct {
	PressureHPa float64 `json:"PressureInHectoPascals"`
	Enabled     bool    `json:"Enabled"`
}

// Compass is a heading relative to magnetic north, in degrees.
type Compass struct {
	HeadingDegrees float64 `json:"NorthAngleInDegree"`
	Enabled        bool    `json:"Enabled"`
}

// Quaternion is the rotation of the device frame relative to the earth frame.
// For a rotation of angle t about the unit axis (x,y,z) the components are
// (x·sin(t/2), y·sin(t/2), z·sin(t/2), cos(t/2)).
type Quaternion struct {
	X       float32 `json:"X"`
	Y       float32 `json:"Y"`
	Z       float32 `json:"Z"`
	W       float32 `json:"W"`
	Enabled bool    `json:"Enabled"`
}

// SensorRecord is one sampling cycle of all five sensors plus the device tags.
// A record is a value: it is built once per cycle and only DeviceKind and
// MachineID are stamped before it is sent.
type SensorRecord struct {
	Accelerometer Vector3    `json:"Accelerometer"`
	Barometer     Barometer  `json:"Barometer"`
	Compass       Compass    `json:"Compass"`
	Gyroscope     Vector3    `json:"Gyroscope"`
	Orientation   Quaternion `json:"Orientation"`
	DeviceKind    DeviceKind `json:"DeviceID"`
	MachineID     uint8      `json:"MachineID"`
}

// Equal compares all fields. Floats are compared by bit pattern so a record
// holding NaN still equals its own decoded copy.
func (r SensorRecord) Equal(o SensorRecord) bool {
	return vec3Equal(r.Accelerometer, o.Accelerometer) &&
		r.Barometer.Enabled == o.Barometer.Enabled &&
		math.Float64bits(r.Barometer.PressureHPa) == math.Float64bits(o.Barometer.PressureHPa) &&
		r.Compass.Enabled == o.Compass.Enabled &&
		math.Float64bits(r.Compass.HeadingDegrees) == math.Float64bits(o.Compass.HeadingDegrees) &&
		vec3Equal(r.Gyroscope, o.Gyroscope) &&
		r.Orientation.Enabled == o.Orientation.Enabled &&
		f32eq(r.Orientation.X, o.Orientation.X) &&
		f32eq(r.Orientation.Y, o.Orientation.Y) &&
		f32eq(r.Orientation.Z, o.Orientation.Z) &&
		f32eq(r.Orientation.W, o.Orientation.W) &&
		r.DeviceKind == o.DeviceKind &&
		r.MachineID == o.MachineID
}

// Stamp returns a copy of r tagged with the sender's device kind and machine id.
func (r SensorRecord) Stamp(kind DeviceKind, machineID uint8) SensorRecord {
	r.DeviceKind = kind
	r.MachineID = machineID
	return r
}

func vec3Equal(a, b Vector3) bool {
	return a.Enabled == b.Enabled && f32eq(a.X, b.X) && f32eq(a.Y, b.Y) && f32eq(a.Z, b.Z)
}

func f32eq(a, b float32) bool {
	return math.Float32bits(a) == math.Float32bits(b)
}
