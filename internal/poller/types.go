// internal/poller/types.go
package poller

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by a Sensor that exists but has no reading
// to offer right now.
var ErrUnavailable = errors.New("poller: sensor unavailable")

// Reading is one raw sample. Which fields carry meaning depends on the
// sensor: vectors use X,Y,Z; orientation adds W; barometer and compass
// use Value.
type Reading struct {
	X, Y, Z, W float32
	Value      float64
}

// Sensor is a single reading source. Sample blocks until a reading is
// available or ctx ends.
type Sensor interface {
	Sample(ctx context.Context) (Reading, error)
}

// SensorFunc adapts a function to Sensor.
type SensorFunc func(ctx context.Context) (Reading, error)

func (f SensorFunc) Sample(ctx context.Context) (Reading, error) { return f(ctx) }

// Sources is the set of sensors sampled each cycle.
// A nil sensor is reported as not supported.
type Sources struct {
	Accelerometer Sensor
	Barometer     Sensor
	Compass       Sensor
	Gyroscope     Sensor
	Orientation   Sensor

	// Refresh, when set, runs once at the start of each cycle before any
	// sensor is sampled. It is bounded by the sample window.
	Refresh func(ctx context.Context) error
}
