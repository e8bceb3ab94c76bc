// internal/poller/block.go
package poller

import (
	"context"
	"errors"
	"sync"

	"github.com/tamzrod/sensorlink/internal/record"
)

// BlockReader reads all sensors of a device in one request.
type BlockReader interface {
	ReadRecord() (record.SensorRecord, error)
}

var errNoSnapshot = errors.New("poller: block not read this cycle")

// blockSnapshot holds the block read at the start of the current cycle.
// gen discards a read that finishes after its cycle was abandoned.
type blockSnapshot struct {
	b BlockReader

	mu  sync.Mutex
	gen uint64
	r   record.SensorRecord
	err error
}

func (s *blockSnapshot) refresh(context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.r, s.err = record.SensorRecord{}, errNoSnapshot
	s.mu.Unlock()

	r, err := s.b.ReadRecord()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.r, s.err = r, err
	}
	return err
}

func (s *blockSnapshot) current() (record.SensorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r, s.err
}

// FromBlock exposes a block device as per-sensor sources. The block is read
// once per cycle and every sensor keeps its own part of that read; a part
// the device reports as disabled is ErrUnavailable.
func FromBlock(b BlockReader) Sources {
	snap := &blockSnapshot{b: b, err: errNoSnapshot}

	pick := func(get func(record.SensorRecord) (Reading, bool)) Sensor {
		return SensorFunc(func(context.Context) (Reading, error) {
			r, err := snap.current()
			if err != nil {
				return Reading{}, err
			}
			v, ok := get(r)
			if !ok {
				return Reading{}, ErrUnavailable
			}
			return v, nil
		})
	}

	return Sources{
		Refresh: snap.refresh,
		Accelerometer: pick(func(r record.SensorRecord) (Reading, bool) {
			a := r.Accelerometer
			return Reading{X: a.X, Y: a.Y, Z: a.Z}, a.Enabled
		}),
		Barometer: pick(func(r record.SensorRecord) (Reading, bool) {
			return Reading{Value: r.Barometer.PressureHPa}, r.Barometer.Enabled
		}),
		Compass: pick(func(r record.SensorRecord) (Reading, bool) {
			return Reading{Value: r.Compass.HeadingDegrees}, r.Compass.Enabled
		}),
		Gyroscope: pick(func(r record.SensorRecord) (Reading, bool) {
			g := r.Gyroscope
			return Reading{X: g.X, Y: g.Y, Z: g.Z}, g.Enabled
		}),
		Orientation: pick(func(r record.SensorRecord) (Reading, bool) {
			o := r.Orientation
			return Reading{X: o.X, Y: o.Y, Z: o.Z, W: o.W}, o.Enabled
		}),
	}
}
