// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/sensorlink/internal/record"
)

// Disabled markers written for a sensor that produced no reading.
// Consumers must check Enabled before using a value.
const (
	DisabledPressure = -1.0
	DisabledHeading  = -100.0
)

// Poller samples every source once per cycle.
type Poller struct {
	src    Sources
	window time.Duration
	log    log.FieldLogger
}

// New creates a poller. window bounds each sensor's sample.
func New(src Sources, window time.Duration, logger log.FieldLogger) (*Poller, error) {
	if window <= 0 {
		return nil, errors.New("poller: sample window must be > 0")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Poller{src: src, window: window, log: logger}, nil
}

// PollOnce performs exactly one sampling cycle.
// Sensors are sampled concurrently; one that errors, is missing, or does
// not answer within the window yields its disabled marker. A cycle never
// fails as a whole.
func (p *Poller) PollOnce(ctx context.Context) record.SensorRecord {
	var (
		wg                         sync.WaitGroup
		acc, baro, comp, gyr, ornt sampleResult
	)

	if p.src.Refresh != nil {
		refresh := SensorFunc(func(ctx context.Context) (Reading, error) {
			return Reading{}, p.src.Refresh(ctx)
		})
		if res := p.sample(ctx, refresh); res.err != nil {
			p.log.Debugf("source refresh failed: %v", res.err)
		}
	}

	for _, s := range []struct {
		name   string
		sensor Sensor
		out    *sampleResult
	}{
		{"accelerometer", p.src.Accelerometer, &acc},
		{"barometer", p.src.Barometer, &baro},
		{"compass", p.src.Compass, &comp},
		{"gyroscope", p.src.Gyroscope, &gyr},
		{"orientation", p.src.Orientation, &ornt},
	} {
		wg.Add(1)
		go func(name string, sensor Sensor, out *sampleResult) {
			defer wg.Done()
			*out = p.sample(ctx, sensor)
			if out.err != nil && !errors.Is(out.err, errNotSupported) {
				p.log.WithField("sensor", name).Debugf("no reading: %v", out.err)
			}
		}(s.name, s.sensor, s.out)
	}
	wg.Wait()

	var r record.SensorRecord

	r.Accelerometer = record.Vector3{Enabled: acc.ok()}
	if acc.ok() {
		r.Accelerometer.X, r.Accelerometer.Y, r.Accelerometer.Z = acc.r.X, acc.r.Y, acc.r.Z
	}

	r.Barometer = record.Barometer{PressureHPa: DisabledPressure}
	if baro.ok() {
		r.Barometer = record.Barometer{PressureHPa: baro.r.Value, Enabled: true}
	}

	r.Compass = record.Compass{HeadingDegrees: DisabledHeading}
	if comp.ok() {
		r.Compass = record.Compass{HeadingDegrees: comp.r.Value, Enabled: true}
	}

	r.Gyroscope = record.Vector3{Enabled: gyr.ok()}
	if gyr.ok() {
		r.Gyroscope.X, r.Gyroscope.Y, r.Gyroscope.Z = gyr.r.X, gyr.r.Y, gyr.r.Z
	}

	r.Orientation = record.Quaternion{Enabled: ornt.ok()}
	if ornt.ok() {
		r.Orientation.X, r.Orientation.Y = ornt.r.X, ornt.r.Y
		r.Orientation.Z, r.Orientation.W = ornt.r.Z, ornt.r.W
	}

	return r
}

var errNotSupported = errors.New("poller: sensor not supported")

type sampleResult struct {
	r   Reading
	err error
}

func (s sampleResult) ok() bool { return s.err == nil }

// sample runs one bounded sample. A sensor that ignores ctx is abandoned
// once the window closes.
func (p *Poller) sample(ctx context.Context, s Sensor) sampleResult {
	if s == nil {
		return sampleResult{err: errNotSupported}
	}

	ctx, cancel := context.WithTimeout(ctx, p.window)
	defer cancel()

	done := make(chan sampleResult, 1)
	go func() {
		r, err := s.Sample(ctx)
		done <- sampleResult{r: r, err: err}
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return sampleResult{err: ctx.Err()}
	}
}
