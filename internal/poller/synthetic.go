// internal/poller/synthetic.go
package poller

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Synthetic produces random plausible readings. It stands in for hardware
// on hosts without sensors.
type Synthetic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthetic returns a generator seeded with seed; 0 seeds from the clock.
func NewSynthetic(seed int64) *Synthetic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthetic{rng: rand.New(rand.NewSource(seed))}
}

// Sources exposes the generator as all five sensors.
func (s *Synthetic) Sources() Sources {
	return Sources{
		Accelerometer: SensorFunc(s.vector),
		Barometer: SensorFunc(func(context.Context) (Reading, error) {
			return Reading{Value: s.uniform(0, 1000)}, nil
		}),
		Compass: SensorFunc(func(context.Context) (Reading, error) {
			return Reading{Value: s.uniform(0, 360)}, nil
		}),
		Gyroscope:   SensorFunc(s.vector),
		Orientation: SensorFunc(s.quaternion),
	}
}

func (s *Synthetic) uniform(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Synthetic) vector(context.Context) (Reading, error) {
	return Reading{
		X: float32(s.uniform(-1, 1)),
		Y: float32(s.uniform(-1, 1)),
		Z: float32(s.uniform(-1, 1)),
	}, nil
}

// quaternion is a rotation of a random angle about a random unit axis.
func (s *Synthetic) quaternion(context.Context) (Reading, error) {
	x, y, z := s.uniform(-1, 1), s.uniform(-1, 1), s.uniform(-1, 1)
	n := math.Sqrt(x*x + y*y + z*z)
	if n == 0 {
		x, n = 1, 1
	}
	half := s.uniform(0, math.Pi)
	sin := math.Sin(half) / n

	return Reading{
		X: float32(x * sin),
		Y: float32(y * sin),
		Z: float32(z * sin),
		W: float32(math.Cos(half)),
	}, nil
}
