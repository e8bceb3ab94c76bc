// internal/transport/stopwatch.go
package transport

import "time"

// stopwatch measures accept-to-read-complete time.
type stopwatch struct {
	start   time.Time
	elapsed time.Duration
	stopped bool
}

func startStopwatch() *stopwatch {
	return &stopwatch{start: time.Now()}
}

func (s *stopwatch) Stop() {
	if s.stopped {
		return
	}
	s.elapsed = time.Since(s.start)
	s.stopped = true
}

// Seconds returns the measured time, or -1 if the stopwatch was never
// stopped and the value cannot be trusted.
func (s *stopwatch) Seconds() float64 {
	if !s.stopped {
		return -1
	}
	return s.elapsed.Seconds()
}
