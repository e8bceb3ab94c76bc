// internal/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tamzrod/sensorlink/internal/protocol"
	"github.com/tamzrod/sensorlink/internal/record"
)

// ErrIDSpaceExhausted is returned when every id in 1..255 has been handed out.
// 0 is the unassigned sentinel, so the counter never wraps.
var ErrIDSpaceExhausted = errors.New("registry: machine id space exhausted")

// CounterStore is the durable home of the last assigned machine id.
// Store must not return until the value survives a restart.
type CounterStore interface {
	Load() (uint8, error)
	Store(v uint8) error
}

// Registry assigns durable machine ids and meters traffic per machine.
//
// Registry is NOT safe for concurrent use. The server handles one connection
// at a time, which is what makes increment-then-persist unique. Any change
// that handles connections in parallel must serialize Assign and the meter
// updates.
type Registry struct {
	store CounterStore
	last  uint8

	meters map[uint8]*Meter
	now    func() time.Time
}

// Open loads the counter once. Meters always start empty.
func Open(store CounterStore) (*Registry, error) {
	if store == nil {
		return nil, errors.New("registry: counter store required")
	}

	last, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("registry: load counter: %w", err)
	}

	return &Registry{
		store:  store,
		last:   last,
		meters: make(map[uint8]*Meter),
		now:    time.Now,
	}, nil
}

// LastAssigned returns the highest id handed out so far.
func (r *Registry) LastAssigned() uint8 { return r.last }

// Assign returns the machine id the record should be acknowledged with.
// A record that already carries an id keeps it. A record carrying the
// sentinel gets the next id, which is persisted before it is returned.
func (r *Registry) Assign(rec record.SensorRecord) (uint8, error) {
	if rec.MachineID != protocol.UnassignedMachineID {
		return rec.MachineID, nil
	}

	if r.last == 255 {
		return 0, ErrIDSpaceExhausted
	}

	next := r.last + 1
	if err := r.store.Store(next); err != nil {
		// The in-memory counter is left untouched: the id was never durable.
		return 0, fmt.Errorf("registry: persist id %d: %v: %w", next, err, protocol.ErrPersistence)
	}

	r.last = next
	return next, nil
}

// Known reports whether id was handed out by this registry's counter.
func (r *Registry) Known(id uint8) bool {
	return id != protocol.UnassignedMachineID && id <= r.last
}

// RecordBytes adds n received bytes to the running total of id.
func (r *Registry) RecordBytes(id uint8, n uint64) {
	m := r.meter(id)
	m.Bytes += n
	m.Records++
	m.LastSeen = r.now()
}

// RecordTiming adds one receive-latency sample for id. Negative samples mark
// an unreliable measurement and are counted but not averaged.
func (r *Registry) RecordTiming(id uint8, elapsedSeconds float64) {
	m := r.meter(id)
	m.LastElapsed = elapsedSeconds

	if elapsedSeconds < 0 {
		m.UnknownTimings++
		return
	}

	if m.TimedSamples == 0 || elapsedSeconds < m.MinElapsed {
		m.MinElapsed = elapsedSeconds
	}
	if elapsedSeconds > m.MaxElapsed {
		m.MaxElapsed = elapsedSeconds
	}
	m.TotalElapsed += elapsedSeconds
	m.TimedSamples++
}

// NoteDevice remembers the device kind a machine last reported.
func (r *Registry) NoteDevice(id uint8, kind record.DeviceKind) {
	r.meter(id).DeviceKind = kind
}

// Meter returns a copy of the meter for id.
func (r *Registry) Meter(id uint8) (Meter, bool) {
	m, ok := r.meters[id]
	if !ok {
		return Meter{}, false
	}
	return *m, true
}

// Machines returns the ids seen since startup in ascending order.
func (r *Registry) Machines() []uint8 {
	out := make([]uint8, 0, len(r.meters))
	for id := range r.meters {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) meter(id uint8) *Meter {
	m, ok := r.meters[id]
	if !ok {
		m = &Meter{MachineID: id}
		r.meters[id] = m
	}
	return m
}
