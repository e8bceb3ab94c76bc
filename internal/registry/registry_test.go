// internal/registry/registry_test.go
package registry

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/sensorlink/internal/idfile"
	"github.com/tamzrod/sensorlink/internal/protocol"
	"github.com/tamzrod/sensorlink/internal/record"
)

// ---- fake counter store ----

type fakeStore struct {
	value   uint8
	stores  []uint8
	failErr error
}

func (f *fakeStore) Load() (uint8, error) { return f.value, nil }

func (f *fakeStore) Store(v uint8) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.value = v
	f.stores = append(f.stores, v)
	return nil
}

// ---- tests ----

func TestAssign_NewMachineGetsNextID(t *testing.T) {
	st := &fakeStore{value: 5}
	r, err := Open(st)
	require.NoError(t, err)

	id, err := r.Assign(record.SensorRecord{})
	require.NoError(t, err)
	assert.Equal(t, uint8(6), id)
	assert.Equal(t, uint8(6), r.LastAssigned())
	assert.Equal(t, []uint8{6}, st.stores)

	id, err = r.Assign(record.SensorRecord{})
	require.NoError(t, err)
	assert.Equal(t, uint8(7), id)
}

func TestAssign_KnownMachineKeepsID(t *testing.T) {
	st := &fakeStore{value: 5}
	r, err := Open(st)
	require.NoError(t, err)

	id, err := r.Assign(record.SensorRecord{MachineID: 42})
	require.NoError(t, err)
	assert.Equal(t, uint8(42), id)
	assert.Equal(t, uint8(5), r.LastAssigned())
	assert.Empty(t, st.stores)
}

func TestAssign_PersistFailureHandsOutNothing(t *testing.T) {
	st := &fakeStore{value: 5, failErr: errors.New("disk full")}
	r, err := Open(st)
	require.NoError(t, err)

	id, err := r.Assign(record.SensorRecord{})
	require.ErrorIs(t, err, protocol.ErrPersistence)
	assert.Equal(t, uint8(0), id)
	assert.Equal(t, uint8(5), r.LastAssigned())

	// Once the disk recovers the same id is offered, never skipped or reused.
	st.failErr = nil
	id, err = r.Assign(record.SensorRecord{})
	require.NoError(t, err)
	assert.Equal(t, uint8(6), id)
}

func TestAssign_Exhausted(t *testing.T) {
	r, err := Open(&fakeStore{value: 255})
	require.NoError(t, err)

	_, err = r.Assign(record.SensorRecord{})
	require.ErrorIs(t, err, ErrIDSpaceExhausted)
	assert.Equal(t, uint8(255), r.LastAssigned())
}

func TestAssign_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), idfile.ServerCounterFile)

	st, err := idfile.Open(path)
	require.NoError(t, err)
	r, err := Open(st)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := r.Assign(record.SensorRecord{})
		require.NoError(t, err)
	}
	require.NoError(t, st.Close())

	st2, err := idfile.Open(path)
	require.NoError(t, err)
	defer st2.Close()

	r2, err := Open(st2)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), r2.LastAssigned())

	id, err := r2.Assign(record.SensorRecord{})
	require.NoError(t, err)
	assert.Equal(t, uint8(4), id)
}

func TestRecordBytes_Accumulates(t *testing.T) {
	r, err := Open(&fakeStore{})
	require.NoError(t, err)

	r.RecordBytes(3, 63)
	r.RecordBytes(3, 63)
	r.RecordBytes(1, 200)

	m, ok := r.Meter(3)
	require.True(t, ok)
	assert.Equal(t, uint64(126), m.Bytes)
	assert.Equal(t, uint64(2), m.Records)

	m, ok = r.Meter(1)
	require.True(t, ok)
	assert.Equal(t, uint64(200), m.Bytes)

	_, ok = r.Meter(9)
	assert.False(t, ok)

	assert.Equal(t, []uint8{1, 3}, r.Machines())
}

func TestRecordTiming(t *testing.T) {
	r, err := Open(&fakeStore{})
	require.NoError(t, err)

	r.RecordTiming(2, 0.5)
	r.RecordTiming(2, -1)
	r.RecordTiming(2, 0.1)

	m, ok := r.Meter(2)
	require.True(t, ok)
	assert.Equal(t, 0.1, m.MinElapsed)
	assert.Equal(t, 0.5, m.MaxElapsed)
	assert.Equal(t, uint64(2), m.TimedSamples)
	assert.Equal(t, uint64(1), m.UnknownTimings)
	assert.InDelta(t, 0.3, m.MeanElapsed(), 1e-9)
	assert.Equal(t, 0.1, m.LastElapsed)

	assert.Equal(t, -1.0, Meter{}.MeanElapsed())
}

func TestKnown(t *testing.T) {
	r, err := Open(&fakeStore{value: 5})
	require.NoError(t, err)

	assert.True(t, r.Known(5))
	assert.False(t, r.Known(6))
	assert.False(t, r.Known(0))
}
