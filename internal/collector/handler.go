// internal/collector/handler.go
package collector

import (
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/sensorlink/internal/record"
	"github.com/tamzrod/sensorlink/internal/registry"
	"github.com/tamzrod/sensorlink/internal/status"
	"github.com/tamzrod/sensorlink/internal/transport"
	"github.com/tamzrod/sensorlink/internal/writer"
)

// Handler is the transport.Handler of the collector: it assigns ids,
// meters traffic and mirrors each record.
//
// Handler inherits the registry's constraint: it must be driven by a single
// goroutine, which the sequential server guarantees.
type Handler struct {
	reg    *registry.Registry
	mirror *writer.Mirror // nil => disabled
	log    log.FieldLogger
}

// NewHandler wires a handler. mirror may be nil.
func NewHandler(reg *registry.Registry, mirror *writer.Mirror, logger log.FieldLogger) *Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Handler{reg: reg, mirror: mirror, log: logger}
}

// Handle implements transport.Handler.
func (h *Handler) Handle(d transport.Delivery) (uint8, error) {
	id, err := h.reg.Assign(d.Record)
	if err != nil {
		return 0, err
	}

	logger := h.log.WithField("machine_id", id)

	foreign := !h.reg.Known(id)
	if foreign {
		logger.Warnf("machine id %d was not issued by this collector (last issued %d)", id, h.reg.LastAssigned())
	}

	h.reg.RecordBytes(id, uint64(d.Size))
	h.reg.RecordTiming(id, d.ElapsedSeconds)
	h.reg.NoteDevice(id, d.Record.DeviceKind)

	if logger.Logger.IsLevelEnabled(log.DebugLevel) {
		logger.Debugf("record: %s", record.EncodeText(d.Record.Stamp(d.Record.DeviceKind, id)))
	}

	h.mirrorRecord(logger, id, d.Record, foreign)
	return id, nil
}

// mirrorRecord pushes the reading and the machine status to the mirror.
// Failures are logged and never reach the sensor client.
func (h *Handler) mirrorRecord(logger log.FieldLogger, id uint8, r record.SensorRecord, foreign bool) {
	if h.mirror == nil {
		return
	}

	if err := h.mirror.Data.Write(id, r); err != nil {
		logger.Warnf("mirror reading: %v", err)
	}

	m, _ := h.reg.Meter(id)
	if err := h.mirror.Status.WriteStatus(id, Snapshot(m, foreign)); err != nil {
		logger.Warnf("mirror status: %v", err)
	}
}

// Snapshot derives the status block content of a machine from its meter.
func Snapshot(m registry.Meter, foreign bool) status.Snapshot {
	s := status.Snapshot{
		Health:        status.HealthOK,
		DeviceKind:    uint16(m.DeviceKind),
		Records:       uint32(m.Records),
		Bytes:         m.Bytes,
		LastElapsedMs: status.ElapsedMs(m.LastElapsed),
	}
	if m.Records > math.MaxUint32 {
		s.Records = math.MaxUint32
	}
	if foreign {
		s.Health = status.HealthError
	}
	return s
}
