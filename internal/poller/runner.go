// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/sensorlink/internal/protocol"
	"github.com/tamzrod/sensorlink/internal/record"
	"github.com/tamzrod/sensorlink/internal/transport"
)

// ErrInvalidEndpoint is returned when the target address or port does not validate.
var ErrInvalidEndpoint = errors.New("poller: invalid address or port")

// ErrRejected is returned when a send does not end in AllOk.
var ErrRejected = errors.New("poller: send not acknowledged")

// Sender delivers one record and reports the server's answer.
type Sender interface {
	SendRecord(ctx context.Context, address string, port int, r record.SensorRecord) (protocol.ResponseCode, uint8)
}

// IDStore persists the machine id the collector assigned to this host.
type IDStore interface {
	Load() (uint8, error)
	Store(v uint8) error
}

// RunnerConfig is the runtime config of the send loop.
// Port is kept as text: it is validated per send, like the address.
type RunnerConfig struct {
	Address    string
	Port       string
	Interval   time.Duration
	DeviceKind record.DeviceKind
	Count      int // 0 => until stopped
}

// Runner drives poll -> stamp -> send cycles.
type Runner struct {
	cfg    RunnerConfig
	poller *Poller
	sender Sender
	ids    IDStore
	log    log.FieldLogger

	machineID uint8
	sent      int
}

// NewRunner wires a runner. The stored machine id is read once here.
func NewRunner(cfg RunnerConfig, p *Poller, sender Sender, ids IDStore, logger log.FieldLogger) (*Runner, error) {
	if p == nil || sender == nil || ids == nil {
		return nil, errors.New("poller: runner needs a poller, a sender and an id store")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	id, err := ids.Load()
	if err != nil {
		return nil, fmt.Errorf("poller: load machine id: %w", err)
	}

	return &Runner{cfg: cfg, poller: p, sender: sender, ids: ids, log: logger, machineID: id}, nil
}

// MachineID is the id this host currently sends under; 0 until assigned.
func (r *Runner) MachineID() uint8 { return r.machineID }

// Sent is the number of acknowledged records.
func (r *Runner) Sent() int { return r.sent }

// Run loops until ctx is cancelled, Count records are acknowledged, or a
// send is not acknowledged. Cancellation is observed between cycles only;
// a send in flight always completes.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for first := true; r.cfg.Count == 0 || r.sent < r.cfg.Count; first = false {
		if !first {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if err := r.cycle(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) cycle(ctx context.Context) error {
	rec := r.poller.PollOnce(ctx).Stamp(r.cfg.DeviceKind, r.machineID)

	if !transport.CheckValid(r.cfg.Address, r.cfg.Port) {
		return fmt.Errorf("%w: %q:%q", ErrInvalidEndpoint, r.cfg.Address, r.cfg.Port)
	}
	port, _ := strconv.Atoi(r.cfg.Port)

	code, id := r.sender.SendRecord(context.WithoutCancel(ctx), r.cfg.Address, port, rec)
	if code != protocol.AllOk {
		r.log.WithField("code", code).Error("record not acknowledged")
		return fmt.Errorf("%w: %s", ErrRejected, code)
	}
	r.sent++

	switch {
	case id == r.machineID:
	case r.machineID == 0:
		if err := r.ids.Store(id); err != nil {
			return fmt.Errorf("poller: persist machine id %d: %w", id, err)
		}
		r.machineID = id
		r.log.WithField("machine", id).Info("machine id assigned")
	default:
		r.log.WithFields(log.Fields{"have": r.machineID, "got": id}).Warn("collector answered with a different machine id")
	}

	r.log.WithFields(log.Fields{"machine": r.machineID, "sent": r.sent}).Debug("record acknowledged")
	return nil
}
