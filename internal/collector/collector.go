// internal/collector/collector.go
package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/sensorlink/internal/config"
	"github.com/tamzrod/sensorlink/internal/idfile"
	"github.com/tamzrod/sensorlink/internal/registry"
	"github.com/tamzrod/sensorlink/internal/transport"
	"github.com/tamzrod/sensorlink/internal/writer"
)

// Collector owns everything the server side runs on: the counter file,
// the registry, the optional mirror and the listener.
type Collector struct {
	store  *idfile.Store
	reg    *registry.Registry
	mirror *writer.Mirror
	srv    *transport.Server
	log    log.FieldLogger
}

// New opens state and binds the listener. Nothing is accepted until Serve.
func New(c config.ServerConfig, m config.MirrorConfig, logger log.FieldLogger) (*Collector, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}

	store, err := idfile.Open(filepath.Join(c.StateDir, idfile.ServerCounterFile))
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	// An unreachable mirror must not keep sensors from being served.
	mirror, err := writer.Build(m)
	if err != nil {
		logger.Errorf("mirror %s disabled: %v", m.Endpoint, err)
		mirror = nil
	}

	ln, err := transport.Listen(c.Interface, c.Port, c.Backlog)
	if err != nil {
		_ = mirror.Close()
		_ = store.Close()
		return nil, err
	}

	srv, err := transport.NewServer(ln, NewHandler(reg, mirror, logger), logger)
	if err != nil {
		_ = ln.Close()
		_ = mirror.Close()
		_ = store.Close()
		return nil, err
	}

	return &Collector{store: store, reg: reg, mirror: mirror, srv: srv, log: logger}, nil
}

// Addr is the bound listen address.
func (c *Collector) Addr() net.Addr { return c.srv.Addr() }

// Registry exposes the registry for inspection after Serve returns.
func (c *Collector) Registry() *registry.Registry { return c.reg }

// Serve accepts until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context) error {
	c.log.WithFields(log.Fields{
		"addr":          c.Addr().String(),
		"counter":       c.store.Path(),
		"last_assigned": c.reg.LastAssigned(),
		"mirror":        c.mirror != nil,
	}).Info("collector listening")

	return c.srv.Serve(ctx)
}

// Close logs the per-machine meters and releases all resources.
func (c *Collector) Close() error {
	c.logMeters()

	return errors.Join(
		ignoreClosed(c.srv.Close()),
		c.mirror.Close(),
		c.store.Close(),
	)
}

func (c *Collector) logMeters() {
	for _, id := range c.reg.Machines() {
		m, _ := c.reg.Meter(id)
		c.log.WithFields(log.Fields{
			"machine_id":      id,
			"device":          m.DeviceKind.String(),
			"records":         m.Records,
			"bytes":           m.Bytes,
			"mean_elapsed_s":  m.MeanElapsed(),
			"max_elapsed_s":   m.MaxElapsed,
			"unknown_timings": m.UnknownTimings,
		}).Info("machine traffic")
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Run serves until ctx is cancelled and then shuts down.
func Run(ctx context.Context, cfg *config.Config, logger log.FieldLogger) error {
	c, err := New(cfg.Server, cfg.Mirror, logger)
	if err != nil {
		return fmt.Errorf("collector: %w", err)
	}

	serveErr := c.Serve(ctx)
	closeErr := c.Close()

	if serveErr != nil {
		return fmt.Errorf("collector: %w", serveErr)
	}
	return closeErr
}
