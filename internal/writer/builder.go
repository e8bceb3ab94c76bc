// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"
	"time"

	cfg "github.com/tamzrod/sensorlink/internal/config"
	"github.com/tamzrod/sensorlink/internal/writer/ingest"
	wmodbus "github.com/tamzrod/sensorlink/internal/writer/modbus"
)

// BuildPlan converts the mirror config into a Writer Plan.
// Assumes config has already passed validation.
func BuildPlan(m cfg.MirrorConfig) (Plan, error) {
	if m.Endpoint == "" {
		return Plan{}, errors.New("writer: mirror endpoint required")
	}

	return Plan{
		Endpoint:     m.Endpoint,
		Protocol:     m.Protocol,
		DataUnitID:   m.DataUnitID,
		StatusUnitID: m.StatusUnitID,
	}, nil
}

// closingClient is an endpointClient that owns a connection.
type closingClient interface {
	endpointClient
	Close() error
}

// BuildEndpointClient creates the client for the plan's endpoint.
func BuildEndpointClient(plan Plan, timeout time.Duration) (closingClient, error) {
	switch plan.Protocol {
	case ProtocolModbus, "":
		c, err := wmodbus.Dial(wmodbus.Config{
			Endpoint: plan.Endpoint,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("writer: modbus endpoint %s: %w", plan.Endpoint, err)
		}
		return c, nil
	case ProtocolIngest:
		c, err := ingest.NewClient(ingest.Config{
			Endpoint: plan.Endpoint,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("writer: ingest endpoint %s: %w", plan.Endpoint, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("writer: unsupported protocol %q", plan.Protocol)
	}
}

// Mirror bundles the data and status writers that share one endpoint.
type Mirror struct {
	Data   Writer
	Status StatusWriter
	close  func() error
}

// Close releases the endpoint connection.
func (m *Mirror) Close() error {
	if m == nil || m.close == nil {
		return nil
	}
	return m.close()
}

// Build wires a Mirror from config. Returns (nil, nil) when mirroring is disabled.
func Build(m cfg.MirrorConfig) (*Mirror, error) {
	if m.Endpoint == "" {
		return nil, nil
	}

	plan, err := BuildPlan(m)
	if err != nil {
		return nil, err
	}

	cli, err := BuildEndpointClient(plan, time.Duration(m.TimeoutMs)*time.Millisecond)
	if err != nil {
		return nil, err
	}

	return &Mirror{
		Data:   New(plan, cli),
		Status: NewStatusWriter(plan, cli),
		close:  cli.Close,
	}, nil
}
