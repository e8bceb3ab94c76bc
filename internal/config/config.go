// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"github.com/tamzrod/sensorlink/internal/protocol"
)

const DefaultAppName = "sensorlink"
const DefaultConfigName = "config"
const DefaultInterface = "0.0.0.0"
const DefaultClientAddress = "127.0.0.1"
const DefaultIntervalMs = 750
const DefaultSampleTimeoutMs = 750
const DefaultMirrorTimeoutMs = 1000
const DefaultMirrorProtocol = "modbus"
const DefaultDataUnitID = 1
const DefaultStatusUnitID = 2
const DefaultSource = "synthetic"
const DefaultSourceFC = 4
const DefaultSourceUnitID = 1

var userHomeDir, _ = os.UserHomeDir()
var DefaultConfig = filepath.Join(userHomeDir, ".config", DefaultAppName, DefaultConfigName+".yaml")
var DefaultConfigSearchPath0 = filepath.Join(userHomeDir, ".config", DefaultAppName)

const DefaultConfigSearchPath1 = "/etc/" + DefaultAppName
const DefaultConfigSearchPath2 = "./"

type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Mirror MirrorConfig `yaml:"mirror" mapstructure:"mirror"`
	Client ClientConfig `yaml:"client" mapstructure:"client"`
	Debug  bool         `yaml:"debug" mapstructure:"debug"`
}

// ---- SERVER ----

type ServerConfig struct {
	Interface string `yaml:"interface" mapstructure:"interface"`
	Port      int    `yaml:"port" mapstructure:"port"`
	Backlog   int    `yaml:"backlog" mapstructure:"backlog"`
	StateDir  string `yaml:"state_dir" mapstructure:"state_dir"` // empty => user config dir
}

// ---- MIRROR ----

// MirrorConfig describes the optional register memory that receives
// readings and per-machine status blocks. An empty endpoint disables it.
type MirrorConfig struct {
	Endpoint     string `yaml:"endpoint" mapstructure:"endpoint"`
	Protocol     string `yaml:"protocol" mapstructure:"protocol"` // modbus | ingest
	DataUnitID   uint8  `yaml:"data_unit_id" mapstructure:"data_unit_id"`
	StatusUnitID uint8  `yaml:"status_unit_id" mapstructure:"status_unit_id"`
	TimeoutMs    int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// ---- CLIENT ----

type ClientConfig struct {
	Address         string `yaml:"address" mapstructure:"address"`
	Port            int    `yaml:"port" mapstructure:"port"`
	IntervalMs      int    `yaml:"interval_ms" mapstructure:"interval_ms"`
	SampleTimeoutMs int    `yaml:"sample_timeout_ms" mapstructure:"sample_timeout_ms"`
	DeviceKind      uint8  `yaml:"device_kind" mapstructure:"device_kind"`
	Count           int    `yaml:"count" mapstructure:"count"` // 0 => until stopped
	StateDir        string `yaml:"state_dir" mapstructure:"state_dir"`

	Source string       `yaml:"source" mapstructure:"source"` // synthetic | modbus
	Modbus SourceConfig `yaml:"modbus" mapstructure:"modbus"`
}

// ---- SENSOR SOURCE ----

// SourceConfig locates a reading block exposed by a Modbus TCP device.
// Only used when client.source is "modbus".
type SourceConfig struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	UnitID    uint8  `yaml:"unit_id" mapstructure:"unit_id"`
	FC        uint8  `yaml:"fc" mapstructure:"fc"` // 3 holding | 4 input
	Address   uint16 `yaml:"address" mapstructure:"address"`
	TimeoutMs int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Interface: DefaultInterface,
			Port:      protocol.DefaultPort,
			Backlog:   protocol.MinBacklog,
		},
		Mirror: MirrorConfig{
			Protocol:     DefaultMirrorProtocol,
			DataUnitID:   DefaultDataUnitID,
			StatusUnitID: DefaultStatusUnitID,
			TimeoutMs:    DefaultMirrorTimeoutMs,
		},
		Client: ClientConfig{
			Address:         DefaultClientAddress,
			Port:            protocol.DefaultPort,
			IntervalMs:      DefaultIntervalMs,
			SampleTimeoutMs: DefaultSampleTimeoutMs,
			Source:          DefaultSource,
			Modbus: SourceConfig{
				UnitID:    DefaultSourceUnitID,
				FC:        DefaultSourceFC,
				TimeoutMs: DefaultMirrorTimeoutMs,
			},
		},
	}
}
