// internal/config/load.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags onto configuration keys.
// Flags a command does not declare are skipped.
var flagKeys = map[string]string{
	"interface":   "server.interface",
	"port":        "server.port",
	"backlog":     "server.backlog",
	"state-dir":   "server.state_dir",
	"mirror":      "mirror.endpoint",
	"protocol":    "mirror.protocol",
	"interval":    "client.interval_ms",
	"device-kind": "client.device_kind",
	"count":       "client.count",
	"source":      "client.source",
	"debug":       "debug",
}

// clientFlagKeys overrides flagKeys for the send command.
var clientFlagKeys = map[string]string{
	"port":      "client.port",
	"state-dir": "client.state_dir",
}

func newViper() *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault("server.interface", d.Server.Interface)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.backlog", d.Server.Backlog)
	v.SetDefault("server.state_dir", d.Server.StateDir)
	v.SetDefault("mirror.endpoint", d.Mirror.Endpoint)
	v.SetDefault("mirror.protocol", d.Mirror.Protocol)
	v.SetDefault("mirror.data_unit_id", d.Mirror.DataUnitID)
	v.SetDefault("mirror.status_unit_id", d.Mirror.StatusUnitID)
	v.SetDefault("mirror.timeout_ms", d.Mirror.TimeoutMs)
	v.SetDefault("client.address", d.Client.Address)
	v.SetDefault("client.port", d.Client.Port)
	v.SetDefault("client.interval_ms", d.Client.IntervalMs)
	v.SetDefault("client.sample_timeout_ms", d.Client.SampleTimeoutMs)
	v.SetDefault("client.device_kind", d.Client.DeviceKind)
	v.SetDefault("client.count", d.Client.Count)
	v.SetDefault("client.state_dir", d.Client.StateDir)
	v.SetDefault("client.source", d.Client.Source)
	v.SetDefault("client.modbus.endpoint", d.Client.Modbus.Endpoint)
	v.SetDefault("client.modbus.unit_id", d.Client.Modbus.UnitID)
	v.SetDefault("client.modbus.fc", d.Client.Modbus.FC)
	v.SetDefault("client.modbus.address", d.Client.Modbus.Address)
	v.SetDefault("client.modbus.timeout_ms", d.Client.Modbus.TimeoutMs)
	v.SetDefault("debug", d.Debug)

	v.SetEnvPrefix(DefaultAppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Parse resolves configuration for cmd, in this order of precedence:
// flags, SENSORLINK_* environment, config file, defaults.
//
// The file is taken from --config, then $SENSORLINK_CONFIG, then the
// search path. A missing file is not an error.
func Parse(cmd *cobra.Command) (*Config, error) {
	v := newViper()

	if configFileCmd, err := cmd.Flags().GetString("config"); err == nil && configFileCmd != "" {
		v.SetConfigFile(configFileCmd)
	} else if configFileEnv := os.Getenv("SENSORLINK_CONFIG"); configFileEnv != "" {
		v.SetConfigFile(configFileEnv)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigSearchPath0)
		v.AddConfigPath(DefaultConfigSearchPath1)
		v.AddConfigPath(DefaultConfigSearchPath2)
	}

	client := cmd.Name() == "send"
	for flag, key := range flagKeys {
		if client {
			if k, ok := clientFlagKeys[flag]; ok {
				key = k
			}
		}
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}

	if err := v.ReadInConfig(); err == nil {
		log.Debugln("using config file:", v.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
		log.Debugln("no config file found, using defaults")
	}

	return decode(v)
}

// Load reads a single configuration file layered over the defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)

	return &cfg, nil
}

// PostParse applies process-wide settings derived from cfg.
func PostParse(cfg *Config) {
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
