// cmd/sensorlink/commands.go
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamzrod/sensorlink/internal/collector"
	"github.com/tamzrod/sensorlink/internal/config"
	"github.com/tamzrod/sensorlink/internal/idfile"
	"github.com/tamzrod/sensorlink/internal/poller"
	"github.com/tamzrod/sensorlink/internal/protocol"
	"github.com/tamzrod/sensorlink/internal/record"
	"github.com/tamzrod/sensorlink/internal/transport"
)

var RootCmd = &cobra.Command{
	Use:          "sensorlink",
	Short:        "collect device sensor readings over TCP",
	Long:         "sensorlink ships device sensor readings to a collector that assigns each machine a durable id.",
	SilenceUsage: true,
}

// ---- serve ----

func ServeCmdFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "default configuration path")
	cmd.Flags().IntP("port", "p", protocol.DefaultPort, "port that the collector listens on")
	cmd.Flags().StringP("interface", "i", config.DefaultInterface, "interface that the collector listens on")
	cmd.Flags().Int("backlog", protocol.MinBacklog, "listen backlog")
	cmd.Flags().String("state-dir", "", "directory holding the machine id counter")
	cmd.Flags().String("mirror", "", "register memory endpoint receiving readings and status (host:port)")
	cmd.Flags().String("protocol", config.DefaultMirrorProtocol, "mirror protocol: modbus or ingest")
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

func ServeCmdRunE(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Parse(cmd)
	if err != nil {
		return err
	}
	config.PostParse(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return collector.Run(ctx, cfg, log.StandardLogger())
}

var ServeCmd = &cobra.Command{
	Use: "serve",
	SuggestFor: []string{
		"ru", "ser",
	},
	Short: "serve starts the collector",
	Long: `serve starts the collector using predefined configs, by the following order:
1. path specified in --config flag
2. path defined SENSORLINK_CONFIG environment variable
3. default location $HOME/.config/sensorlink/config.yaml, /etc/sensorlink/config.yaml, current directory
The parameters in the configuration file will be overwritten by the following order:
1. command line arguments
2. environment variables
`,
	Example: `  sensorlink serve --config=/path/to/config.yaml
  sensorlink serve -p 29482 --mirror 10.0.0.5:502`,
	Args: cobra.NoArgs,
	RunE: ServeCmdRunE,
}

// ---- send ----

func SendCmdFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "default configuration path")
	cmd.Flags().IntP("port", "p", protocol.DefaultPort, "collector port")
	cmd.Flags().Int("interval", config.DefaultIntervalMs, "milliseconds between records")
	cmd.Flags().Uint8("device-kind", 0, "device kind: 0 unknown, 1 phone, 2 tablet, 3 desktop, 4 tv, 5 watch, 6 other")
	cmd.Flags().IntP("count", "n", 0, "stop after this many acknowledged records (0 = until stopped)")
	cmd.Flags().String("source", config.DefaultSource, "sensor source: synthetic or modbus")
	cmd.Flags().String("state-dir", "", "directory holding this machine's id")
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

func SendCmdRunE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Parse(cmd)
	if err != nil {
		return err
	}
	config.PostParse(cfg)

	c := cfg.Client
	address, port := c.Address, strconv.Itoa(c.Port)
	if len(args) > 0 {
		address = args[0]
	}
	if len(args) > 1 {
		port = args[1]
	}

	ids, err := idfile.Open(filepath.Join(c.StateDir, idfile.ClientIDFile))
	if err != nil {
		return err
	}
	defer ids.Close()

	sources, closeSources, err := poller.BuildSources(c)
	if err != nil {
		return err
	}
	defer func() { _ = closeSources() }()

	logger := log.StandardLogger()

	p, err := poller.New(sources, time.Duration(c.SampleTimeoutMs)*time.Millisecond, logger)
	if err != nil {
		return err
	}

	runner, err := poller.NewRunner(poller.RunnerConfig{
		Address:    address,
		Port:       port,
		Interval:   time.Duration(c.IntervalMs) * time.Millisecond,
		DeviceKind: record.DeviceKind(c.DeviceKind),
		Count:      c.Count,
	}, p, transport.NewClient(logger), ids, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"collector": address + ":" + port,
		"machine":   runner.MachineID(),
		"source":    c.Source,
	}).Info("sending sensor data")

	err = runner.Run(ctx)
	log.WithFields(log.Fields{"sent": runner.Sent(), "machine": runner.MachineID()}).Info("stopped")
	return err
}

var SendCmd = &cobra.Command{
	Use: "send [address] [port]",
	SuggestFor: []string{
		"sen", "snd",
	},
	Short: "send samples this device and streams records to a collector",
	Long: `send samples this device's sensors and sends one record per interval.
The first acknowledged record assigns this machine an id, which is stored and reused.
Sending stops on the first record the collector does not acknowledge.
`,
	Example: `  sensorlink send 192.168.1.10
  sensorlink send 192.168.1.10 29482 --count 10 --device-kind 1`,
	Args: cobra.MaximumNArgs(2),
	RunE: SendCmdRunE,
}

// ---- init ----

func InitCmdFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", config.DefaultConfig, "specify output path")
}

var InitCmd = &cobra.Command{
	Use: "init",
	SuggestFor: []string{
		"ini", "in",
	},
	Short: "init creates a configuration template",
	Long: `init creates a configuration template.
If --print flag is present, the configuration will be printed to stdout.
If --output / -o flag is present, the configuration will be saved to the path specified
Otherwise init will output configuration file to $HOME/.config/sensorlink/config.yaml
If --yes / -y flag is present, an existing file will be overwritten
`,
	Example: `  sensorlink init --print
  sensorlink init -o /path/to/config.yaml -y`,
	Args: cobra.NoArgs,
	RunE: config.InitCfg,
}

func getRootCmd() *cobra.Command {
	ServeCmdFlags(ServeCmd)
	RootCmd.AddCommand(ServeCmd)

	SendCmdFlags(SendCmd)
	RootCmd.AddCommand(SendCmd)

	InitCmdFlags(InitCmd)
	RootCmd.AddCommand(InitCmd)

	return RootCmd
}
