// Copyright (c) 2025, NVIDIA CORPORATION. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	spec "github.com/NVIDIA/gpu-inventory/api/config/v1"
	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/info"
	"github.com/NVIDIA/gpu-inventory/internal/inventory"
	"github.com/NVIDIA/gpu-inventory/internal/render"
)

// Config represents a collection of config options for gpu-ls.
type Config struct {
	configFile string

	// flags stores the CLI flags for later processing.
	flags []cli.Flag
	// monitorFlags stores the flags only the monitor command accepts.
	monitorFlags []cli.Flag

	// inventoryOptions are applied after the options derived from the flags.
	inventoryOptions []inventory.Option
}

func main() {
	config := &Config{}

	c := newApp(config)
	if err := c.Run(os.Args); err != nil {
		klog.Error(err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func newApp(config *Config) *cli.App {
	c := cli.NewApp()
	c.Name = "gpu-ls"
	c.Usage = "list and monitor AMD, NVIDIA and Intel GPUs"
	c.Version = info.GetVersionString()
	c.Action = func(ctx *cli.Context) error {
		return list(ctx, config)
	}

	config.flags = []cli.Flag{
		&cli.StringFlag{
			Name:        spec.FlagConfigFile,
			Usage:       "the path to a config file as an alternative to command line options or environment variables",
			Destination: &config.configFile,
			EnvVars:     []string{"GPU_LS_CONFIG_FILE", "CONFIG_FILE"},
		},
		&cli.StringFlag{
			Name:    spec.FlagSensors,
			Value:   spec.DefaultSensors,
			Usage:   "the sensor set to read:\n\t\t[static | dynamic | info | state | all]",
			EnvVars: []string{"GPU_LS_SENSORS"},
		},
		&cli.BoolFlag{
			Name:    spec.FlagShort,
			Aliases: []string{"s"},
			Usage:   "limit the output to identity and key readings",
			EnvVars: []string{"GPU_LS_SHORT"},
		},
		&cli.StringFlag{
			Name:    spec.FlagFormat,
			Value:   spec.DefaultFormat,
			Usage:   "the output format:\n\t\t[" + strings.Join(formatNames(), " | ") + "]",
			EnvVars: []string{"GPU_LS_FORMAT"},
		},
		&cli.BoolFlag{
			Name:    spec.FlagPStates,
			Usage:   "read the clock/voltage pstate tables",
			EnvVars: []string{"GPU_LS_PSTATES"},
		},
		&cli.BoolFlag{
			Name:    spec.FlagPPM,
			Usage:   "read the power/performance mode tables",
			EnvVars: []string{"GPU_LS_PPM"},
		},
		&cli.BoolFlag{
			Name:    spec.FlagClinfo,
			Usage:   "include compute platform details",
			EnvVars: []string{"GPU_LS_CLINFO"},
		},
		&cli.StringFlag{
			Name:    spec.FlagOutputFile,
			Aliases: []string{"output", "o"},
			Usage:   "write the output to this file instead of stdout",
			EnvVars: []string{"GPU_LS_OUTPUT_FILE"},
		},
		&cli.GenericFlag{
			Name:    spec.FlagProbeTimeout,
			Value:   spec.NewDurationValue(spec.DefaultProbeTimeout),
			Usage:   "bound every vendor interface call; 'none' disables the bound",
			EnvVars: []string{"GPU_LS_PROBE_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    spec.FlagSysfsRoot,
			Value:   spec.DefaultSysfsRoot,
			Usage:   "the path where sysfs is mounted",
			EnvVars: []string{"GPU_LS_SYSFS_ROOT", "SYSFS_ROOT"},
		},
		&cli.StringFlag{
			Name:    spec.FlagPCIIDs,
			Usage:   "the path to a pci.ids database used for model names",
			EnvVars: []string{"GPU_LS_PCI_IDS"},
		},
		&cli.StringFlag{
			Name:    spec.FlagPlatformCommand,
			Value:   spec.DefaultPlatformCommand,
			Usage:   "the compute platform tool queried for --clinfo",
			EnvVars: []string{"GPU_LS_PLATFORM_COMMAND"},
		},
		&cli.BoolFlag{
			Name:    spec.FlagFailOnInitError,
			Usage:   "fail if a vendor interface cannot be initialized instead of treating its devices as unreadable",
			EnvVars: []string{"GPU_LS_FAIL_ON_INIT_ERROR", "FAIL_ON_INIT_ERROR"},
		},
	}

	config.monitorFlags = []cli.Flag{
		&cli.GenericFlag{
			Name:    spec.FlagInterval,
			Value:   spec.NewDurationValue(spec.DefaultMonitorInterval),
			Usage:   "time between refreshes",
			EnvVars: []string{"GPU_LS_INTERVAL"},
		},
		&cli.IntFlag{
			Name:    spec.FlagCount,
			Usage:   "number of refreshes before exiting; 0 runs until interrupted",
			EnvVars: []string{"GPU_LS_COUNT"},
		},
		&cli.StringFlag{
			Name:    spec.FlagMetricsAddress,
			Usage:   "serve Prometheus metrics on this address, e.g. ':9400'",
			EnvVars: []string{"GPU_LS_METRICS_ADDRESS"},
		},
	}

	c.Flags = config.flags
	c.Commands = []*cli.Command{
		{
			Name:  "list",
			Usage: "list the GPUs once and exit",
			Action: func(ctx *cli.Context) error {
				return list(ctx, config)
			},
		},
		{
			Name:  "monitor",
			Usage: "periodically refresh dynamic readings and render them as a table",
			Flags: config.monitorFlags,
			Action: func(ctx *cli.Context) error {
				return start(ctx, config)
			},
		},
		{
			Name:  "about",
			Usage: "print version and build information",
			Action: func(ctx *cli.Context) error {
				_, err := fmt.Fprint(ctx.App.Writer, info.About(ctx.App.Name))
				return err
			},
		},
	}

	return c
}

func formatNames() []string {
	var names []string
	for _, f := range render.Formats {
		names = append(names, string(f))
	}
	return names
}

func validateFlags(config *spec.Config) error {
	if output := config.Flags.Output; output != nil {
		if output.Sensors != nil {
			if _, err := gpu.ParseSensorSet(*output.Sensors); err != nil {
				return fmt.Errorf("invalid --%v option: %v", spec.FlagSensors, err)
			}
		}
		if output.Format != nil {
			if _, err := render.ParseFormat(*output.Format); err != nil {
				return fmt.Errorf("invalid --%v option: %v", spec.FlagFormat, err)
			}
		}
	}

	if monitor := config.Flags.Monitor; monitor != nil {
		if monitor.Interval != nil && *monitor.Interval <= 0 {
			return fmt.Errorf("invalid --%v option: must be positive", spec.FlagInterval)
		}
		if monitor.Count != nil && *monitor.Count < 0 {
			return fmt.Errorf("invalid --%v option: must not be negative", spec.FlagCount)
		}
	}

	if config.Flags.ProbeTimeout != nil && config.Flags.ProbeTimeout.IsNone() {
		klog.Warning("Vendor interface calls are not bounded; a hung device blocks the whole pass")
	}

	return nil
}

// loadConfig merges the config file and flags and validates the result.
func (cfg *Config) loadConfig(c *cli.Context, flags []cli.Flag) (*spec.Config, error) {
	config, err := spec.NewConfig(c, flags)
	if err != nil {
		return nil, fmt.Errorf("unable to finalize config: %v", err)
	}
	err = validateFlags(config)
	if err != nil {
		return nil, fmt.Errorf("unable to validate flags: %v", err)
	}

	configJSON, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to JSON: %v", err)
	}
	klog.V(2).Infof("Running with config:\n%v", string(configJSON))

	return config, nil
}

// options translates the config into inventory options.
func (cfg *Config) options(config *spec.Config) []inventory.Option {
	flags := config.Flags
	opts := []inventory.Option{
		inventory.WithSysfsRoot(*flags.SysfsRoot),
		inventory.WithProbeTimeout(flags.ProbeTimeoutDuration()),
		inventory.WithFailOnInitError(*flags.FailOnInitError),
		inventory.WithPlatformCommand(*flags.PlatformCommand),
	}
	if flags.PCIIDs != nil && *flags.PCIIDs != "" {
		opts = append(opts, inventory.WithPCIIDsPath(*flags.PCIIDs))
	}
	return append(opts, cfg.inventoryOptions...)
}

// renderOptions returns the format and render options selected by the config.
func renderOptions(config *spec.Config) (render.Format, render.Options, error) {
	output := config.Flags.Output
	format, err := render.ParseFormat(*output.Format)
	if err != nil {
		return "", render.Options{}, err
	}
	return format, render.Options{Short: *output.Short, IncludePlatform: *output.Clinfo}, nil
}
