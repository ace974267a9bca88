// Copyright (c) 2025, NVIDIA CORPORATION. All rights reserved.

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/inventory"
	"github.com/NVIDIA/gpu-inventory/internal/reader"
	"github.com/NVIDIA/gpu-inventory/internal/render"
)

// list builds one inventory, reads the requested data and renders it.
func list(c *cli.Context, cfg *Config) error {
	config, err := cfg.loadConfig(c, cfg.flags)
	if err != nil {
		return fmt.Errorf("unable to load config: %v", err)
	}

	inv, err := inventory.New(c.Context, cfg.options(config)...)
	if err != nil {
		return fmt.Errorf("failed to build inventory: %w", err)
	}
	defer func() {
		if err := inv.Close(); err != nil {
			klog.Warningf("Error shutting down vendor interfaces: %v", err)
		}
	}()

	if err := inv.Check(); err != nil {
		return err
	}

	format, opts, err := renderOptions(config)
	if err != nil {
		return err
	}
	output := config.Flags.Output

	set, err := gpu.ParseSensorSet(*output.Sensors)
	if err != nil {
		return err
	}
	if opts.Short {
		set = gpu.Static
	}
	logSummary(set, inv.ReadSensorSet(c.Context, set))

	if *output.PStates {
		logSummary("pstates", inv.ReadPStates(c.Context))
	}
	if *output.PPM {
		logSummary("ppm", inv.ReadPPM(c.Context))
	}
	if opts.IncludePlatform && !inv.MergePlatform(c.Context) {
		opts.IncludePlatform = false
	}

	return render.ToFile(*output.OutputFile, format, opts).Output(inv)
}

func logSummary(what interface{}, s reader.Summary) {
	klog.V(2).Infof("Read %v: %+v", what, s)
}
