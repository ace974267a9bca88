// Copyright (c) 2025, NVIDIA CORPORATION. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	spec "github.com/NVIDIA/gpu-inventory/api/config/v1"
	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/inventory"
	"github.com/NVIDIA/gpu-inventory/internal/metrics"
	"github.com/NVIDIA/gpu-inventory/internal/render"
	"github.com/NVIDIA/gpu-inventory/internal/watch"
)

func start(c *cli.Context, cfg *Config) error {
	defer func() {
		klog.Info("Exiting")
	}()

	klog.Info("Starting OS watcher.")
	sigs := watch.Signals(syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	flags := append(append([]cli.Flag{}, cfg.flags...), cfg.monitorFlags...)
	for {
		klog.Info("Loading configuration.")
		config, err := cfg.loadConfig(c, flags)
		if err != nil {
			return fmt.Errorf("unable to load config: %v", err)
		}

		m := &monitor{
			config:     config,
			configFile: cfg.configFile,
			options:    cfg.options(config),
		}
		restart, err := m.run(c.Context, sigs)
		if err != nil {
			return err
		}

		if !restart {
			return nil
		}
	}
}

type monitor struct {
	config     *spec.Config
	configFile string
	options    []inventory.Option
}

// run refreshes the inventory until the refresh count is reached or a signal
// arrives. It returns true if the caller should reload the config and restart.
func (m *monitor) run(ctx context.Context, sigs chan os.Signal) (bool, error) {
	inv, err := inventory.New(ctx, m.options...)
	if err != nil {
		return false, fmt.Errorf("failed to build inventory: %w", err)
	}
	defer func() {
		if err := inv.Close(); err != nil {
			klog.Warningf("Error shutting down vendor interfaces: %v", err)
		}
	}()
	if err := inv.Check(); err != nil {
		return false, err
	}

	var events <-chan fsnotify.Event
	var watchErrors <-chan error
	if m.configFile != "" {
		watcher, err := watch.ConfigFile(m.configFile)
		if err != nil {
			return false, fmt.Errorf("failed to watch config file: %v", err)
		}
		defer watcher.Close()
		events = watcher.Events
		watchErrors = watcher.Errors
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	defer func() {
		cancel()
		if err := g.Wait(); err != nil {
			klog.Warningf("Metrics server: %v", err)
		}
	}()

	var collector *metrics.Collector
	var server *metrics.Server
	if addr := *m.config.Flags.Monitor.MetricsAddress; addr != "" {
		collector = metrics.NewCollector()
		server = metrics.NewServer(addr, collector)
		g.Go(func() error {
			return server.Run(ctx)
		})
	}

	_, opts, err := renderOptions(m.config)
	if err != nil {
		return false, err
	}
	outputer := render.ToFile(*m.config.Flags.Output.OutputFile, render.FormatTable, opts)

	inv.ReadSensorSet(ctx, gpu.Static)
	if opts.IncludePlatform {
		opts.IncludePlatform = inv.MergePlatform(ctx)
	}

	interval := time.Duration(*m.config.Flags.Monitor.Interval)
	count := *m.config.Flags.Monitor.Count
	for n := 0; count == 0 || n < count; n++ {
		if n > 0 {
			klog.V(4).Info("Sleeping for ", interval)
			rerunTimeout := time.After(interval)
		wait:
			for {
				select {
				case <-rerunTimeout:
					break wait

				// Watch for any signals from the OS. On SIGHUP trigger a reload of the config.
				// On all other signals, exit the loop and exit the program.
				case s := <-sigs:
					switch s {
					case syscall.SIGHUP:
						klog.Info("Received SIGHUP, restarting.")
						return true, nil
					default:
						klog.Infof("Received signal %v, shutting down.", s)
						return false, nil
					}

				case event := <-events:
					if watch.Changed(event, m.configFile) {
						klog.Infof("Config file %v changed, restarting.", m.configFile)
						return true, nil
					}

				case err := <-watchErrors:
					klog.Warningf("Error watching config file: %v", err)

				case <-ctx.Done():
					if err := g.Wait(); err != nil {
						return false, fmt.Errorf("metrics server stopped: %v", err)
					}
					klog.Infof("Monitor stopped: %v", ctx.Err())
					return false, nil
				}
			}
		}

		outcome := refresh(ctx, inv)
		if err := outputer.Output(inv); err != nil {
			return false, err
		}
		if collector != nil {
			collector.Update(inv.Devices())
			server.ObserveRefresh(outcome)
		}
	}

	return false, nil
}

// refresh re-reads the sets that change between samples and returns the
// outcome label for the refresh counter.
func refresh(ctx context.Context, inv *inventory.Inventory) string {
	outcome := "ok"
	for _, set := range []gpu.SensorSet{gpu.Dynamic, gpu.State} {
		s := inv.ReadSensorSet(ctx, set)
		if s.Failed > 0 {
			outcome = "partial"
		}
	}
	return outcome
}
