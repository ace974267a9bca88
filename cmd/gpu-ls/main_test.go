// Copyright (c) 2025, NVIDIA CORPORATION. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	spec "github.com/NVIDIA/gpu-inventory/api/config/v1"
	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/inventory"
	"github.com/NVIDIA/gpu-inventory/internal/probe"
	"github.com/NVIDIA/gpu-inventory/internal/resource"
	rt "github.com/NVIDIA/gpu-inventory/internal/resource/testing"
)

// prt returns a reference to whatever type is passed into it
func ptr[T any](x T) *T {
	return &x
}

type names struct{}

func (names) GetDeviceName(uint16, uint16) (string, error) { return "", fmt.Errorf("unknown device") }
func (names) GetClassName(uint32) (string, error)          { return "", fmt.Errorf("unknown class") }

type noNvml struct{}

func (noNvml) HasNvml() (bool, string) { return false, "not found" }

// newTestConfig returns a config whose inventory is built from a fake sysfs
// tree with an AMD card and an Intel card.
func newTestConfig(t *testing.T) (*Config, *rt.Sysfs, resource.Managers) {
	s := rt.NewSysfs(t, t.TempDir())
	s.AddCard(rt.NewAMDCard(0, "0000:0b:00.0"))
	s.AddCard(rt.Card{
		Index:    1,
		Address:  "0000:00:02.0",
		Class:    0x030000,
		VendorID: gpu.PCIVendorIntel,
		DeviceID: 0x9a49,
		Driver:   "i915",
	})

	managers := resource.Managers{
		gpu.VendorAMD:   rt.NewManagerMock(true, true),
		gpu.VendorIntel: rt.NewManagerMock(true, false),
	}
	cfg := &Config{
		inventoryOptions: []inventory.Option{
			inventory.WithProber(probe.New(
				probe.WithSysfsRoot(s.Root),
				probe.WithNvmlDetector(noNvml{}),
				probe.WithPlatformCommand(""),
			)),
			inventory.WithManagers(managers),
			inventory.WithPCINames(names{}),
		},
	}
	return cfg, s, managers
}

func TestValidateFlags(t *testing.T) {
	testCases := []struct {
		description string
		flags       spec.CommandLineFlags
		expectedErr bool
	}{
		{
			description: "empty",
		},
		{
			description: "valid output and monitor flags",
			flags: spec.CommandLineFlags{
				Output:  &spec.OutputCommandLineFlags{Sensors: ptr("ALL"), Format: ptr("table")},
				Monitor: &spec.MonitorCommandLineFlags{Interval: ptr(spec.Duration(time.Second)), Count: ptr(0)},
			},
		},
		{
			description: "unknown sensor set",
			flags: spec.CommandLineFlags{
				Output: &spec.OutputCommandLineFlags{Sensors: ptr("thermal")},
			},
			expectedErr: true,
		},
		{
			description: "unknown format",
			flags: spec.CommandLineFlags{
				Output: &spec.OutputCommandLineFlags{Format: ptr("yaml")},
			},
			expectedErr: true,
		},
		{
			description: "zero interval",
			flags: spec.CommandLineFlags{
				Monitor: &spec.MonitorCommandLineFlags{Interval: ptr(spec.Duration(0))},
			},
			expectedErr: true,
		},
		{
			description: "negative count",
			flags: spec.CommandLineFlags{
				Monitor: &spec.MonitorCommandLineFlags{Count: ptr(-1)},
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			config := &spec.Config{Version: spec.Version, Flags: spec.Flags{CommandLineFlags: tc.flags}}
			err := validateFlags(config)
			if tc.expectedErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestListJSON(t *testing.T) {
	cfg, s, managers := newTestConfig(t)
	output := filepath.Join(t.TempDir(), "inventory.json")

	app := newApp(cfg)
	err := app.Run([]string{"gpu-ls", "--sysfs-root", s.Root, "--sensors", "all", "--pstates", "--format", "json", "-o", output})
	require.NoError(t, err)

	contents, err := os.ReadFile(output)
	require.NoError(t, err)

	var out struct {
		Capabilities inventory.CapabilityCounts `json:"capabilities"`
		Devices      []struct {
			Card          string                            `json:"card"`
			Vendor        string                            `json:"vendor"`
			Compatibility string                            `json:"compatibility"`
			Attributes    map[string]map[string]interface{} `json:"attributes"`
			PStates       []interface{}                     `json:"pstates"`
		} `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(contents, &out))
	require.Equal(t, inventory.CapabilityCounts{Total: 2, RW: 1, ROnly: 1}, out.Capabilities)

	require.Len(t, out.Devices, 2)
	for _, d := range out.Devices {
		require.Len(t, d.Attributes, len(gpu.BaseSets), d.Card)
		require.Len(t, d.PStates, 2, d.Card)
	}
	require.Equal(t, "Readable+Writable", out.Devices[0].Compatibility)
	require.Equal(t, "Readable", out.Devices[1].Compatibility)

	require.Len(t, managers[gpu.VendorAMD].(*resource.ManagerMock).ShutdownCalls(), 1)
}

func TestListReadsOnlyRequestedSet(t *testing.T) {
	cfg, s, managers := newTestConfig(t)
	output := filepath.Join(t.TempDir(), "inventory.json")

	app := newApp(cfg)
	err := app.Run([]string{"gpu-ls", "--sysfs-root", s.Root, "--sensors", "dynamic", "--format", "json", "-o", output})
	require.NoError(t, err)

	contents, err := os.ReadFile(output)
	require.NoError(t, err)

	var out struct {
		Devices []struct {
			Attributes map[string]map[string]interface{} `json:"attributes"`
		} `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(contents, &out))
	require.Len(t, out.Devices, 2)
	for _, d := range out.Devices {
		require.Len(t, d.Attributes, 1)
		require.Contains(t, d.Attributes, "dynamic")
	}

	amd := managers[gpu.VendorAMD].(*resource.ManagerMock)
	require.Empty(t, amd.QueryStaticCalls())
	require.Len(t, amd.QueryDynamicCalls(), 1)
}

func TestListShort(t *testing.T) {
	cfg, s, managers := newTestConfig(t)
	output := filepath.Join(t.TempDir(), "inventory.txt")

	app := newApp(cfg)
	err := app.Run([]string{"gpu-ls", "list", "--sysfs-root", s.Root, "--sensors", "dynamic", "--short", "--format", "listing", "-o", output})
	require.NoError(t, err)

	contents, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Contains(t, string(contents), "card0: AMD")
	require.Contains(t, string(contents), "card1: INTEL")
	require.NotContains(t, string(contents), "[dynamic]")

	amd := managers[gpu.VendorAMD].(*resource.ManagerMock)
	require.Len(t, amd.QueryStaticCalls(), 1)
	require.Empty(t, amd.QueryDynamicCalls())
}

func TestListNoGpuSubsystem(t *testing.T) {
	s := rt.NewSysfs(t, t.TempDir())
	cfg := &Config{
		inventoryOptions: []inventory.Option{
			inventory.WithProber(probe.New(
				probe.WithSysfsRoot(s.Root),
				probe.WithNvmlDetector(noNvml{}),
				probe.WithPlatformCommand(""),
			)),
			inventory.WithManagers(resource.Managers{}),
		},
	}

	app := newApp(cfg)
	err := app.Run([]string{"gpu-ls", "--sysfs-root", s.Root, "-o", filepath.Join(t.TempDir(), "out")})
	require.ErrorIs(t, err, gpu.ErrNoGpuSubsystem)
}

func TestListInvalidFlags(t *testing.T) {
	cfg, s, _ := newTestConfig(t)

	app := newApp(cfg)
	err := app.Run([]string{"gpu-ls", "--sysfs-root", s.Root, "--format", "yaml"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unable to validate flags")
}

func TestListConfigFile(t *testing.T) {
	cfg, s, _ := newTestConfig(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "inventory.txt")
	configFile := filepath.Join(dir, "config.yaml")
	config := "version: v1\nflags:\n  sysfsRoot: " + s.Root + "\n  output:\n    format: compact\n    outputFile: " + output + "\n"
	require.NoError(t, os.WriteFile(configFile, []byte(config), 0600))

	app := newApp(cfg)
	require.NoError(t, app.Run([]string{"gpu-ls", "--config-file", configFile}))

	contents, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "0   card0"))
}

func TestMonitorCount(t *testing.T) {
	cfg, s, managers := newTestConfig(t)
	output := filepath.Join(t.TempDir(), "monitor.txt")

	app := newApp(cfg)
	err := app.Run([]string{"gpu-ls", "--sysfs-root", s.Root, "-o", output, "monitor", "--interval", "10ms", "--count", "3"})
	require.NoError(t, err)

	contents, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Contains(t, string(contents), "card0")
	require.Contains(t, string(contents), "card1")

	amd := managers[gpu.VendorAMD].(*resource.ManagerMock)
	require.Len(t, amd.QueryStaticCalls(), 1)
	require.Len(t, amd.QueryDynamicCalls(), 3)
	require.Len(t, amd.QueryStateCalls(), 3)
	require.Len(t, amd.ShutdownCalls(), 1)
}

func TestMonitorStopsOnCancel(t *testing.T) {
	cfg, s, _ := newTestConfig(t)
	output := filepath.Join(t.TempDir(), "monitor.txt")
	config := &spec.Config{
		Version: spec.Version,
		Flags: spec.Flags{CommandLineFlags: spec.CommandLineFlags{
			SysfsRoot:       ptr(s.Root),
			ProbeTimeout:    ptr(spec.Duration(time.Second)),
			FailOnInitError: ptr(false),
			PlatformCommand: ptr(""),
			Output: &spec.OutputCommandLineFlags{
				Sensors:    ptr(spec.DefaultSensors),
				Short:      ptr(false),
				Format:     ptr("table"),
				PStates:    ptr(false),
				PPM:        ptr(false),
				Clinfo:     ptr(false),
				OutputFile: ptr(output),
			},
			Monitor: &spec.MonitorCommandLineFlags{
				Interval:       ptr(spec.Duration(time.Hour)),
				Count:          ptr(0),
				MetricsAddress: ptr(""),
			},
		}},
	}
	m := &monitor{config: config, options: cfg.options(config)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	restart, err := m.run(ctx, make(chan os.Signal))
	require.NoError(t, err)
	require.False(t, restart)

	_, err = os.Stat(output)
	require.NoError(t, err)
}

func TestAbout(t *testing.T) {
	var buf bytes.Buffer
	app := newApp(&Config{})
	app.Writer = &buf

	require.NoError(t, app.Run([]string{"gpu-ls", "about"}))
	require.True(t, strings.HasPrefix(buf.String(), "gpu-ls: "))
	require.Contains(t, buf.String(), "Version: ")
}
