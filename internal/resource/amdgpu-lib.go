/**
# Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
#
# Licensed under the Apache License, Version 2.0 (the "License");
# you may not use this file except in compliance with the License.
# You may obtain a copy of the License at
#
#     http://www.apache.org/licenses/LICENSE-2.0
#
# Unless required by applicable law or agreed to in writing, software
# distributed under the License is distributed on an "AS IS" BASIS,
# WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
# See the License for the specific language governing permissions and
# limitations under the License.
**/

package resource

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/procfs/sysfs"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/probe"
)

type amdgpuLib struct {
	sysfsRoot   string
	featureMask uint64
	overdrive   bool
	sysfs       *sysfs.FS
	accessWrite func(path string) error
}

var _ Manager = (*amdgpuLib)(nil)

// NewAMDGPUManager returns a manager that queries devices bound to the amdgpu
// kernel driver through sysfs.
func NewAMDGPUManager(caps probe.Capabilities) Manager {
	return &amdgpuLib{
		sysfsRoot:   caps.SysfsRoot,
		featureMask: caps.AMDFeatureMask,
		overdrive:   caps.AMDOverdrive,
		accessWrite: func(path string) error {
			return unix.Access(path, unix.W_OK)
		},
	}
}

// Init opens the procfs view of sysfs. Failing to do so is not fatal; the
// stats it provides are then read from the device files directly.
func (l *amdgpuLib) Init() error {
	fs, err := sysfs.NewFS(l.sysfsRoot)
	if err != nil {
		klog.Warningf("Unable to open sysfs at %v for amdgpu stats: %v", l.sysfsRoot, err)
		return nil
	}
	l.sysfs = &fs
	return nil
}

// Shutdown is a no-op for the amdgpu manager
func (l *amdgpuLib) Shutdown() error {
	return nil
}

// ProbeRead checks that the DPM clock table can be read.
func (l *amdgpuLib) ProbeRead(d *gpu.Device) error {
	if _, err := readString(d.DevicePath, "pp_dpm_sclk"); err != nil {
		return fmt.Errorf("%w: %v", gpu.ErrDeviceProbeFailed, err)
	}
	return nil
}

// ProbeWrite checks that overdrive is enabled and that the forced performance
// level could be written by the current user. Nothing is written.
func (l *amdgpuLib) ProbeWrite(d *gpu.Device) error {
	if !l.overdrive {
		return fmt.Errorf("%w: overdrive disabled in ppfeaturemask 0x%x", gpu.ErrDeviceProbeFailed, l.featureMask)
	}
	path := filepath.Join(d.DevicePath, "power_dpm_force_performance_level")
	if err := l.accessWrite(path); err != nil {
		return fmt.Errorf("%w: %v: %v", gpu.ErrDeviceProbeFailed, path, err)
	}
	return nil
}

// QueryStatic returns attributes fixed at boot.
func (l *amdgpuLib) QueryStatic(d *gpu.Device) (gpu.Attributes, error) {
	if err := deviceGone(d); err != nil {
		return nil, err
	}
	c := newCollector()
	c.identity(d)
	c.str("vbios_version", d.DevicePath, "vbios_version")
	c.integer("vram_total", d.DevicePath, "mem_info_vram_total", mib, "MiB")
	c.str("vram_vendor", d.DevicePath, "mem_info_vram_vendor")
	c.integer("gtt_total", d.DevicePath, "mem_info_gtt_total", mib, "MiB")
	c.str("unique_id", d.DevicePath, "unique_id")
	c.scaled("power_cap_max", d.HwmonPath, "power1_cap_max", 1e6, "W")
	return c.attrs, nil
}

// QueryDynamic returns continuously changing values.
func (l *amdgpuLib) QueryDynamic(d *gpu.Device) (gpu.Attributes, error) {
	if err := deviceGone(d); err != nil {
		return nil, err
	}
	c := newCollector()
	if stats, ok := l.cardStats(d); ok {
		c.set("gpu_busy", gpu.Int(int64(stats.GPUBusyPercent), "%"))
		c.set("vram_used", gpu.Int(int64(stats.MemoryVRAMUsed/mib), "MiB"))
		c.set("gtt_used", gpu.Int(int64(stats.MemoryGTTUsed/mib), "MiB"))
	} else {
		c.integer("gpu_busy", d.DevicePath, "gpu_busy_percent", 1, "%")
		c.integer("vram_used", d.DevicePath, "mem_info_vram_used", mib, "MiB")
		c.integer("gtt_used", d.DevicePath, "mem_info_gtt_used", mib, "MiB")
	}
	c.integer("mem_busy", d.DevicePath, "mem_busy_percent", 1, "%")
	c.temperatures(d.HwmonPath)
	c.scaled("power", d.HwmonPath, "power1_average", 1e6, "W")
	c.fan(d.HwmonPath)
	c.integer("sclk", d.HwmonPath, "freq1_input", 1e6, "MHz")
	c.integer("mclk", d.HwmonPath, "freq2_input", 1e6, "MHz")
	c.integer("vddgfx", d.HwmonPath, "in0_input", 1, "mV")
	return c.attrs, nil
}

// QueryInfo returns driver metadata.
func (l *amdgpuLib) QueryInfo(d *gpu.Device) (gpu.Attributes, error) {
	if err := deviceGone(d); err != nil {
		return nil, err
	}
	c := newCollector()
	c.set("driver", gpu.String(d.Driver))
	if v, err := driverVersion(l.sysfsRoot, d.Driver); err == nil && v != "" {
		c.set("driver_version", gpu.String(v))
	}
	c.pcieLink(d.DevicePath)
	c.scaled("power_cap", d.HwmonPath, "power1_cap", 1e6, "W")
	c.set("ppfeaturemask", gpu.String(fmt.Sprintf("0x%08x", l.featureMask)))
	c.set("overdrive", gpu.Bool(l.overdrive))
	return c.attrs, nil
}

// QueryState returns the current discrete modes.
func (l *amdgpuLib) QueryState(d *gpu.Device) (gpu.Attributes, error) {
	if err := deviceGone(d); err != nil {
		return nil, err
	}
	c := newCollector()
	if stats, ok := l.cardStats(d); ok && stats.PowerDPMForcePerformanceLevel != "" {
		c.set("performance_level", gpu.String(stats.PowerDPMForcePerformanceLevel))
	} else {
		c.str("performance_level", d.DevicePath, "power_dpm_force_performance_level")
	}
	c.str("dpm_state", d.DevicePath, "power_dpm_state")
	for key, file := range map[string]string{"sclk_level": "pp_dpm_sclk", "mclk_level": "pp_dpm_mclk"} {
		if s, err := readString(d.DevicePath, file); err == nil {
			if row, ok := currentDPMLevel(s); ok && row.Label != "" {
				c.set(key, gpu.String(row.Label))
			} else if ok {
				c.set(key, gpu.Int(int64(row.Index), ""))
			}
		}
	}
	if s, err := readString(d.DevicePath, "pp_power_profile_mode"); err == nil {
		if name, ok := currentPowerProfile(parsePowerProfileMode(s)); ok {
			c.set("power_profile", gpu.String(name))
		}
	}
	c.fanMode(d.HwmonPath)
	return c.attrs, nil
}

// QueryPStates returns the overdrive clock/voltage table when the device
// exposes one and the DPM clock tables otherwise.
func (l *amdgpuLib) QueryPStates(d *gpu.Device) (gpu.PStateTable, error) {
	if s, err := readString(d.DevicePath, "pp_od_clk_voltage"); err == nil {
		if table := parseODClockVoltage(s); len(table) > 0 {
			return table, nil
		}
	}

	sclk, err := readString(d.DevicePath, "pp_dpm_sclk")
	if err != nil {
		return nil, fmt.Errorf("error reading pp_dpm_sclk: %w", err)
	}
	table := parseDPM("SCLK", sclk)
	if mclk, err := readString(d.DevicePath, "pp_dpm_mclk"); err == nil {
		table = append(table, parseDPM("MCLK", mclk)...)
	}
	return table, nil
}

// QueryPPM returns the power profile modes.
func (l *amdgpuLib) QueryPPM(d *gpu.Device) (gpu.PPMTable, error) {
	s, err := readString(d.DevicePath, "pp_power_profile_mode")
	if err != nil {
		return gpu.PPMTable{}, unsupported(fmt.Sprintf("ppm: %v", err))
	}
	return parsePowerProfileMode(s), nil
}

// cardStats returns the procfs view of the amdgpu card, if available.
func (l *amdgpuLib) cardStats(d *gpu.Device) (sysfs.ClassDRMCardAMDGPUStats, bool) {
	if l.sysfs == nil {
		return sysfs.ClassDRMCardAMDGPUStats{}, false
	}
	stats, err := l.sysfs.ClassDRMCardAMDGPUStats()
	if err != nil {
		klog.V(4).Infof("Unable to read amdgpu stats: %v", err)
		return sysfs.ClassDRMCardAMDGPUStats{}, false
	}
	for _, s := range stats {
		if s.Name == d.Card {
			return s, true
		}
	}
	return sysfs.ClassDRMCardAMDGPUStats{}, false
}
