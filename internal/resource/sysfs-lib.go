/**
# Copyright (c) 2022, NVIDIA CORPORATION.  All rights reserved.
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

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/probe"
)

// gtFrequencies are the i915/xe frequency files reported as pstates, in the
// order the table lists them.
var gtFrequencies = []struct {
	domain string
	file   string
}{
	{"RPn", "gt_RPn_freq_mhz"},
	{"RP1", "gt_RP1_freq_mhz"},
	{"RP0", "gt_RP0_freq_mhz"},
	{"MIN", "gt_min_freq_mhz"},
	{"MAX", "gt_max_freq_mhz"},
}

type sysfsLib struct {
	sysfsRoot string
}

var _ Manager = (*sysfsLib)(nil)

// NewSysfsManager returns a read-only manager for devices that only expose
// the generic DRM and hwmon interfaces.
func NewSysfsManager(caps probe.Capabilities) Manager {
	return &sysfsLib{sysfsRoot: caps.SysfsRoot}
}

// Init is a no-op for the sysfs manager
func (l *sysfsLib) Init() error {
	return nil
}

// Shutdown is a no-op for the sysfs manager
func (l *sysfsLib) Shutdown() error {
	return nil
}

// ProbeRead checks for a readable temperature sensor or GT frequency.
func (l *sysfsLib) ProbeRead(d *gpu.Device) error {
	if d.HwmonPath != "" {
		if _, err := readInt(d.HwmonPath, "temp1_input"); err == nil {
			return nil
		}
	}
	if _, err := readInt(l.cardPath(d), "gt_cur_freq_mhz"); err == nil {
		return nil
	}
	return fmt.Errorf("%w: no readable sensor for %v", gpu.ErrDeviceProbeFailed, d.Card)
}

// ProbeWrite always fails; no write interface is known for these devices.
func (l *sysfsLib) ProbeWrite(d *gpu.Device) error {
	return fmt.Errorf("%w: no write interface for %v", gpu.ErrDeviceProbeFailed, d.Vendor)
}

// QueryStatic returns the PCI identity of the device.
func (l *sysfsLib) QueryStatic(d *gpu.Device) (gpu.Attributes, error) {
	if err := deviceGone(d); err != nil {
		return nil, err
	}
	c := newCollector()
	c.identity(d)
	c.integer("max_clock_graphics", l.cardPath(d), "gt_RP0_freq_mhz", 1, "MHz")
	return c.attrs, nil
}

// QueryDynamic returns temperatures, power and the current GT frequency.
func (l *sysfsLib) QueryDynamic(d *gpu.Device) (gpu.Attributes, error) {
	if err := deviceGone(d); err != nil {
		return nil, err
	}
	c := newCollector()
	c.temperatures(d.HwmonPath)
	c.scaled("power", d.HwmonPath, "power1_average", 1e6, "W")
	c.fan(d.HwmonPath)
	c.integer("graphics_clock", l.cardPath(d), "gt_cur_freq_mhz", 1, "MHz")
	c.integer("graphics_clock_actual", l.cardPath(d), "gt_act_freq_mhz", 1, "MHz")
	return c.attrs, nil
}

// QueryInfo returns driver and PCIe link metadata.
func (l *sysfsLib) QueryInfo(d *gpu.Device) (gpu.Attributes, error) {
	if err := deviceGone(d); err != nil {
		return nil, err
	}
	c := newCollector()
	if d.Driver != "" {
		c.set("driver", gpu.String(d.Driver))
	}
	if v, err := driverVersion(l.sysfsRoot, d.Driver); err == nil && v != "" {
		c.set("driver_version", gpu.String(v))
	}
	c.pcieLink(d.DevicePath)
	return c.attrs, nil
}

// QueryState returns the GT frequency limits, the PCI power state and the
// fan mode.
func (l *sysfsLib) QueryState(d *gpu.Device) (gpu.Attributes, error) {
	if err := deviceGone(d); err != nil {
		return nil, err
	}
	c := newCollector()
	c.integer("min_clock_graphics", l.cardPath(d), "gt_min_freq_mhz", 1, "MHz")
	c.integer("boost_clock_graphics", l.cardPath(d), "gt_boost_freq_mhz", 1, "MHz")
	c.str("power_state", d.DevicePath, "power_state")
	c.str("runtime_status", filepath.Join(d.DevicePath, "power"), "runtime_status")
	c.fanMode(d.HwmonPath)
	return c.attrs, nil
}

// QueryPStates reports the GT frequency steps. Devices without them have an
// empty table.
func (l *sysfsLib) QueryPStates(d *gpu.Device) (gpu.PStateTable, error) {
	table := gpu.PStateTable{}
	for i, f := range gtFrequencies {
		v, err := readInt(l.cardPath(d), f.file)
		if err != nil {
			continue
		}
		table = append(table, gpu.PState{
			Domain:   f.domain,
			Index:    i,
			ClockMHz: int(v),
		})
	}
	return table, nil
}

// QueryPPM is not supported
func (l *sysfsLib) QueryPPM(*gpu.Device) (gpu.PPMTable, error) {
	return gpu.PPMTable{}, unsupported("ppm")
}

func (l *sysfsLib) cardPath(d *gpu.Device) string {
	return filepath.Join(l.sysfsRoot, "class", "drm", d.Card)
}
