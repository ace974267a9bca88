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
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

const mib = 1024 * 1024

var tempInputPattern = regexp.MustCompile(`^temp([0-9]+)_input$`)

// readSysfsFile is swapped out in tests that need to simulate read failures.
var readSysfsFile = os.ReadFile

func readString(dir, name string) (string, error) {
	data, err := readSysfsFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readInt(dir, name string) (int64, error) {
	s, err := readString(dir, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing %v: %w", name, err)
	}
	return v, nil
}

// collector accumulates attributes from optional sysfs files. Files that do
// not exist are silently left out.
type collector struct {
	attrs gpu.Attributes
}

func newCollector() *collector {
	return &collector{attrs: make(gpu.Attributes)}
}

func (c *collector) set(key string, v gpu.Value) {
	c.attrs[key] = v
}

func (c *collector) str(key, dir, name string) {
	if dir == "" {
		return
	}
	if s, err := readString(dir, name); err == nil && s != "" {
		c.attrs[key] = gpu.String(s)
	}
}

// scaled reads an integer file and divides it by div.
func (c *collector) scaled(key, dir, name string, div float64, unit string) {
	if dir == "" {
		return
	}
	if v, err := readInt(dir, name); err == nil {
		c.attrs[key] = gpu.Float(float64(v)/div, unit)
	}
}

// integer reads an integer file and divides it by div using integer arithmetic.
func (c *collector) integer(key, dir, name string, div int64, unit string) {
	if dir == "" {
		return
	}
	if v, err := readInt(dir, name); err == nil {
		c.attrs[key] = gpu.Int(v/div, unit)
	}
}

// temperatures reads every hwmon temperature input in degrees Celsius. The
// key is taken from the matching label file when present.
func (c *collector) temperatures(hwmon string) {
	if hwmon == "" {
		return
	}
	entries, err := os.ReadDir(hwmon)
	if err != nil {
		return
	}
	var names []string
	for _, e := range entries {
		if tempInputPattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		n := tempInputPattern.FindStringSubmatch(name)[1]
		label, err := readString(hwmon, "temp"+n+"_label")
		if err != nil || label == "" {
			label = "temp" + n
		}
		key := "temp_" + strings.ToLower(strings.ReplaceAll(label, " ", "_"))
		c.scaled(key, hwmon, name, 1000, "C")
	}
}

// fan reads the fan speed and the pwm duty cycle as a percentage.
func (c *collector) fan(hwmon string) {
	if hwmon == "" {
		return
	}
	c.integer("fan_speed", hwmon, "fan1_input", 1, "rpm")
	pwm, err := readInt(hwmon, "pwm1")
	if err != nil {
		return
	}
	pwmMax, err := readInt(hwmon, "pwm1_max")
	if err != nil || pwmMax <= 0 {
		pwmMax = 255
	}
	c.attrs["fan_pwm"] = gpu.Int(pwm*100/pwmMax, "%")
}

// fanMode decodes hwmon pwm1_enable.
func (c *collector) fanMode(hwmon string) {
	if hwmon == "" {
		return
	}
	mode, err := readInt(hwmon, "pwm1_enable")
	if err != nil {
		return
	}
	switch mode {
	case 0:
		c.attrs["fan_mode"] = gpu.String("none")
	case 1:
		c.attrs["fan_mode"] = gpu.String("manual")
	default:
		c.attrs["fan_mode"] = gpu.String("auto")
	}
}

// pcieLink reads the current and maximum PCIe link of a PCI device.
func (c *collector) pcieLink(devicePath string) {
	c.str("pcie_link_speed", devicePath, "current_link_speed")
	c.integer("pcie_link_width", devicePath, "current_link_width", 1, "")
	c.str("pcie_max_link_speed", devicePath, "max_link_speed")
	c.integer("pcie_max_link_width", devicePath, "max_link_width", 1, "")
}

func (c *collector) identity(d *gpu.Device) {
	c.set("model", gpu.String(d.Model))
	c.set("pci_address", gpu.String(d.PCIAddress))
	c.set("card", gpu.String(d.Card))
	c.set("vendor_id", gpu.String(fmt.Sprintf("0x%04x", d.VendorID)))
	c.set("device_id", gpu.String(fmt.Sprintf("0x%04x", d.DeviceID)))
	if d.SubsystemVendorID != 0 {
		c.set("subsystem_id", gpu.String(fmt.Sprintf("0x%04x:0x%04x", d.SubsystemVendorID, d.SubsystemDeviceID)))
	}
}

// driverVersion reads the version of a kernel module from sysfs.
func driverVersion(sysfsRoot, driver string) (string, error) {
	if driver == "" {
		return "", fmt.Errorf("no driver bound")
	}
	return readString(filepath.Join(sysfsRoot, "module", driver), "version")
}

// deviceGone returns an error if the sysfs directory of a device disappeared.
func deviceGone(d *gpu.Device) error {
	if _, err := os.Stat(d.DevicePath); err != nil {
		return fmt.Errorf("%w: %v", gpu.ErrDeviceProbeFailed, err)
	}
	return nil
}
