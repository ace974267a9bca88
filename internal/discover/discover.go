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

package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/NVIDIA/go-nvlib/pkg/pciids"
	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

// pciDisplayClass is the PCI base class shared by VGA, XGA and 3D controllers.
const pciDisplayClass = 0x03

var cardPattern = regexp.MustCompile(`^card([0-9]+)$`)

// Result is the outcome of one enumeration pass.
type Result struct {
	Devices []*gpu.Device
	// Skipped counts device nodes that were malformed and left out.
	Skipped int
}

// Enumerator walks the DRM class of sysfs and builds one record per GPU.
type Enumerator struct {
	sysfsRoot  string
	pciidsPath string
	names      pciids.Interface
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithSysfsRoot sets the sysfs mount point.
func WithSysfsRoot(root string) Option {
	return func(e *Enumerator) {
		e.sysfsRoot = root
	}
}

// WithPCIIDsPath sets a pci.ids database that takes precedence over the
// system locations.
func WithPCIIDsPath(path string) Option {
	return func(e *Enumerator) {
		e.pciidsPath = path
	}
}

// WithNames overrides the PCI name database.
func WithNames(names pciids.Interface) Option {
	return func(e *Enumerator) {
		e.names = names
	}
}

// New creates an Enumerator.
func New(opts ...Option) *Enumerator {
	e := &Enumerator{
		sysfsRoot: "/sys",
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.names == nil {
		var dbOpts []pciids.Option
		if e.pciidsPath != "" {
			dbOpts = append(dbOpts, pciids.WithFilePath(e.pciidsPath))
		}
		e.names = pciids.NewDB(dbOpts...)
	}
	return e
}

// Enumerate scans the host for GPUs. A malformed node is skipped and counted
// rather than failing the pass; an error is only returned if the DRM class
// itself cannot be read.
func (e *Enumerator) Enumerate() (*Result, error) {
	drm := filepath.Join(e.sysfsRoot, "class", "drm")
	entries, err := os.ReadDir(drm)
	if err != nil {
		return nil, fmt.Errorf("error reading %v: %w", drm, err)
	}

	type card struct {
		name  string
		index int
	}
	var cards []card
	for _, entry := range entries {
		m := cardPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		index, _ := strconv.Atoi(m[1])
		cards = append(cards, card{entry.Name(), index})
	}
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].index < cards[j].index
	})

	result := &Result{}
	for _, c := range cards {
		d, isGPU, err := e.newDevice(filepath.Join(drm, c.name))
		if err != nil {
			klog.Warningf("Skipping malformed device node %v: %v", c.name, err)
			result.Skipped++
			continue
		}
		if !isGPU {
			klog.V(4).Infof("Ignoring non-GPU device %v", c.name)
			continue
		}
		d.ID = len(result.Devices)
		result.Devices = append(result.Devices, d)
	}

	klog.Infof("Enumerated %d GPU(s), skipped %d malformed node(s)", len(result.Devices), result.Skipped)
	return result, nil
}

func (e *Enumerator) newDevice(cardPath string) (*gpu.Device, bool, error) {
	devicePath := filepath.Join(cardPath, "device")
	resolved, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return nil, false, fmt.Errorf("error resolving device link: %w", err)
	}
	address := filepath.Base(resolved)
	if strings.Count(address, ":") < 2 {
		// simpledrm, vgem and SoC display controllers sit on platform buses.
		klog.V(4).Infof("Ignoring non-PCI device %v at %v", filepath.Base(cardPath), resolved)
		return nil, false, nil
	}

	class, err := readHex(devicePath, "class")
	if err != nil {
		return nil, false, err
	}
	vendorID, err := readHex(devicePath, "vendor")
	if err != nil {
		return nil, false, err
	}
	deviceID, err := readHex(devicePath, "device")
	if err != nil {
		return nil, false, err
	}
	if class>>16 != pciDisplayClass {
		return nil, false, nil
	}

	// The subsystem ids are informational; virtual devices may not expose them.
	subVendor, _ := readHex(devicePath, "subsystem_vendor")
	subDevice, _ := readHex(devicePath, "subsystem_device")

	driver := ""
	if link, err := os.Readlink(filepath.Join(devicePath, "driver")); err == nil {
		driver = filepath.Base(link)
	}

	d := &gpu.Device{
		Card:              filepath.Base(cardPath),
		Vendor:            gpu.ResolveVendor(uint16(vendorID), driver),
		VendorID:          uint16(vendorID),
		DeviceID:          uint16(deviceID),
		SubsystemVendorID: uint16(subVendor),
		SubsystemDeviceID: uint16(subDevice),
		PCIAddress:        address,
		Driver:            driver,
		DevicePath:        devicePath,
		HwmonPath:         findHwmon(devicePath),
		Compatibility:     gpu.Unreadable,
	}
	d.Model = e.modelName(d.VendorID, d.DeviceID)
	return d, true, nil
}

func (e *Enumerator) modelName(vendorID, deviceID uint16) string {
	name, err := e.names.GetDeviceName(vendorID, deviceID)
	if err != nil || name == "" {
		return fmt.Sprintf("Device %04x:%04x", vendorID, deviceID)
	}
	return name
}

func readHex(dir, name string) (uint64, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return 0, fmt.Errorf("error reading %v: %w", name, err)
	}
	value, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(string(data)), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("error parsing %v: %w", name, err)
	}
	return value, nil
}

func findHwmon(devicePath string) string {
	matches, _ := filepath.Glob(filepath.Join(devicePath, "hwmon", "hwmon[0-9]*"))
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}
