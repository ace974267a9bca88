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

package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/classify"
	"github.com/NVIDIA/gpu-inventory/internal/discover"
	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/platform"
	"github.com/NVIDIA/gpu-inventory/internal/probe"
	"github.com/NVIDIA/gpu-inventory/internal/reader"
	"github.com/NVIDIA/gpu-inventory/internal/resource"
)

// ManagerSet is the set of vendor backends an inventory operates through.
type ManagerSet interface {
	For(gpu.Vendor) resource.Manager
	Init() error
	Shutdown() error
}

// Lister lists the devices of the compute platform.
type Lister interface {
	List(context.Context) ([]platform.Device, error)
}

// Prober detects the host capabilities.
type Prober interface {
	Probe() probe.Capabilities
}

// CapabilityCounts is the number of devices per compatibility class.
type CapabilityCounts struct {
	Total      int `json:"total"`
	RW         int `json:"rw"`
	ROnly      int `json:"ronly"`
	WOnly      int `json:"wonly"`
	Unreadable int `json:"unreadable"`
}

// Inventory is one snapshot of the GPUs on the host.
type Inventory struct {
	id       string
	caps     probe.Capabilities
	devices  []*gpu.Device
	skipped  int
	managers ManagerSet
	lister   Lister

	classifier *classify.Classifier
	reader     *reader.Reader
}

// New probes the host, enumerates its GPUs and classifies them. A host
// without a GPU subsystem yields an empty inventory rather than an error.
func New(ctx context.Context, opts ...Option) (*Inventory, error) {
	o := newOptions(opts...)

	caps := o.prober.Probe()
	inv := &Inventory{
		id:   uuid.New().String(),
		caps: caps,
	}
	if caps.NoGpuSubsystem {
		klog.Warningf("Inventory %v: no GPU subsystem found under %v", inv.id, caps.SysfsRoot)
		inv.managers = resource.Managers{}
		inv.setup(o)
		return inv, nil
	}

	result, err := discover.New(o.discoverOptions()...).Enumerate()
	if err != nil {
		return nil, fmt.Errorf("error enumerating devices: %w", err)
	}
	inv.devices = result.Devices
	inv.skipped = result.Skipped

	inv.managers = o.managers
	if inv.managers == nil {
		inv.managers = resource.NewManagers(caps, o.failOnInitError)
	}
	if err := inv.managers.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize vendor interfaces: %w", err)
	}
	inv.setup(o)

	if err := inv.Reclassify(ctx); err != nil {
		_ = inv.Close()
		return nil, err
	}
	klog.Infof("Inventory %v: %d device(s), %d skipped", inv.id, len(inv.devices), inv.skipped)
	return inv, nil
}

func (inv *Inventory) setup(o *options) {
	inv.classifier = classify.New(inv.managers, o.probeTimeout)
	inv.reader = reader.New(inv.managers, o.probeTimeout)
	inv.lister = o.lister
	if inv.lister == nil {
		inv.lister = platform.NewLister(inv.caps.PlatformCommand)
	}
}

// Check returns gpu.ErrNoGpuSubsystem if the inventory has no devices.
func (inv *Inventory) Check() error {
	if len(inv.devices) == 0 {
		return gpu.ErrNoGpuSubsystem
	}
	return nil
}

// ID returns the snapshot id assigned when the inventory was built.
func (inv *Inventory) ID() string {
	return inv.id
}

// Capabilities returns what the host probe detected.
func (inv *Inventory) Capabilities() probe.Capabilities {
	return inv.caps
}

// Devices returns the device records in enumeration order.
func (inv *Inventory) Devices() []*gpu.Device {
	return inv.devices
}

// Skipped returns the number of malformed device nodes left out.
func (inv *Inventory) Skipped() int {
	return inv.skipped
}

// VendorCounts returns the number of devices per vendor.
func (inv *Inventory) VendorCounts() map[gpu.Vendor]int {
	counts := make(map[gpu.Vendor]int)
	for _, d := range inv.devices {
		counts[d.Vendor]++
	}
	return counts
}

// CapabilityCounts returns the number of devices per compatibility class.
func (inv *Inventory) CapabilityCounts() CapabilityCounts {
	var c CapabilityCounts
	for _, d := range inv.devices {
		c.Total++
		switch d.Compatibility {
		case gpu.ReadWrite:
			c.RW++
		case gpu.ReadOnly:
			c.ROnly++
		case gpu.WriteOnly:
			c.WOnly++
		default:
			c.Unreadable++
		}
	}
	return c
}

// Filter returns an inventory holding the devices that match pred. The
// records and vendor interfaces are shared with the receiver, so only the
// original inventory should be closed.
func (inv *Inventory) Filter(pred func(*gpu.Device) bool) *Inventory {
	filtered := *inv
	filtered.devices = nil
	for _, d := range inv.devices {
		if pred(d) {
			filtered.devices = append(filtered.devices, d)
		}
	}
	return &filtered
}

// Reclassify runs the read and write probes again on every device.
func (inv *Inventory) Reclassify(ctx context.Context) error {
	if err := inv.classifier.ClassifyAll(ctx, inv.devices); err != nil {
		return fmt.Errorf("error classifying devices: %w", err)
	}
	return nil
}

// ReadSensorSet reads a sensor set from every device.
func (inv *Inventory) ReadSensorSet(ctx context.Context, set gpu.SensorSet) reader.Summary {
	s := inv.reader.ReadSetAll(ctx, inv.devices, set)
	klog.V(4).Infof("Inventory %v: read %v: %+v", inv.id, set, s)
	return s
}

// ReadPStates reads the pstate table of every device.
func (inv *Inventory) ReadPStates(ctx context.Context) reader.Summary {
	return inv.reader.ReadPStatesAll(ctx, inv.devices)
}

// ReadPPM reads the power/performance mode table of every device.
func (inv *Inventory) ReadPPM(ctx context.Context) reader.Summary {
	return inv.reader.ReadPPMAll(ctx, inv.devices)
}

// MergePlatform attaches compute platform details to the matching devices.
// If the platform cannot be listed the devices are left untouched and false
// is returned.
func (inv *Inventory) MergePlatform(ctx context.Context) bool {
	devices, err := inv.lister.List(ctx)
	if err != nil {
		klog.Infof("Compute platform details unavailable: %v", err)
		return false
	}
	matched := platform.Merge(inv.devices, devices)
	klog.Infof("Inventory %v: matched %d of %d device(s) to the compute platform", inv.id, matched, len(inv.devices))
	return true
}

// Close shuts down the vendor interfaces.
func (inv *Inventory) Close() error {
	if inv.managers == nil {
		return nil
	}
	return inv.managers.Shutdown()
}
